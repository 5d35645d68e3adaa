package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	"github.com/Proton-105/cashflow-bot/internal/table"
)

var userColumns = []string{"user_id", "user_name", "user_is_admin"}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindAdministrator(ctx context.Context) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	store Store
	log   *slog.Logger
}

// NewUserRepository creates a user repository on top of the generic store.
func NewUserRepository(store Store, log *slog.Logger) UserRepository {
	if log == nil {
		log = slog.Default()
	}

	return &userRepository{
		store: store,
		log:   log,
	}
}

// FindByID returns a registered user or ErrNotFound.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, id, "user_id")
}

// FindAdministrator returns the user flagged as administrator.
func (r *userRepository) FindAdministrator(ctx context.Context) (*domain.User, error) {
	return r.findOne(ctx, 1, "user_is_admin")
}

// Create persists a user. Users with an unparseable id are rejected.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	values := Values{
		"user_id":       user.ID,
		"user_name":     user.Name,
		"user_is_admin": boolToInt(user.IsAdmin),
	}

	if err := r.store.Insert(ctx, TableUsers, values); err != nil {
		r.log.Error("failed to create user", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return fmt.Errorf("insert user: %w", err)
	}

	user.Registered = true
	return nil
}

func (r *userRepository) findOne(ctx context.Context, value any, column string) (*domain.User, error) {
	result, err := r.store.GetByID(ctx, TableUsers, userColumns, value, column)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user by %s: %w", column, err)
	}

	return userFromRow(result, 0)
}

func userFromRow(result *table.Table, row int) (*domain.User, error) {
	rawID, err := result.Value(table.ByName("user_id"), row)
	if err != nil {
		return nil, err
	}
	id, err := AsInt64(rawID)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}

	name, _ := result.Value(table.ByName("user_name"), row)
	admin, _ := result.Value(table.ByName("user_is_admin"), row)
	isAdmin, _ := AsInt64(admin)

	user := domain.NewUser(id, fmt.Sprint(valueOrEmpty(name)))
	user.IsAdmin = isAdmin == 1
	user.Registered = true
	return user, nil
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

// AsInt64 converts a scanned integer cell.
func AsInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return domain.ParseUserID(v)
	default:
		return 0, fmt.Errorf("unsupported integer type %T", value)
	}
}
