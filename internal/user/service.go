// Package user handles registration: who may use the bot, who approves newcomers.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	"github.com/Proton-105/cashflow-bot/internal/repository"
	"github.com/Proton-105/cashflow-bot/internal/usercache"
)

const (
	defaultCacheTTL = 10 * time.Minute
	unknownCacheTTL = time.Minute
)

var (
	// ErrNoAdministrator indicates that nobody can approve registrations.
	ErrNoAdministrator = errors.New("administrator is not configured")
	// ErrNoPendingRequest indicates that the candidate has no open registration request.
	ErrNoPendingRequest = errors.New("no pending registration request")
)

// RequestStatus is the outcome of a registration request.
type RequestStatus int

const (
	// RequestSubmitted means the administrator has to answer.
	RequestSubmitted RequestStatus = iota
	// RequestPending means the user already waits for an answer.
	RequestPending
	// RequestRegistered means the user already has access.
	RequestRegistered
)

// Service provides registration operations over users.
type Service struct {
	repo     repository.UserRepository
	cache    *usercache.Cache
	pending  *PendingSet
	cacheTTL time.Duration
	log      *slog.Logger
}

// NewService constructs a new Service instance. cache may be nil.
func NewService(repo repository.UserRepository, cache *usercache.Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo:     repo,
		cache:    cache,
		pending:  NewPendingSet(),
		cacheTTL: defaultCacheTTL,
		log:      log,
	}
}

// IsRegistered reports whether the user may use the bot.
func (s *Service) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Registered, nil
}

// Get returns a registered user, consulting the cache first. Misses are cached for a short while
// so messages from strangers do not reach the database.
func (s *Service) Get(ctx context.Context, userID int64) (*domain.User, error) {
	cached, err := s.cache.Get(ctx, userID)
	switch {
	case errors.Is(err, usercache.ErrUnknownUser):
		return nil, repository.ErrNotFound
	case err != nil:
		s.logError("get.cache", userID, err)
	case cached != nil:
		return cached, nil
	}

	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		if err := s.cache.SetUnknown(ctx, userID, unknownCacheTTL); err != nil {
			s.logError("get.cache_unknown", userID, err)
		}
		return nil, err
	}
	if err != nil {
		s.logError("get.find", userID, err)
		return nil, err
	}

	if err := s.cache.Set(ctx, user, s.cacheTTL); err != nil {
		s.logError("get.cache_set", userID, err)
	}

	return user, nil
}

// Administrator returns the user allowed to approve registrations.
func (s *Service) Administrator(ctx context.Context) (*domain.User, error) {
	admin, err := s.repo.FindAdministrator(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoAdministrator
		}
		return nil, fmt.Errorf("find administrator: %w", err)
	}
	return admin, nil
}

// IsAdministrator reports whether userID belongs to the administrator.
func (s *Service) IsAdministrator(ctx context.Context, userID int64) (bool, error) {
	admin, err := s.Administrator(ctx)
	if err != nil {
		if errors.Is(err, ErrNoAdministrator) {
			return false, nil
		}
		return false, err
	}
	return admin.ID == userID, nil
}

// EnsureAdministrator creates the administrator on first run. An existing administrator is kept.
func (s *Service) EnsureAdministrator(ctx context.Context, id int64, name string) error {
	if _, err := s.Administrator(ctx); err == nil {
		return nil
	} else if !errors.Is(err, ErrNoAdministrator) {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err == nil {
		return fmt.Errorf("user %d exists but is not the administrator", id)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	admin := domain.NewUser(id, name)
	admin.IsAdmin = true
	if err := s.repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}

	s.log.Info("administrator created", slog.Int64("user_id", id))
	return nil
}

// RequestAccess queues the user for approval and returns the administrator to ask.
func (s *Service) RequestAccess(ctx context.Context, candidate *domain.User) (RequestStatus, *domain.User, error) {
	registered, err := s.IsRegistered(ctx, candidate.ID)
	if err != nil {
		return 0, nil, err
	}
	if registered {
		return RequestRegistered, nil, nil
	}

	if s.pending.Has(candidate.ID) {
		return RequestPending, nil, nil
	}

	admin, err := s.Administrator(ctx)
	if err != nil {
		return 0, nil, err
	}

	s.pending.Add(candidate)
	s.log.Info("registration requested", slog.Int64("user_id", candidate.ID))
	return RequestSubmitted, admin, nil
}

// Resolve applies the administrator decision. Approved candidates are stored as users.
func (s *Service) Resolve(ctx context.Context, candidateID int64, approve bool) (*domain.User, error) {
	candidate, ok := s.pending.Get(candidateID)
	if !ok {
		return nil, ErrNoPendingRequest
	}

	// TODO: clear only the resolved candidate; the whole set is dropped so concurrent requests are lost.
	defer s.pending.Clear()

	if !approve {
		s.log.Info("registration declined", slog.Int64("user_id", candidateID))
		return candidate, nil
	}

	if err := s.repo.Create(ctx, candidate); err != nil {
		s.logError("resolve.create", candidateID, err)
		return nil, err
	}
	if err := s.cache.Forget(ctx, candidateID); err != nil {
		s.logError("resolve.cache_forget", candidateID, err)
	}

	s.log.Info("registration approved", slog.Int64("user_id", candidateID))
	return candidate, nil
}

// Pending reports whether the user waits for approval.
func (s *Service) Pending(userID int64) bool {
	return s.pending.Has(userID)
}

func (s *Service) logError(operation string, userID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("user service operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.Any("error", err),
	)
}
