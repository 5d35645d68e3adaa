// Package ledger persists categories, currencies and invoices and runs reports.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	"github.com/Proton-105/cashflow-bot/internal/repository"
	"github.com/Proton-105/cashflow-bot/internal/table"
)

var (
	categoryColumns = []string{"id", "name"}
	currencyColumns = []string{"id", "code"}
)

// ErrNotFound is returned when a category or currency does not exist.
var ErrNotFound = repository.ErrNotFound

// Service applies the save and load lifecycle of ledger entities.
type Service struct {
	store repository.Store
	log   *slog.Logger
}

// NewService constructs a Service over the persistence store.
func NewService(store repository.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{store: store, log: log}
}

// SaveCategory inserts a new category or renames a loaded one.
// A new category always receives the next available id, whatever id it carried before.
func (s *Service) SaveCategory(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	if !category.IsNew() {
		values := repository.Values{"name": category.Name}
		if err := s.store.Update(ctx, repository.TableCategories, values, category.ID, "id"); err != nil {
			return fmt.Errorf("update category %d: %w", category.ID, err)
		}
		return nil
	}

	id, err := s.store.GetAvailableID(ctx, repository.TableCategories, "id")
	if err != nil {
		return fmt.Errorf("category id: %w", err)
	}
	if category.ID != id {
		category.SetID(id)
	}

	values := repository.Values{"id": category.ID, "name": category.Name}
	if err := s.store.Insert(ctx, repository.TableCategories, values); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	category.MarkLoaded()
	s.log.Info("category created", slog.Int64("category_id", category.ID), slog.String("name", category.Name))
	return nil
}

// LoadCategory reads a category and locks its id.
func (s *Service) LoadCategory(ctx context.Context, id int64) (*domain.Category, error) {
	result, err := s.store.GetByID(ctx, repository.TableCategories, categoryColumns, id, "id")
	if err != nil {
		return nil, err
	}
	return categoryFromRow(result, 0)
}

// Categories lists every category ordered by id.
func (s *Service) Categories(ctx context.Context) ([]*domain.Category, error) {
	result, err := s.store.GetAll(ctx, repository.TableCategories, categoryColumns)
	if err != nil {
		return nil, err
	}

	categories := make([]*domain.Category, 0, result.RowCount())
	for i := 0; i < result.RowCount(); i++ {
		category, err := categoryFromRow(result, i)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// SaveCurrency inserts a new currency. A loaded currency is written back unchanged since its code is immutable.
// A new currency always receives the next available id, whatever id it carried before.
func (s *Service) SaveCurrency(ctx context.Context, currency *domain.Currency) error {
	if err := currency.Validate(); err != nil {
		return err
	}

	if !currency.IsNew() {
		values := repository.Values{"code": currency.Code}
		if err := s.store.Update(ctx, repository.TableCurrencies, values, currency.ID, "id"); err != nil {
			return fmt.Errorf("update currency %d: %w", currency.ID, err)
		}
		return nil
	}

	id, err := s.store.GetAvailableID(ctx, repository.TableCurrencies, "id")
	if err != nil {
		return fmt.Errorf("currency id: %w", err)
	}
	if currency.ID != id {
		currency.SetID(id)
	}

	values := repository.Values{"id": currency.ID, "code": currency.Code}
	if err := s.store.Insert(ctx, repository.TableCurrencies, values); err != nil {
		return fmt.Errorf("insert currency: %w", err)
	}

	currency.MarkLoaded()
	s.log.Info("currency created", slog.Int64("currency_id", currency.ID), slog.String("code", currency.Code))
	return nil
}

// LoadCurrency reads a currency by id.
func (s *Service) LoadCurrency(ctx context.Context, id int64) (*domain.Currency, error) {
	result, err := s.store.GetByID(ctx, repository.TableCurrencies, currencyColumns, id, "id")
	if err != nil {
		return nil, err
	}
	return currencyFromRow(result, 0)
}

// LoadCurrencyByCode reads a currency by its code, ignoring case.
func (s *Service) LoadCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	result, err := s.store.GetByID(ctx, repository.TableCurrencies, currencyColumns, domain.NormalizeCurrencyCode(code), "code")
	if err != nil {
		return nil, err
	}
	return currencyFromRow(result, 0)
}

// Currencies lists every currency ordered by id.
func (s *Service) Currencies(ctx context.Context) ([]*domain.Currency, error) {
	result, err := s.store.GetAll(ctx, repository.TableCurrencies, currencyColumns)
	if err != nil {
		return nil, err
	}

	currencies := make([]*domain.Currency, 0, result.RowCount())
	for i := 0; i < result.RowCount(); i++ {
		currency, err := currencyFromRow(result, i)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, currency)
	}
	return currencies, nil
}

// SaveInvoice stores the entry for user with its amount signed by direction.
func (s *Service) SaveInvoice(ctx context.Context, invoice *domain.Invoice, user *domain.User) error {
	if err := invoice.Validate(); err != nil {
		return err
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if invoice.Currency.IsNew() {
		return fmt.Errorf("%w: currency %q is not saved", domain.ErrInvalidInvoice, invoice.Currency.Code)
	}

	invoice.UserID = user.ID

	var categoryID any
	if invoice.Category != nil {
		categoryID = invoice.Category.ID
	}

	values := repository.Values{
		"date_time":   invoice.DateTime,
		"amount":      invoice.SignedAmount(),
		"category_id": categoryID,
		"currency_id": invoice.Currency.ID,
		"income":      boolToInt(invoice.Income),
		"expense":     boolToInt(invoice.Expense),
		"user_id":     user.ID,
	}

	if err := s.store.Insert(ctx, repository.TableCashFlow, values); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	s.log.Info("invoice recorded",
		slog.Int64("user_id", user.ID),
		slog.String("amount", invoice.SignedAmount().String()),
		slog.String("currency", invoice.Currency.Code),
	)
	return nil
}

// FetchReport runs the report query unless the report already holds a result.
func (s *Service) FetchReport(ctx context.Context, report *domain.Report) (*table.TreeTable, error) {
	return report.Fetch(ctx, s)
}

// GetReport translates the report into store parameters. It implements domain.ReportFetcher.
func (s *Service) GetReport(ctx context.Context, report *domain.Report) (*table.TreeTable, error) {
	params := repository.ReportParams{
		Start:           report.StartString(),
		End:             report.EndString(),
		Income:          report.Kind == domain.ReportIncome,
		Expense:         report.Kind == domain.ReportExpenses,
		Balance:         report.Kind == domain.ReportBalance,
		GroupByCategory: report.GroupByCategory && report.Kind == domain.ReportExpenses,
	}

	result, err := s.store.GetReport(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch %s report: %w", report.Kind, err)
	}
	return result, nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func categoryFromRow(result *table.Table, row int) (*domain.Category, error) {
	rawID, err := result.Value(table.ByName("id"), row)
	if err != nil {
		return nil, err
	}
	id, err := repository.AsInt64(rawID)
	if err != nil {
		return nil, fmt.Errorf("category id: %w", err)
	}
	name, _ := result.Value(table.ByName("name"), row)

	category := &domain.Category{ID: id, Name: fmt.Sprint(name)}
	category.MarkLoaded()
	return category, nil
}

func currencyFromRow(result *table.Table, row int) (*domain.Currency, error) {
	rawID, err := result.Value(table.ByName("id"), row)
	if err != nil {
		return nil, err
	}
	id, err := repository.AsInt64(rawID)
	if err != nil {
		return nil, fmt.Errorf("currency id: %w", err)
	}
	code, _ := result.Value(table.ByName("code"), row)

	currency := &domain.Currency{ID: id, Code: fmt.Sprint(code)}
	currency.MarkLoaded()
	return currency, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
