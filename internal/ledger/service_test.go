package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	"github.com/Proton-105/cashflow-bot/internal/repository"
	"github.com/Proton-105/cashflow-bot/internal/table"
	"github.com/Proton-105/cashflow-bot/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *repository.SQLStore) {
	t.Helper()
	store := testutil.SQLiteStore(t)
	return NewService(store, testutil.Logger()), store
}

func TestSaveCategory_AssignsIDThenUpdates(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.Insert(ctx, repository.TableCategories, repository.Values{"id": 4, "name": "Rent"}))

	category := domain.NewCategory("Groceries")
	require.NoError(t, svc.SaveCategory(ctx, category))
	assert.Equal(t, int64(5), category.ID)
	assert.Equal(t, domain.LifecycleLoaded, category.Lifecycle)

	require.NoError(t, category.SetName("Food"))
	require.NoError(t, svc.SaveCategory(ctx, category))
	assert.Equal(t, int64(5), category.ID)

	all, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Food", all[1].Name)
}

func TestSaveCategory_FirstIDIsOne(t *testing.T) {
	svc, _ := newTestService(t)

	category := domain.NewCategory("Groceries")
	require.NoError(t, svc.SaveCategory(context.Background(), category))
	assert.Equal(t, int64(1), category.ID)
}

func TestSaveCategory_RejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SaveCategory(context.Background(), domain.NewCategory("  "))
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestSaveCurrency_OverwritesCallerID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	currency := domain.NewCurrency("usd")
	currency.SetID(42)
	require.NoError(t, svc.SaveCurrency(ctx, currency))
	assert.Equal(t, int64(1), currency.ID)

	loaded, err := svc.LoadCurrency(ctx, currency.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", loaded.Code)
	assert.False(t, loaded.SetID(9))

	byCode, err := svc.LoadCurrencyByCode(ctx, " usd")
	require.NoError(t, err)
	assert.Equal(t, currency.ID, byCode.ID)
}

func TestSaveCurrency_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	assert.ErrorIs(t, svc.SaveCurrency(ctx, domain.NewCurrency("")), domain.ErrEmptyCode)
	assert.ErrorIs(t, svc.SaveCurrency(ctx, domain.NewCurrency("USDT")), domain.ErrInvalidCurrencyCode)

	_, err := svc.LoadCurrencyByCode(ctx, "EUR")
	assert.True(t, IsNotFound(err))
}

func TestSaveInvoice_StoresSignedAmount(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	currency := domain.NewCurrency("USD")
	require.NoError(t, svc.SaveCurrency(ctx, currency))
	category := domain.NewCategory("Food")
	require.NoError(t, svc.SaveCategory(ctx, category))

	user := domain.NewUser(10, "Ann")
	day := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	expense := domain.NewExpense(day)
	expense.Category = category
	expense.Currency = currency
	expense.SetAmountText("20")
	require.NoError(t, svc.SaveInvoice(ctx, expense, user))

	income := domain.NewIncome(day)
	income.Currency = currency
	income.SetAmountText("-100")
	require.NoError(t, svc.SaveInvoice(ctx, income, user))

	rows, err := store.GetAll(ctx, repository.TableCashFlow, []string{"amount", "income", "expense", "user_id", "category_id"})
	require.NoError(t, err)
	require.Equal(t, 2, rows.RowCount())

	amounts := make([]string, 0, 2)
	for i := 0; i < rows.RowCount(); i++ {
		raw, _ := rows.Value(table.ByName("amount"), i)
		amount, err := repository.AsDecimal(raw)
		require.NoError(t, err)
		amounts = append(amounts, amount.String())
	}
	assert.ElementsMatch(t, []string{"-20", "100"}, amounts)
}

func TestSaveInvoice_Invalid(t *testing.T) {
	svc, _ := newTestService(t)

	invoice := domain.NewExpense(time.Now())
	invoice.Currency = domain.NewCurrency("USD")

	err := svc.SaveInvoice(context.Background(), invoice, domain.NewUser(1, "Ann"))
	assert.ErrorIs(t, err, domain.ErrInvalidInvoice)

	invoice.SetAmountText("5")
	err = svc.SaveInvoice(context.Background(), invoice, domain.NewUser(1, "Ann"))
	assert.ErrorIs(t, err, domain.ErrInvalidInvoice)
}

func TestFetchReport_GroupedExpenses(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	usd := domain.NewCurrency("USD")
	require.NoError(t, svc.SaveCurrency(ctx, usd))
	food := domain.NewCategory("Food")
	require.NoError(t, svc.SaveCategory(ctx, food))

	user := domain.NewUser(1, "Ann")
	for _, amount := range []string{"20", "30"} {
		inv := domain.NewExpense(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
		inv.Category = food
		inv.Currency = usd
		inv.SetAmountText(amount)
		require.NoError(t, svc.SaveInvoice(ctx, inv, user))
	}

	report := domain.NewReport(domain.ReportExpenses, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	report.SetGrouping(true)
	report.End = time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	_, err := svc.FetchReport(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, []string{"-50 USD > Food"}, report.Lines())
}
