package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/cashflow-bot/internal/database"
	"github.com/Proton-105/cashflow-bot/internal/domain"
	"github.com/Proton-105/cashflow-bot/internal/table"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLStore implements Store over database/sql for Postgres and SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

// NewSQLStore creates a store. driver selects the placeholder syntax.
func NewSQLStore(db *sql.DB, driver string, log *slog.Logger) *SQLStore {
	if log == nil {
		log = slog.Default()
	}

	return &SQLStore{
		db:     db,
		driver: driver,
		log:    log,
	}
}

// GetByID returns the single row whose idColumn equals id.
func (s *SQLStore) GetByID(ctx context.Context, tbl string, columns []string, id any, idColumn string) (*table.Table, error) {
	if err := checkIdentifiers(append([]string{tbl, idColumn}, columns...)...); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = %s LIMIT 1",
		strings.Join(columns, ", "), tbl, idColumn, s.placeholder(1),
	)

	result, err := s.queryTable(ctx, query, columns, id)
	if err != nil {
		s.log.Error("failed to fetch row by id", slog.String("table", tbl), slog.Any("id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select %s by %s: %w", tbl, idColumn, err)
	}

	if result.RowCount() == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

// GetAvailableID returns max(idColumn)+1, or 1 when the table is empty.
func (s *SQLStore) GetAvailableID(ctx context.Context, tbl, idColumn string) (int64, error) {
	if err := checkIdentifiers(tbl, idColumn); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", idColumn, tbl)

	var id int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&id); err != nil {
		s.log.Error("failed to compute available id", slog.String("table", tbl), slog.Any("error", err))
		return 0, fmt.Errorf("select available id from %s: %w", tbl, err)
	}

	return id, nil
}

// Insert adds one row. Columns are written in name order.
func (s *SQLStore) Insert(ctx context.Context, tbl string, values Values) error {
	columns := values.columns()
	if len(columns) == 0 {
		return fmt.Errorf("insert into %s: no values", tbl)
	}
	if err := checkIdentifiers(append([]string{tbl}, columns...)...); err != nil {
		return err
	}

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		placeholders[i] = s.placeholder(i + 1)
		args[i] = values[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		tbl, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.log.Error("failed to insert row", slog.String("table", tbl), slog.Any("error", err))
		return fmt.Errorf("insert into %s: %w", tbl, err)
	}

	return nil
}

// Update changes the rows whose idColumn equals id.
func (s *SQLStore) Update(ctx context.Context, tbl string, values Values, id any, idColumn string) error {
	columns := values.columns()
	if len(columns) == 0 {
		return fmt.Errorf("update %s: no values", tbl)
	}
	if err := checkIdentifiers(append([]string{tbl, idColumn}, columns...)...); err != nil {
		return err
	}

	assignments := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		assignments[i] = fmt.Sprintf("%s = %s", col, s.placeholder(i+1))
		args = append(args, values[col])
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s",
		tbl, strings.Join(assignments, ", "), idColumn, s.placeholder(len(args)),
	)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.log.Error("failed to update row", slog.String("table", tbl), slog.Any("id", id), slog.Any("error", err))
		return fmt.Errorf("update %s: %w", tbl, err)
	}

	return nil
}

// GetAll returns every row of the table ordered by the first column.
func (s *SQLStore) GetAll(ctx context.Context, tbl string, columns []string) (*table.Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("select from %s: no columns", tbl)
	}
	if err := checkIdentifiers(append([]string{tbl}, columns...)...); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), tbl, columns[0])

	result, err := s.queryTable(ctx, query, columns)
	if err != nil {
		s.log.Error("failed to fetch rows", slog.String("table", tbl), slog.Any("error", err))
		return nil, fmt.Errorf("select from %s: %w", tbl, err)
	}

	return result, nil
}

// GetReport runs one of three aggregates. Grouped rows carry the category name in the Parent column.
func (s *SQLStore) GetReport(ctx context.Context, params ReportParams) (*table.TreeTable, error) {
	query, args := s.reportQuery(params)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("failed to run report query", slog.Any("params", params), slog.Any("error", err))
		return nil, fmt.Errorf("run report query: %w", err)
	}
	defer rows.Close()

	result := table.MustNewTree(table.NewColumns(domain.ReportAmountColumn, domain.ReportCurrencyColumn))

	for rows.Next() {
		var (
			amount   any
			currency string
			category sql.NullString
		)

		dest := []any{&amount, &currency}
		if params.GroupByCategory && !params.Balance {
			dest = append(dest, &category)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}

		sum, err := AsDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("parse report amount: %w", err)
		}

		var parent any
		if category.Valid {
			parent = category.String
		}

		if err := result.AppendRow(sum, currency, parent); err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return result, nil
}

func (s *SQLStore) reportQuery(params ReportParams) (string, []any) {
	const from = `
		FROM cash_flow cf
		JOIN currencies cur ON cur.id = cf.currency_id`

	switch {
	case params.Balance:
		return fmt.Sprintf(`
		SELECT SUM(cf.amount), cur.code %s
		WHERE cf.date_time <= %s
		GROUP BY cur.code
		ORDER BY cur.code`, from, s.placeholder(1)), []any{params.End}

	case params.GroupByCategory:
		return fmt.Sprintf(`
		SELECT SUM(cf.amount), cur.code, cat.name %s
		JOIN categories cat ON cat.id = cf.category_id
		WHERE cf.date_time BETWEEN %s AND %s AND cf.income = %s AND cf.expense = %s
		GROUP BY cat.name, cur.code
		ORDER BY SUM(cf.amount) ASC, cat.name`,
				from, s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4)),
			[]any{params.Start, params.End, boolToInt(params.Income), boolToInt(params.Expense)}

	default:
		return fmt.Sprintf(`
		SELECT SUM(cf.amount), cur.code %s
		WHERE cf.date_time BETWEEN %s AND %s AND cf.income = %s AND cf.expense = %s
		GROUP BY cur.code
		ORDER BY cur.code`,
				from, s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4)),
			[]any{params.Start, params.End, boolToInt(params.Income), boolToInt(params.Expense)}
	}
}

func (s *SQLStore) queryTable(ctx context.Context, query string, columns []string, args ...any) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := table.New(table.NewColumns(columns...))
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		if err := result.AppendRow(values...); err != nil {
			return nil, err
		}
	}

	return result, rows.Err()
}

func (s *SQLStore) placeholder(n int) string {
	if s.driver == database.DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (v Values) columns() []string {
	columns := make([]string, 0, len(v))
	for col := range v {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

func checkIdentifiers(names ...string) error {
	for _, name := range names {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("invalid sql identifier %q", name)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// AsDecimal converts a scanned numeric cell. Drivers return int64, float64 or text.
func AsDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case []byte:
		return decimal.NewFromString(string(v))
	case string:
		return decimal.NewFromString(v)
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", value)
	}
}
