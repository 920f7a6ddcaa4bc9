package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lifedash/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRepository is the single persistence surface. It backs the
// transaction and recurring services, the dashboard aggregation and every
// module stats provider.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction implements services.TransactionStore.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (type, amount_cents, date, category_id, description, notes, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.Type), t.Amount.Cents, core.DateKey(t.Date), nullID(t.CategoryID),
		t.Description, t.Notes, t.Source)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}
	return id, nil
}

// ListTransactionsByMonth implements services.DashboardStore.
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount_cents, date, category_id, description, notes, source
		 FROM transactions WHERE substr(date, 1, 7) = ? ORDER BY date, id`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", prefix, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount_cents, date, category_id, description, notes, source
		 FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	defer rows.Close()

	out, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(out) == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return out[0], nil
}

func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount_cents, date, category_id, description, notes, source
		 FROM transactions ORDER BY date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			typ      string
			dateKey  string
			category sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &typ, &t.Amount.Cents, &dateKey, &category,
			&t.Description, &t.Notes, &t.Source); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		date, err := time.Parse(dateLayout, dateKey)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", dateKey, err)
		}
		t.Date = date
		if category.Valid {
			t.CategoryID = &category.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, d core.RecurringDefinition) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_definitions
		 (type, category_id, description, amount_cents, frequency, start_date, end_date, last_generated, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(d.Type), nullID(d.CategoryID), d.Description, d.Amount.Cents,
		string(d.Frequency), core.DateKey(d.StartDate), nullDate(d.EndDate),
		nullDate(d.LastGenerated), boolInt(d.Active))
	if err != nil {
		return 0, fmt.Errorf("create recurring definition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringDefinition, error) {
	return r.listRecurring(ctx, `SELECT id, type, category_id, description, amount_cents,
		frequency, start_date, end_date, last_generated, active
		FROM recurring_definitions ORDER BY id`)
}

// ListActiveRecurring implements services.RecurringStore.
func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context) ([]core.RecurringDefinition, error) {
	return r.listRecurring(ctx, `SELECT id, type, category_id, description, amount_cents,
		frequency, start_date, end_date, last_generated, active
		FROM recurring_definitions WHERE active = 1 ORDER BY id`)
}

func (r *SQLiteRepository) listRecurring(ctx context.Context, query string) ([]core.RecurringDefinition, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring definitions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringDefinition
	for rows.Next() {
		var (
			d                core.RecurringDefinition
			typ, freq, start string
			category         sql.NullInt64
			end, lastGen     sql.NullString
			active           int
		)
		if err := rows.Scan(&d.ID, &typ, &category, &d.Description, &d.Amount.Cents,
			&freq, &start, &end, &lastGen, &active); err != nil {
			return nil, fmt.Errorf("scan recurring definition: %w", err)
		}
		d.Type = core.TransactionType(typ)
		d.Frequency = core.Frequency(freq)
		if category.Valid {
			d.CategoryID = &category.Int64
		}
		startDate, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("parse start date %q: %w", start, err)
		}
		d.StartDate = startDate
		if d.EndDate, err = parseNullDate(end); err != nil {
			return nil, fmt.Errorf("parse end date: %w", err)
		}
		if d.LastGenerated, err = parseNullDate(lastGen); err != nil {
			return nil, fmt.Errorf("parse last generated: %w", err)
		}
		d.Active = active != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateLastGenerated implements services.RecurringStore. Advancing the
// watermark and creating the occurrence are separate statements; the sweep
// tolerates a crash between them because creation is retried idempotently
// from the watermark.
func (r *SQLiteRepository) UpdateLastGenerated(ctx context.Context, id int64, when time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_definitions SET last_generated = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		core.DateKey(when), id)
	if err != nil {
		return fmt.Errorf("update last generated for recurring %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_definitions SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolInt(active), id)
	if err != nil {
		return fmt.Errorf("set recurring %d active: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category_id, amount_cents, year, month) VALUES (?, ?, ?, ?)`,
		nullID(b.CategoryID), b.Amount.Cents, b.Year, b.Month)
	if err != nil {
		return 0, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget insert id: %w", err)
	}
	return id, nil
}

// ListBudgetsByMonth implements services.DashboardStore.
func (r *SQLiteRepository) ListBudgetsByMonth(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, amount_cents, year, month FROM budgets
		 WHERE year = ? AND month = ? ORDER BY id`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets for %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b        core.Budget
			category sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &category, &b.Amount.Cents, &b.Year, &b.Month); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if category.Valid {
			b.CategoryID = &category.Int64
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, title string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO goals (title) VALUES (?)`, title)
	if err != nil {
		return 0, fmt.Errorf("create goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("goal insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) SetGoalAchieved(ctx context.Context, id int64, achieved bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE goals SET achieved = ? WHERE id = ?`, boolInt(achieved), id)
	if err != nil {
		return fmt.Errorf("set goal %d achieved: %w", id, err)
	}
	return requireRow(res, id)
}

// ListGoals implements services.DashboardStore and stats.GoalSource.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, achieved, archived FROM goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g                  core.Goal
			achieved, archived int
		)
		if err := rows.Scan(&g.ID, &g.Title, &achieved, &archived); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.Achieved = achieved != 0
		g.Archived = archived != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateHabit(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO habits (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create habit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("habit insert id: %w", err)
	}
	return id, nil
}

// AddHabitCompletion records a completion for the given date key. Adding the
// same key twice is harmless; completion rate counting deduplicates.
func (r *SQLiteRepository) AddHabitCompletion(ctx context.Context, id int64, dateKey string) error {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT completions FROM habits WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load habit %d: %w", id, err)
	}

	var completions []string
	if err := json.Unmarshal([]byte(raw), &completions); err != nil {
		return fmt.Errorf("decode completions for habit %d: %w", id, err)
	}
	completions = append(completions, dateKey)
	encoded, err := json.Marshal(completions)
	if err != nil {
		return fmt.Errorf("encode completions for habit %d: %w", id, err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE habits SET completions = ? WHERE id = ?`, string(encoded), id); err != nil {
		return fmt.Errorf("update habit %d: %w", id, err)
	}
	return nil
}

// ListHabits implements stats.HabitSource.
func (r *SQLiteRepository) ListHabits(ctx context.Context) ([]core.Habit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, completions FROM habits ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var out []core.Habit
	for rows.Next() {
		var (
			h   core.Habit
			raw string
		)
		if err := rows.Scan(&h.ID, &h.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &h.Completions); err != nil {
			return nil, fmt.Errorf("decode completions for habit %d: %w", h.ID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateEvent(ctx context.Context, title, dateKey string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO events (title, date) VALUES (?, ?)`, title, dateKey)
	if err != nil {
		return 0, fmt.Errorf("create event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event insert id: %w", err)
	}
	return id, nil
}

// ListEventsFrom implements stats.EventSource. Date keys sort lexically so
// the comparison happens in SQL.
func (r *SQLiteRepository) ListEventsFrom(ctx context.Context, fromKey string) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, date FROM events WHERE date >= ? ORDER BY date, id`, fromKey)
	if err != nil {
		return nil, fmt.Errorf("list events from %s: %w", fromKey, err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		var e core.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Date); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddBook(ctx context.Context, title, status string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO books (title, status) VALUES (?, ?)`, title, status); err != nil {
		return fmt.Errorf("add book: %w", err)
	}
	return nil
}

// BookTotals implements stats.BookSource.
func (r *SQLiteRepository) BookTotals(ctx context.Context) (reading int, finished int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(CASE WHEN status = 'reading' THEN 1 END),
		        COUNT(CASE WHEN status = 'finished' THEN 1 END)
		 FROM books`).Scan(&reading, &finished)
	if err != nil {
		return 0, 0, fmt.Errorf("book totals: %w", err)
	}
	return reading, finished, nil
}

func (r *SQLiteRepository) AddWorkout(ctx context.Context, activity, dateKey string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO workouts (activity, date) VALUES (?, ?)`, activity, dateKey); err != nil {
		return fmt.Errorf("add workout: %w", err)
	}
	return nil
}

// WorkoutTotals implements stats.WorkoutSource.
func (r *SQLiteRepository) WorkoutTotals(ctx context.Context, weekStartKey string) (week int, total int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(CASE WHEN date >= ? THEN 1 END), COUNT(*) FROM workouts`, weekStartKey).
		Scan(&week, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("workout totals: %w", err)
	}
	return week, total, nil
}

func (r *SQLiteRepository) AddInventoryItem(ctx context.Context, name string, value core.Money) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO inventory_items (name, value_cents) VALUES (?, ?)`, name, value.Cents); err != nil {
		return fmt.Errorf("add inventory item: %w", err)
	}
	return nil
}

// InventoryTotals implements stats.InventorySource.
func (r *SQLiteRepository) InventoryTotals(ctx context.Context) (items int, value core.Money, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(value_cents), 0) FROM inventory_items`).
		Scan(&items, &value.Cents)
	if err != nil {
		return 0, core.Money{}, fmt.Errorf("inventory totals: %w", err)
	}
	return items, value, nil
}

func (r *SQLiteRepository) AddContact(ctx context.Context, name, birthday string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO contacts (name, birthday) VALUES (?, ?)`, name, nullString(birthday)); err != nil {
		return fmt.Errorf("add contact: %w", err)
	}
	return nil
}

// ContactCount implements stats.ContactSource.
func (r *SQLiteRepository) ContactCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("contact count: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) AddPosition(ctx context.Context, symbol, status string, unrealized core.Money) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO positions (symbol, status, unrealized_cents) VALUES (?, ?, ?)`,
		symbol, status, unrealized.Cents); err != nil {
		return fmt.Errorf("add position: %w", err)
	}
	return nil
}

// PositionTotals implements stats.PositionSource. Closed positions do not
// contribute to the unrealized sum.
func (r *SQLiteRepository) PositionTotals(ctx context.Context) (open int, unrealized core.Money, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(unrealized_cents), 0) FROM positions WHERE status = 'open'`).
		Scan(&open, &unrealized.Cents)
	if err != nil {
		return 0, core.Money{}, fmt.Errorf("position totals: %w", err)
	}
	return open, unrealized, nil
}

func (r *SQLiteRepository) AddVaultEntry(ctx context.Context, label, strength string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO vault_entries (label, strength) VALUES (?, ?)`, label, strength); err != nil {
		return fmt.Errorf("add vault entry: %w", err)
	}
	return nil
}

// VaultTotals implements stats.VaultSource.
func (r *SQLiteRepository) VaultTotals(ctx context.Context) (entries int, weak int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(CASE WHEN strength = 'weak' THEN 1 END) FROM vault_entries`).
		Scan(&entries, &weak)
	if err != nil {
		return 0, 0, fmt.Errorf("vault totals: %w", err)
	}
	return entries, weak, nil
}

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return core.DateKey(t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseNullDate(s sql.NullString) (time.Time, error) {
	if !s.Valid {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s.String)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for id %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
