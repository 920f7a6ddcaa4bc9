package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	SourceManual    = "manual"
	SourceRecurring = "recurring"
)

type (
	Frequency string

	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a concrete dated income or expense record.
	// Source distinguishes manually entered rows from rows materialized
	// by the recurring sweep.
	Transaction struct {
		ID          int64
		Type        TransactionType
		Amount      Money
		Date        time.Time
		CategoryID  *int64 // weak reference, the category may be deleted independently
		Description string
		Notes       string
		Source      string
	}

	// RecurringDefinition is a template describing a repeating income or
	// expense. LastGenerated is mutated only by the generation sweep.
	RecurringDefinition struct {
		ID            int64
		Type          TransactionType
		CategoryID    *int64
		Description   string
		Amount        Money
		Frequency     Frequency
		StartDate     time.Time
		EndDate       time.Time // zero means no end
		LastGenerated time.Time // zero means no occurrence generated yet
		Active        bool
	}

	Budget struct {
		ID         int64
		CategoryID *int64
		Amount     Money
		Year       int
		Month      int
	}

	Goal struct {
		ID       int64
		Title    string
		Achieved bool
		Archived bool
	}

	// Habit completions hold ISO YYYY-MM-DD date keys, one per completed day.
	Habit struct {
		ID          int64
		Name        string
		Completions []string
	}

	// Event dates are YYYY-MM-DD strings; lexical ordering matches
	// chronological ordering and is relied upon.
	Event struct {
		ID    int64
		Title string
		Date  string
	}
)

var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingStartDate = errors.New("missing start date")
	ErrEndBeforeStart   = errors.New("end date before start date")
	ErrNotFound         = errors.New("not found")
)

// DateKey formats a time as the ISO date key used for habit completions
// and event dates.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Quarterly, Yearly:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return errors.New("missing transaction date")
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (d RecurringDefinition) Validate() error {
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if d.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate) {
		return ErrEndBeforeStart
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if len(d.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}
