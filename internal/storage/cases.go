// Package storage persists cases in Postgres. A case is one
// help-seeker's record: the anonymous case id, the chat identity it
// belongs to, the block flag, and the intake form answers.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sylni/helpbot/core/logger"
	"github.com/sylni/helpbot/internal/errs"
	"log/slog"
)

// Case mirrors one row of the cases table.
type Case struct {
	ID           int64          `db:"id"`
	CaseID       string         `db:"case_id"`
	ChatID       int64          `db:"chat_id"`
	Blocked      bool           `db:"blocked"`
	CreatedAt    time.Time      `db:"created_at"`
	Name         sql.NullString `db:"name"`
	Age          sql.NullInt64  `db:"age"`
	Location     sql.NullString `db:"location"`
	EventDetails sql.NullString `db:"event_details"`
	HelpType     sql.NullString `db:"help_type"`
	Description  sql.NullString `db:"description"`
}

// FormatCaseID derives the public case identifier from the creation
// date and the row sequence, e.g. "01/01/2025 17". Sequence numbers are
// never reused, so neither are case ids.
func FormatCaseID(createdAt time.Time, seq int64) string {
	return fmt.Sprintf("%s %d", createdAt.Format("02/01/2006"), seq)
}

// formColumns whitelists the intake fields that SetField may touch.
var formColumns = map[string]struct{}{
	"name":          {},
	"age":           {},
	"location":      {},
	"event_details": {},
	"help_type":     {},
	"description":   {},
}

// AllowedFormColumn reports whether SetField accepts the column name.
func AllowedFormColumn(name string) bool {
	_, ok := formColumns[name]
	return ok
}

// CaseRepo implements the Case Record Store over Postgres.
type CaseRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewCaseRepo wires a CaseRepo to the given connection pool.
func NewCaseRepo(db *sqlx.DB) *CaseRepo {
	return &CaseRepo{db: db, now: time.Now}
}

// ResolveOrCreate returns the case for the chat identity, creating it
// on first contact. Creation is idempotent: a second call for the same
// identity returns the existing case with created=false.
func (r *CaseRepo) ResolveOrCreate(ctx context.Context, chatID int64) (Case, bool, error) {
	createdAt := r.now()

	var id int64
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO cases (chat_id, created_at)
		 VALUES ($1, $2)
		 ON CONFLICT (chat_id) DO NOTHING
		 RETURNING id`,
		chatID, createdAt,
	).Scan(&id)

	switch {
	case err == nil:
		caseID := FormatCaseID(createdAt, id)
		if _, err := r.db.ExecContext(ctx,
			`UPDATE cases SET case_id = $1 WHERE id = $2`, caseID, id,
		); err != nil {
			return Case{}, false, fmt.Errorf("assign case id: %w", err)
		}
		logger.Info(ctx, "store.cases", "case.created",
			slog.String("case_id", caseID),
		)
		c, err := r.ByChatID(ctx, chatID)
		return c, true, err
	case errors.Is(err, sql.ErrNoRows):
		c, err := r.ByChatID(ctx, chatID)
		return c, false, err
	default:
		return Case{}, false, fmt.Errorf("create case: %w", err)
	}
}

// ByChatID loads the case bound to the chat identity.
func (r *CaseRepo) ByChatID(ctx context.Context, chatID int64) (Case, error) {
	var c Case
	err := r.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return Case{}, &errs.NotFoundError{}
	}
	if err != nil {
		return Case{}, fmt.Errorf("case by chat id: %w", err)
	}
	return c, nil
}

// ByCaseID loads the case by its public identifier.
func (r *CaseRepo) ByCaseID(ctx context.Context, caseID string) (Case, error) {
	var c Case
	err := r.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE case_id = $1`, caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return Case{}, &errs.NotFoundError{CaseID: caseID}
	}
	if err != nil {
		return Case{}, fmt.Errorf("case by case id: %w", err)
	}
	return c, nil
}

// SetField updates one intake form column of a case. Each call is a
// complete, independently committed write, so a restart never leaves a
// half-applied form.
func (r *CaseRepo) SetField(ctx context.Context, caseID, column string, value any) error {
	if !AllowedFormColumn(column) {
		return fmt.Errorf("set field: column %q not allowed", column)
	}
	res, err := r.db.ExecContext(ctx,
		// column is validated against the whitelist above
		fmt.Sprintf(`UPDATE cases SET %s = $1 WHERE case_id = $2`, column),
		value, caseID,
	)
	if err != nil {
		return fmt.Errorf("set field %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errs.NotFoundError{CaseID: caseID}
	}
	logger.Debug(ctx, "store.cases", "case.field_set",
		slog.String("case_id", caseID),
		slog.String("field", column),
	)
	return nil
}
