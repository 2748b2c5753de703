package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sylni/helpbot/core/logger"
	"github.com/sylni/helpbot/internal/errs"
	"log/slog"
)

// AccessRepo implements the Identity & Access Store. Blocking is keyed
// by case id throughout; chat identities never leak to operators.
type AccessRepo struct {
	db *sqlx.DB
}

// NewAccessRepo wires an AccessRepo to the given connection pool.
func NewAccessRepo(db *sqlx.DB) *AccessRepo {
	return &AccessRepo{db: db}
}

// Block marks a case blocked. It returns false when the case was
// already blocked, and NotFoundError for an unknown case id.
func (r *AccessRepo) Block(ctx context.Context, caseID string) (bool, error) {
	blocked, err := r.lookupBlocked(ctx, caseID)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE cases SET blocked = TRUE WHERE case_id = $1`, caseID,
	); err != nil {
		return false, fmt.Errorf("block case: %w", err)
	}
	logger.Info(ctx, "store.access", "case.blocked",
		slog.String("case_id", caseID),
	)
	return true, nil
}

// Unblock clears the block flag. It returns false when the case was
// not blocked.
func (r *AccessRepo) Unblock(ctx context.Context, caseID string) (bool, error) {
	blocked, err := r.lookupBlocked(ctx, caseID)
	if err != nil {
		return false, err
	}
	if !blocked {
		return false, nil
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE cases SET blocked = FALSE WHERE case_id = $1`, caseID,
	); err != nil {
		return false, fmt.Errorf("unblock case: %w", err)
	}
	logger.Info(ctx, "store.access", "case.unblocked",
		slog.String("case_id", caseID),
	)
	return true, nil
}

// IsBlocked reports the block status of a case. Unknown case ids are
// reported as not blocked so the check never crashes a handler.
func (r *AccessRepo) IsBlocked(ctx context.Context, caseID string) (bool, error) {
	blocked, err := r.lookupBlocked(ctx, caseID)
	var nf *errs.NotFoundError
	if errors.As(err, &nf) {
		return false, nil
	}
	return blocked, err
}

// ListBlocked returns the case ids of all blocked cases, oldest first.
func (r *AccessRepo) ListBlocked(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT case_id FROM cases WHERE blocked ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list blocked: %w", err)
	}
	return ids, nil
}

func (r *AccessRepo) lookupBlocked(ctx context.Context, caseID string) (bool, error) {
	var blocked bool
	err := r.db.GetContext(ctx, &blocked,
		`SELECT blocked FROM cases WHERE case_id = $1`, caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, &errs.NotFoundError{CaseID: caseID}
	}
	if err != nil {
		return false, fmt.Errorf("lookup blocked: %w", err)
	}
	return blocked, nil
}
