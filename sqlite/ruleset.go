package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/revex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ revex.RuleSetService = (*RuleSetService)(nil)

// RuleSetService implements revex.RuleSetService using SQLite.
type RuleSetService struct {
	db *DB

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewRuleSetService creates a new RuleSetService.
func NewRuleSetService(db *DB) *RuleSetService {
	return &RuleSetService{db: db, Now: time.Now}
}

// FindRuleSet retrieves the rule set cached for host.
func (s *RuleSetService) FindRuleSet(ctx context.Context, host string, maxAge time.Duration) (*revex.RuleSet, error) {
	var rs revex.RuleSet
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT title, body, rating, reviewer, container, created_at
		FROM rule_sets
		WHERE host = ?
	`, host).Scan(&rs.Title, &rs.Body, &rs.Rating, &rs.Reviewer, &rs.Container, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, revex.Errorf(revex.ENOTFOUND, "no rules cached for %s", host)
	}
	if err != nil {
		return nil, err
	}

	created, err := parseTime(createdAt, "created_at")
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && s.Now().Sub(created) > maxAge {
		return nil, revex.Errorf(revex.ENOTFOUND, "rules cached for %s have expired", host)
	}

	return &rs, nil
}

// SaveRuleSet stores rs for host, replacing any previous entry.
func (s *RuleSetService) SaveRuleSet(ctx context.Context, host string, rs *revex.RuleSet) error {
	if host == "" {
		return revex.Errorf(revex.EINVALID, "host required")
	}
	if err := rs.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_sets (host, id, title, body, rating, reviewer, container, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host) DO UPDATE SET
			id = excluded.id,
			title = excluded.title,
			body = excluded.body,
			rating = excluded.rating,
			reviewer = excluded.reviewer,
			container = excluded.container,
			created_at = excluded.created_at
	`, host, uuid.New().String(), rs.Title, rs.Body, rs.Rating, rs.Reviewer, rs.Container,
		s.Now().UTC().Format(timeLayout))

	return err
}

// DeleteRuleSet removes the rule set cached for host.
func (s *RuleSetService) DeleteRuleSet(ctx context.Context, host string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rule_sets WHERE host = ?`, host)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return revex.Errorf(revex.ENOTFOUND, "no rules cached for %s", host)
	}
	return nil
}
