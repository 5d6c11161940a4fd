package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"

	"github.com/google/uuid"
)

type JudgeRepository interface {
	// LoginOrCreate returns the judge registered under username, creating it
	// on first use and refreshing its display name on later logins.
	LoginOrCreate(ctx context.Context, username, displayName string) (*model.Judge, error)
	FindByID(ctx context.Context, id string) (*model.Judge, error)
	Count(ctx context.Context) (int, error)
}

// sqlJudgeRepository runs the same statements on PostgreSQL and SQLite.
type sqlJudgeRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewJudgeRepository(db *sql.DB) JudgeRepository {
	return &sqlJudgeRepository{db: db, now: time.Now}
}

func (r *sqlJudgeRepository) LoginOrCreate(ctx context.Context, username, displayName string) (*model.Judge, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", common.ErrValidation)
	}
	if displayName == "" {
		displayName = username
	}

	// One statement so concurrent first logins converge on a single row.
	query := `INSERT INTO judges (id, username, display_name, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (username) DO UPDATE SET
	              display_name = excluded.display_name,
	              updated_at = CASE WHEN judges.display_name = excluded.display_name
	                                THEN judges.updated_at ELSE excluded.updated_at END
	          RETURNING id, username, display_name, created_at, updated_at`

	now := r.now().UTC()
	judge := &model.Judge{}
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), username, displayName, now, now).Scan(
		&judge.ID, &judge.Username, &judge.DisplayName, at(&judge.CreatedAt), at(&judge.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlJudgeRepository.LoginOrCreate: %w: %w", common.ErrServiceUnavailable, err)
	}
	return judge, nil
}

func (r *sqlJudgeRepository) FindByID(ctx context.Context, id string) (*model.Judge, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	query := `SELECT id, username, display_name, created_at, updated_at
	          FROM judges WHERE id = $1`
	judge := &model.Judge{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&judge.ID, &judge.Username, &judge.DisplayName, at(&judge.CreatedAt), at(&judge.UpdatedAt),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlJudgeRepository.FindByID: %w: %w", common.ErrServiceUnavailable, err)
	}
	return judge, nil
}

func (r *sqlJudgeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM judges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlJudgeRepository.Count: %w: %w", common.ErrServiceUnavailable, err)
	}
	return n, nil
}
