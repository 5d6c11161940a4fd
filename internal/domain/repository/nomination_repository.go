package repository

import (
	"context"
	"database/sql"
	"errors"

	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/ledger"
	"nomination_ledger/internal/platform/database"

	"github.com/google/uuid"
)

const detailColumns = `n.id, n.judge_id, n.category_id, n.project_code, n.created_at,
	j.username, j.display_name, c.name, c.grade
	FROM nominations n
	JOIN judges j ON j.id = n.judge_id
	JOIN categories c ON c.id = n.category_id`

// NominationRepository is the SQL ledger.Store. The schema's unique
// constraint and nomination_limit trigger are what make it authoritative.
type NominationRepository struct {
	db         *sql.DB
	dialect    database.Driver
	categories CategoryRepository
}

var _ ledger.Store = (*NominationRepository)(nil)

func NewNominationRepository(db *sql.DB, dialect database.Driver) *NominationRepository {
	return &NominationRepository{
		db:         db,
		dialect:    dialect,
		categories: NewCategoryRepository(db),
	}
}

func (r *NominationRepository) GetCategory(ctx context.Context, id int) (model.Category, error) {
	return r.categories.Get(ctx, id)
}

func (r *NominationRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	return r.categories.List(ctx)
}

func (r *NominationRepository) InsertNomination(ctx context.Context, n model.Nomination) error {
	if !validID(n.JudgeID) {
		return errUnknownReference
	}
	query := `INSERT INTO nominations (id, judge_id, category_id, project_code, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.JudgeID, n.CategoryID, n.ProjectCode, n.CreatedAt.UTC())
	if err != nil {
		return classifyNominationError(r.dialect, "NominationRepository.InsertNomination", err)
	}
	return nil
}

func (r *NominationRepository) DeleteNomination(ctx context.Context, judgeID, nominationID string) (model.Nomination, error) {
	if !validID(judgeID) || !validID(nominationID) {
		return model.Nomination{}, ledger.ErrNotFound
	}
	query := `DELETE FROM nominations WHERE id = $1 AND judge_id = $2
	          RETURNING id, judge_id, category_id, project_code, created_at`
	return r.deleteReturning(ctx, "NominationRepository.DeleteNomination", query, nominationID, judgeID)
}

func (r *NominationRepository) DeleteProject(ctx context.Context, judgeID string, categoryID int, projectCode string) (model.Nomination, error) {
	if !validID(judgeID) {
		return model.Nomination{}, ledger.ErrNotFound
	}
	query := `DELETE FROM nominations WHERE judge_id = $1 AND category_id = $2 AND project_code = $3
	          RETURNING id, judge_id, category_id, project_code, created_at`
	return r.deleteReturning(ctx, "NominationRepository.DeleteProject", query, judgeID, categoryID, projectCode)
}

func (r *NominationRepository) deleteReturning(ctx context.Context, op, query string, args ...any) (model.Nomination, error) {
	var n model.Nomination
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&n.ID, &n.JudgeID, &n.CategoryID, &n.ProjectCode, at(&n.CreatedAt),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Nomination{}, ledger.ErrNotFound
		}
		return model.Nomination{}, ledger.Transport(op, err)
	}
	return n, nil
}

func (r *NominationRepository) CountInCategory(ctx context.Context, judgeID string, categoryID int) (int, error) {
	if !validID(judgeID) {
		return 0, nil
	}
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM nominations WHERE judge_id = $1 AND category_id = $2`,
		judgeID, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, ledger.Transport("NominationRepository.CountInCategory", err)
	}
	return count, nil
}

func (r *NominationRepository) HasNominated(ctx context.Context, judgeID string, categoryID int, projectCode string) (bool, error) {
	if !validID(judgeID) {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM nominations WHERE judge_id = $1 AND category_id = $2 AND project_code = $3)`,
		judgeID, categoryID, projectCode,
	).Scan(&exists)
	if err != nil {
		return false, ledger.Transport("NominationRepository.HasNominated", err)
	}
	return exists, nil
}

func (r *NominationRepository) ListByJudge(ctx context.Context, judgeID string) ([]model.NominationDetail, error) {
	if !validID(judgeID) {
		return []model.NominationDetail{}, nil
	}
	return r.queryDetails(ctx, "NominationRepository.ListByJudge",
		`SELECT `+detailColumns+` WHERE n.judge_id = $1 ORDER BY n.created_at DESC, n.seq DESC`,
		judgeID,
	)
}

// ListRecent returns the newest nominations across all judges.
func (r *NominationRepository) ListRecent(ctx context.Context, limit int) ([]model.NominationDetail, error) {
	if limit <= 0 {
		return []model.NominationDetail{}, nil
	}
	return r.queryDetails(ctx, "NominationRepository.ListRecent",
		`SELECT `+detailColumns+` ORDER BY n.created_at DESC, n.seq DESC LIMIT $1`,
		limit,
	)
}

// ListAll returns every nomination, oldest first.
func (r *NominationRepository) ListAll(ctx context.Context) ([]model.NominationDetail, error) {
	return r.queryDetails(ctx, "NominationRepository.ListAll",
		`SELECT `+detailColumns+` ORDER BY n.created_at ASC, n.seq ASC`,
	)
}

func (r *NominationRepository) queryDetails(ctx context.Context, op, query string, args ...any) ([]model.NominationDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ledger.Transport(op, err)
	}
	defer rows.Close()

	details := []model.NominationDetail{}
	for rows.Next() {
		var d model.NominationDetail
		if err := rows.Scan(
			&d.ID, &d.JudgeID, &d.CategoryID, &d.ProjectCode, at(&d.CreatedAt),
			&d.JudgeUsername, &d.JudgeName, &d.CategoryName, &d.Grade,
		); err != nil {
			return nil, ledger.Transport(op, err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Transport(op, err)
	}
	return details, nil
}

// validID guards the uuid columns; PostgreSQL rejects malformed text there.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
