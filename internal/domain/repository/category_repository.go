package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/ledger"

	"github.com/gosimple/slug"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, id int) (model.Category, error)
	// Seed inserts categories that are missing. Existing rows are kept as is.
	Seed(ctx context.Context, categories []model.Category) error
}

type sqlCategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &sqlCategoryRepository{db: db}
}

func CategorySlug(c model.Category) string {
	return slug.Make(c.Name + " " + c.Grade)
}

func (r *sqlCategoryRepository) Seed(ctx context.Context, categories []model.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Transport("sqlCategoryRepository.Seed", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO categories (id, name, grade, slug)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (id) DO NOTHING`
	for _, c := range categories {
		if c.Slug == "" {
			c.Slug = CategorySlug(c)
		}
		if _, err := tx.ExecContext(ctx, query, c.ID, c.Name, c.Grade, c.Slug); err != nil {
			return ledger.Transport(fmt.Sprintf("sqlCategoryRepository.Seed(%d)", c.ID), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return ledger.Transport("sqlCategoryRepository.Seed", err)
	}
	return nil
}

func (r *sqlCategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, grade, slug FROM categories ORDER BY id`)
	if err != nil {
		return nil, ledger.Transport("sqlCategoryRepository.List", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Grade, &c.Slug); err != nil {
			return nil, ledger.Transport("sqlCategoryRepository.List", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Transport("sqlCategoryRepository.List", err)
	}
	return categories, nil
}

func (r *sqlCategoryRepository) Get(ctx context.Context, id int) (model.Category, error) {
	var c model.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, grade, slug FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Grade, &c.Slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Category{}, ledger.ErrUnknownCategory
		}
		return model.Category{}, ledger.Transport("sqlCategoryRepository.Get", err)
	}
	return c, nil
}
