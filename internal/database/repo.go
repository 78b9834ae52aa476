package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"portfolio-tracker/internal/models"
)

var (
	ErrNotFound        = errors.New("position not found")
	ErrDuplicateTicker = errors.New("ticker already exists")
)

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

const _columns = `id, stock_name, ticker, quantity, buy_price, current_price, percentage_change`

func (r *Repo) Create(ctx context.Context, p *models.Position) error {
	q := `INSERT INTO stocks (stock_name, ticker, quantity, buy_price, current_price, percentage_change)
	      VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric) RETURNING id`
	err := r.db.QueryRowContext(ctx, q,
		p.Name, p.Ticker, p.Quantity, p.BuyPrice.String(), p.CurrentPrice, p.PercentChange.String()).Scan(&p.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicateTicker
	}
	return err
}

func (r *Repo) GetByID(ctx context.Context, id int64) (models.Position, error) {
	var p models.Position
	err := r.db.GetContext(ctx, &p, `SELECT `+_columns+` FROM stocks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Position{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) GetAll(ctx context.Context) ([]models.Position, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT `+_columns+` FROM stocks ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.StructScan(&p); err != nil {
			r.log.Warnf("scan position failed: %v", err)
			continue
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// Update replaces the row wholesale.
func (r *Repo) Update(ctx context.Context, p *models.Position) error {
	q := `UPDATE stocks SET stock_name = $1, ticker = $2, quantity = $3, buy_price = $4::numeric,
	      current_price = $5::numeric, percentage_change = $6::numeric WHERE id = $7`
	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Ticker, p.Quantity, p.BuyPrice.String(), p.CurrentPrice, p.PercentChange.String(), p.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicateTicker
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stocks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveAll persists the price fields of a batch in one transaction. Used by
// the daily refresher; rows deleted since the batch was loaded are skipped.
func (r *Repo) SaveAll(ctx context.Context, positions []models.Position) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `UPDATE stocks SET current_price = $1::numeric, percentage_change = $2::numeric WHERE id = $3`
	for _, p := range positions {
		if _, err := tx.ExecContext(ctx, q, p.CurrentPrice, p.PercentChange.String(), p.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
