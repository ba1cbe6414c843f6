package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// RectangleSetRepo implements ports.RectangleSetRepository with pgx.
type RectangleSetRepo struct {
	db *DB
}

// NewRectangleSetRepo creates a new RectangleSetRepo.
func NewRectangleSetRepo(db *DB) *RectangleSetRepo {
	return &RectangleSetRepo{db: db}
}

// Upsert replaces a set and all its rectangles in one transaction.
func (r *RectangleSetRepo) Upsert(ctx context.Context, set *domain.RectangleSet) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO rectangle_sets (name, default_color, updated_at)
		VALUES ($1, NULLIF($2, ''), now())
		ON CONFLICT (name) DO UPDATE
		SET default_color = EXCLUDED.default_color, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, set.Name, set.DefaultColor).Scan(&set.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert set %s: %w", set.Name, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM rectangles WHERE set_name = $1`, set.Name); err != nil {
		return fmt.Errorf("clear rectangles: %w", err)
	}

	if len(set.Rectangles) > 0 {
		batch := &pgx.Batch{}
		for i, rect := range set.Rectangles {
			batch.Queue(`
				INSERT INTO rectangles (set_name, ord, rect_id, lat0, lng0, lat1, lng1, color, center)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
			`, set.Name, i, rect.ID, rect.Data[0], rect.Data[1], rect.Data[2], rect.Data[3], rect.Color, centerColumn(rect.Center))
		}
		br := tx.SendBatch(ctx, batch)
		for range set.Rectangles {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("batch close: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Get returns a set with its rectangles in stored order.
func (r *RectangleSetRepo) Get(ctx context.Context, name string) (*domain.RectangleSet, error) {
	set := domain.RectangleSet{Name: name}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(default_color, ''), updated_at
		FROM rectangle_sets WHERE name = $1
	`, name).Scan(&set.DefaultColor, &set.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT rect_id, lat0, lng0, lat1, lng1, COALESCE(color, ''), center
		FROM rectangles WHERE set_name = $1
		ORDER BY ord
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set.Rectangles = []domain.Rectangle{}
	for rows.Next() {
		var rect domain.Rectangle
		var center []float64
		if err := rows.Scan(&rect.ID, &rect.Data[0], &rect.Data[1], &rect.Data[2], &rect.Data[3], &rect.Color, &center); err != nil {
			return nil, err
		}
		rect.Center = centerValue(center)
		set.Rectangles = append(set.Rectangles, rect)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &set, nil
}

// List returns every stored set with its rectangle count, by name.
func (r *RectangleSetRepo) List(ctx context.Context) ([]domain.SetSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT s.name, COUNT(r.ord), s.updated_at
		FROM rectangle_sets s
		LEFT JOIN rectangles r ON r.set_name = s.name
		GROUP BY s.name, s.updated_at
		ORDER BY s.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SetSummary
	for rows.Next() {
		var s domain.SetSummary
		if err := rows.Scan(&s.Name, &s.Rectangles, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a set; its rectangles go with it.
func (r *RectangleSetRepo) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM rectangle_sets WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Intersecting returns stored rectangles whose normalized bounds intersect b.
func (r *RectangleSetRepo) Intersecting(ctx context.Context, b domain.Bounds, limit int) ([]domain.Rectangle, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT rect_id, lat0, lng0, lat1, lng1, COALESCE(r.color, s.default_color, '')
		FROM rectangles r
		JOIN rectangle_sets s ON s.name = r.set_name
		WHERE LEAST(lat0, lat1) <= $3 AND GREATEST(lat0, lat1) >= $1
		  AND LEAST(lng0, lng1) <= $4 AND GREATEST(lng0, lng1) >= $2
		ORDER BY r.set_name, r.ord
		LIMIT $5
	`, b.MinLat, b.MinLng, b.MaxLat, b.MaxLng, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Rectangle
	for rows.Next() {
		var rect domain.Rectangle
		if err := rows.Scan(&rect.ID, &rect.Data[0], &rect.Data[1], &rect.Data[2], &rect.Data[3], &rect.Color); err != nil {
			return nil, err
		}
		out = append(out, rect)
	}
	return out, rows.Err()
}

// centerColumn maps an RTC center to a nullable float8[].
func centerColumn(c *[3]float64) []float64 {
	if c == nil {
		return nil
	}
	return c[:]
}

func centerValue(v []float64) *[3]float64 {
	if len(v) != 3 {
		return nil
	}
	var c [3]float64
	copy(c[:], v)
	return &c
}
