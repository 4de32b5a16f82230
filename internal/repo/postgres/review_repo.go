package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/query"
)

var (
	reviewQueryCols = Columns{
		"rating":    {Name: "r.rating", Kind: kindNumeric},
		"tour":      {Name: "r.tour_id", Kind: kindNumeric},
		"user":      {Name: "r.user_id", Kind: kindNumeric},
		"createdAt": {Name: "r.created_at", Kind: kindTime},
	}
	reviewPatchCols = Columns{
		"review": {Name: "review"},
		"rating": {Name: "rating"},
	}
)

const reviewSelect = `SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, u.name,
r.created_at, r.updated_at
FROM reviews r JOIN users u ON u.id = r.user_id`

type ReviewRepo struct{ pool *pgxpool.Pool }

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo { return &ReviewRepo{pool: pool} }

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.UserName,
		&rv.CreatedAt, &rv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepo) Create(ctx context.Context, in *domain.Review) (*domain.Review, error) {
	const q = `INSERT INTO reviews (review, rating, tour_id, user_id)
VALUES ($1,$2,$3,$4) RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	if err := r.pool.QueryRow(ctx, q, in.Review, in.Rating, in.TourID, in.UserID).Scan(&id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *ReviewRepo) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	const q = reviewSelect + ` WHERE r.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReview(r.pool.QueryRow(ctx, q, id))
}

func (r *ReviewRepo) FindMany(ctx context.Context, spec query.Spec) ([]domain.Review, error) {
	sql, args := renderSpec(reviewSelect, reviewQueryCols, spec)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0, spec.Limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepo) Update(ctx context.Context, id int64, patch map[string]any) (*domain.Review, error) {
	set, args, ok := renderPatch(patch, reviewPatchCols)
	if !ok {
		return r.FindByID(ctx, id)
	}
	args = append(args, id)
	sql := `UPDATE reviews SET ` + set + ` WHERE id = $` + itoa(len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM reviews WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
