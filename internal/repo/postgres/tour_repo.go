package postgres

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/query"
)

var (
	tourQueryCols = Columns{
		"name":            {Name: "name"},
		"duration":        {Name: "duration", Kind: kindNumeric},
		"maxGroupSize":    {Name: "max_group_size", Kind: kindNumeric},
		"difficulty":      {Name: "difficulty"},
		"price":           {Name: "price", Kind: kindNumeric},
		"ratingsAverage":  {Name: "ratings_average", Kind: kindNumeric},
		"ratingsQuantity": {Name: "ratings_quantity", Kind: kindNumeric},
		"createdAt":       {Name: "created_at", Kind: kindTime},
	}
	tourPatchCols = Columns{
		"name":          {Name: "name"},
		"duration":      {Name: "duration"},
		"maxGroupSize":  {Name: "max_group_size"},
		"difficulty":    {Name: "difficulty"},
		"price":         {Name: "price"},
		"priceDiscount": {Name: "price_discount"},
		"summary":       {Name: "summary"},
		"description":   {Name: "description"},
		"imageCover":    {Name: "image_cover"},
	}
)

const tourCols = `id, name, slug, duration, max_group_size, difficulty, price,
price_discount, summary, description, image_cover, ratings_average, ratings_quantity,
created_at, updated_at`

type TourRepo struct{ pool *pgxpool.Pool }

func NewTourRepo(pool *pgxpool.Pool) *TourRepo { return &TourRepo{pool: pool} }

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var t domain.Tour
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &t.Difficulty, &t.Price,
		&t.PriceDiscount, &t.Summary, &t.Description, &t.ImageCover,
		&t.RatingsAverage, &t.RatingsQuantity, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (r *TourRepo) Create(ctx context.Context, in *domain.Tour) (*domain.Tour, error) {
	const q = `INSERT INTO tours (name, slug, duration, max_group_size, difficulty, price,
price_discount, summary, description, image_cover)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + tourCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanTour(r.pool.QueryRow(ctx, q,
		in.Name, slugify(in.Name), in.Duration, in.MaxGroupSize, in.Difficulty, in.Price,
		in.PriceDiscount, in.Summary, in.Description, in.ImageCover,
	))
}

func (r *TourRepo) FindByID(ctx context.Context, id int64) (*domain.Tour, error) {
	const q = `SELECT ` + tourCols + ` FROM tours WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanTour(r.pool.QueryRow(ctx, q, id))
}

// FindByIDWithReviews populates the tour's reviews, reviewer names
// included. One extra query, no join gymnastics.
func (r *TourRepo) FindByIDWithReviews(ctx context.Context, id int64) (*domain.Tour, error) {
	t, err := r.FindByID(ctx, id)
	if err != nil || t == nil {
		return t, err
	}

	const q = `SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, u.name, r.created_at, r.updated_at
FROM reviews r JOIN users u ON u.id = r.user_id
WHERE r.tour_id = $1
ORDER BY r.created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.UserName,
			&rv.CreatedAt, &rv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.Reviews = append(t.Reviews, rv)
	}
	return t, rows.Err()
}

func (r *TourRepo) FindMany(ctx context.Context, spec query.Spec) ([]domain.Tour, error) {
	sql, args := renderSpec(`SELECT `+tourCols+` FROM tours`, tourQueryCols, spec)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tours := make([]domain.Tour, 0, spec.Limit)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

func (r *TourRepo) Update(ctx context.Context, id int64, patch map[string]any) (*domain.Tour, error) {
	set, args, ok := renderPatch(patch, tourPatchCols)
	if !ok {
		return r.FindByID(ctx, id)
	}
	args = append(args, id)
	sql := `UPDATE tours SET ` + set + ` WHERE id = $` + itoa(len(args)) + ` RETURNING ` + tourCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanTour(r.pool.QueryRow(ctx, sql, args...))
}

func (r *TourRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM tours WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Stats aggregates tours per difficulty for tours rated 4.5 and up.
func (r *TourRepo) Stats(ctx context.Context) ([]domain.TourStats, error) {
	const q = `SELECT difficulty, count(*), coalesce(sum(ratings_quantity), 0),
coalesce(avg(ratings_average), 0), coalesce(avg(price), 0),
coalesce(min(price), 0), coalesce(max(price), 0)
FROM tours
WHERE ratings_average >= 4.5
GROUP BY difficulty
ORDER BY avg(price)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.TourStats
	for rows.Next() {
		var s domain.TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings,
			&s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
