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
	bookingQueryCols = Columns{
		"tour":      {Name: "tour_id", Kind: kindNumeric},
		"user":      {Name: "user_id", Kind: kindNumeric},
		"price":     {Name: "price", Kind: kindNumeric},
		"paid":      {Name: "paid", Kind: kindBool},
		"createdAt": {Name: "created_at", Kind: kindTime},
	}
	bookingPatchCols = Columns{
		"price": {Name: "price"},
		"paid":  {Name: "paid"},
	}
)

const bookingCols = `id, tour_id, user_id, price, paid, session_id, created_at, updated_at`

type BookingRepo struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo { return &BookingRepo{pool: pool} }

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var sessionID *string
	err := row.Scan(&b.ID, &b.TourID, &b.UserID, &b.Price, &b.Paid, &sessionID, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sessionID != nil {
		b.SessionID = *sessionID
	}
	return &b, nil
}

func (r *BookingRepo) Create(ctx context.Context, in *domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (tour_id, user_id, price, paid)
VALUES ($1,$2,$3,$4) RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, in.TourID, in.UserID, in.Price, in.Paid))
}

// CreateFromSession records a paid booking for a checkout session.
// session_id is unique, so a webhook retry for the same session inserts
// nothing and gets the original booking back.
func (r *BookingRepo) CreateFromSession(ctx context.Context, sessionID string, tourID, userID int64, price float64) (*domain.Booking, bool, error) {
	const q = `INSERT INTO bookings (tour_id, user_id, price, paid, session_id)
VALUES ($1,$2,$3,true,$4)
ON CONFLICT (session_id) DO NOTHING
RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, tourID, userID, price, sessionID))
	if err != nil {
		return nil, false, err
	}
	if b != nil {
		return b, true, nil
	}

	const existing = `SELECT ` + bookingCols + ` FROM bookings WHERE session_id = $1`
	b, err = scanBooking(r.pool.QueryRow(ctx, existing, sessionID))
	return b, false, err
}

func (r *BookingRepo) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, q, id))
}

func (r *BookingRepo) FindMany(ctx context.Context, spec query.Spec) ([]domain.Booking, error) {
	sql, args := renderSpec(`SELECT `+bookingCols+` FROM bookings`, bookingQueryCols, spec)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0, spec.Limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *BookingRepo) Update(ctx context.Context, id int64, patch map[string]any) (*domain.Booking, error) {
	set, args, ok := renderPatch(patch, bookingPatchCols)
	if !ok {
		return r.FindByID(ctx, id)
	}
	args = append(args, id)
	sql := `UPDATE bookings SET ` + set + ` WHERE id = $` + itoa(len(args)) + ` RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanBooking(r.pool.QueryRow(ctx, sql, args...))
}

func (r *BookingRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
