package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// BookingRepository defines persistence operations for bookings.
type BookingRepository interface {
	// Create inserts a Pending booking; ErrNotFound if the user or worker does not exist.
	Create(ctx context.Context, userID, workerID int64, date, clock string) (*Booking, error)
	Get(ctx context.Context, id int64) (*Booking, error)
	// UpdateStatusIfPending applies to only if the row still belongs to workerID and is Pending.
	// ok is false when the condition no longer held at write time.
	UpdateStatusIfPending(ctx context.Context, id, workerID int64, to BookingStatus) (b *Booking, ok bool, err error)
	ListForUser(ctx context.Context, userID int64) ([]UserBooking, error)
	ListForWorker(ctx context.Context, workerID int64) ([]WorkerBooking, error)
}

// PgBookingRepository implements BookingRepository on a pgx pool.
type PgBookingRepository struct {
	db DBTX
}

func NewPgBookingRepository(db DBTX) *PgBookingRepository {
	return &PgBookingRepository{db: db}
}

const bookingColumns = `id, user_id, worker_id, to_char(booking_date, 'YYYY-MM-DD'), to_char(booking_time, 'HH24:MI'), status`

// Create checks both references and inserts in one transaction. The referenced rows are
// share-locked so they cannot disappear between the check and the insert.
func (r *PgBookingRepository) Create(ctx context.Context, userID, workerID int64, date, clock string) (*Booking, error) {
	var b *Booking
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var one int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM workers WHERE id=$1 FOR SHARE`, workerID).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return newError(KindNotFound, "worker not found")
			}
			return err
		}
		if err := tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id=$1 FOR SHARE`, userID).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return newError(KindNotFound, "user not found")
			}
			return err
		}
		q := `
INSERT INTO bookings (user_id, worker_id, booking_date, booking_time, status)
VALUES ($1, $2, $3::date, $4::time, 'Pending')
RETURNING ` + bookingColumns
		var err error
		b, err = scanBooking(tx.QueryRow(ctx, q, userID, workerID, date, clock))
		return err
	})
	if err != nil {
		var domainErr *Error
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, newError(KindNotFound, "referenced account not found")
		}
		return nil, storageError("insert booking", err)
	}
	return b, nil
}

func (r *PgBookingRepository) Get(ctx context.Context, id int64) (*Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, newError(KindNotFound, "booking not found")
	}
	if err != nil {
		return nil, storageError("load booking", err)
	}
	return b, nil
}

// UpdateStatusIfPending is a single conditional UPDATE, so of two concurrent callers
// only the first to reach the row sees ok=true.
func (r *PgBookingRepository) UpdateStatusIfPending(ctx context.Context, id, workerID int64, to BookingStatus) (*Booking, bool, error) {
	q := `
UPDATE bookings SET status=$3
WHERE id=$1 AND worker_id=$2 AND status='Pending'
RETURNING ` + bookingColumns
	b, err := scanBooking(r.db.QueryRow(ctx, q, id, workerID, string(to)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError("update booking", err)
	}
	return b, true, nil
}

// ListForUser returns the user's bookings, most recent booking date first.
func (r *PgBookingRepository) ListForUser(ctx context.Context, userID int64) ([]UserBooking, error) {
	rows, err := r.db.Query(ctx, `
SELECT b.id, b.user_id, b.worker_id, to_char(b.booking_date, 'YYYY-MM-DD'), to_char(b.booking_time, 'HH24:MI'), b.status,
       w.name, w.profession
FROM bookings b
JOIN workers w ON b.worker_id = w.id
WHERE b.user_id = $1
ORDER BY b.booking_date DESC, b.booking_time DESC, b.id DESC`, userID)
	if err != nil {
		return nil, storageError("list user bookings", err)
	}
	defer rows.Close()
	var items []UserBooking
	for rows.Next() {
		var ub UserBooking
		if err := rows.Scan(&ub.ID, &ub.UserID, &ub.WorkerID, &ub.Date, &ub.Time, &ub.Status, &ub.WorkerName, &ub.Profession); err != nil {
			return nil, storageError("list user bookings", err)
		}
		items = append(items, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list user bookings", err)
	}
	return items, nil
}

// ListForWorker returns the worker's bookings, newest first.
func (r *PgBookingRepository) ListForWorker(ctx context.Context, workerID int64) ([]WorkerBooking, error) {
	rows, err := r.db.Query(ctx, `
SELECT b.id, b.user_id, b.worker_id, to_char(b.booking_date, 'YYYY-MM-DD'), to_char(b.booking_time, 'HH24:MI'), b.status,
       u.name, u.address
FROM bookings b
JOIN users u ON b.user_id = u.id
WHERE b.worker_id = $1
ORDER BY b.booking_date DESC, b.booking_time DESC, b.id DESC`, workerID)
	if err != nil {
		return nil, storageError("list worker bookings", err)
	}
	defer rows.Close()
	var items []WorkerBooking
	for rows.Next() {
		var wb WorkerBooking
		if err := rows.Scan(&wb.ID, &wb.UserID, &wb.WorkerID, &wb.Date, &wb.Time, &wb.Status, &wb.UserName, &wb.UserAddress); err != nil {
			return nil, storageError("list worker bookings", err)
		}
		items = append(items, wb)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list worker bookings", err)
	}
	return items, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.WorkerID, &b.Date, &b.Time, &b.Status); err != nil {
		return nil, err
	}
	return &b, nil
}
