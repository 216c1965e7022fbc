package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// UserRecord is a users row as stored.
type UserRecord struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Address      string
}

// WorkerRecord is a workers row as stored. HourlyCharge is the NUMERIC(10,2) text form.
type WorkerRecord struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Profession   string
	HourlyCharge string
	City         string
}

// CredentialRepository defines persistence operations for both principal relations.
// Find* methods return nil, nil when no row matches; *ByID methods return ErrNotFound.
type CredentialRepository interface {
	CreateUser(ctx context.Context, u UserRecord) (int64, error)
	CreateWorker(ctx context.Context, w WorkerRecord) (int64, error)
	FindUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindWorkerByEmail(ctx context.Context, email string) (*WorkerRecord, error)
	UserByID(ctx context.Context, id int64) (*UserRecord, error)
	WorkerByID(ctx context.Context, id int64) (*WorkerRecord, error)
	ListWorkers(ctx context.Context) ([]WorkerRecord, error)
}

// PgCredentialRepository implements CredentialRepository on a pgx pool.
type PgCredentialRepository struct {
	db DBTX
}

func NewPgCredentialRepository(db DBTX) *PgCredentialRepository {
	return &PgCredentialRepository{db: db}
}

// CreateUser inserts in its own transaction and lets the UNIQUE constraint decide
// duplicates, so two concurrent signups with one email cannot both succeed.
func (r *PgCredentialRepository) CreateUser(ctx context.Context, u UserRecord) (int64, error) {
	const q = `INSERT INTO users (name, email, password, address) VALUES ($1,$2,$3,$4) RETURNING id`
	var id int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, u.Name, u.Email, u.PasswordHash, u.Address).Scan(&id)
	})
	if err != nil {
		return 0, classifyInsertError("insert user", err)
	}
	return id, nil
}

func (r *PgCredentialRepository) CreateWorker(ctx context.Context, w WorkerRecord) (int64, error) {
	const q = `
INSERT INTO workers (name, email, password, profession, hourly_charge, city)
VALUES ($1,$2,$3,$4,$5::numeric,$6)
RETURNING id`
	var id int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, w.Name, w.Email, w.PasswordHash, w.Profession, w.HourlyCharge, w.City).Scan(&id)
	})
	if err != nil {
		return 0, classifyInsertError("insert worker", err)
	}
	return id, nil
}

func (r *PgCredentialRepository) FindUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	const q = `SELECT id, name, email, password, address FROM users WHERE email=$1`
	u, err := r.scanUser(r.db.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("find user", err)
	}
	return u, nil
}

func (r *PgCredentialRepository) FindWorkerByEmail(ctx context.Context, email string) (*WorkerRecord, error) {
	const q = `SELECT id, name, email, password, profession, hourly_charge::text, city FROM workers WHERE email=$1`
	w, err := r.scanWorker(r.db.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("find worker", err)
	}
	return w, nil
}

func (r *PgCredentialRepository) UserByID(ctx context.Context, id int64) (*UserRecord, error) {
	const q = `SELECT id, name, email, password, address FROM users WHERE id=$1`
	u, err := r.scanUser(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, newError(KindNotFound, "user not found")
	}
	if err != nil {
		return nil, storageError("load user", err)
	}
	return u, nil
}

func (r *PgCredentialRepository) WorkerByID(ctx context.Context, id int64) (*WorkerRecord, error) {
	const q = `SELECT id, name, email, password, profession, hourly_charge::text, city FROM workers WHERE id=$1`
	w, err := r.scanWorker(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, newError(KindNotFound, "worker not found")
	}
	if err != nil {
		return nil, storageError("load worker", err)
	}
	return w, nil
}

// ListWorkers returns every worker ordered by name.
func (r *PgCredentialRepository) ListWorkers(ctx context.Context) ([]WorkerRecord, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, name, email, password, profession, hourly_charge::text, city
FROM workers
ORDER BY name, id`)
	if err != nil {
		return nil, storageError("list workers", err)
	}
	defer rows.Close()
	var items []WorkerRecord
	for rows.Next() {
		w, err := r.scanWorker(rows)
		if err != nil {
			return nil, storageError("list workers", err)
		}
		items = append(items, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list workers", err)
	}
	return items, nil
}

func (r *PgCredentialRepository) scanUser(row pgx.Row) (*UserRecord, error) {
	var u UserRecord
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgCredentialRepository) scanWorker(row pgx.Row) (*WorkerRecord, error) {
	var w WorkerRecord
	if err := row.Scan(&w.ID, &w.Name, &w.Email, &w.PasswordHash, &w.Profession, &w.HourlyCharge, &w.City); err != nil {
		return nil, err
	}
	return &w, nil
}

func classifyInsertError(op string, err error) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return newError(KindDuplicateEmail, "email already exists")
	case pgNumericOutOfRange:
		return validationError("hourly_charge is too large")
	}
	return storageError(op, err)
}
