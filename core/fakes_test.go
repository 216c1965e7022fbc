package core

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// memCredentialRepo is an in-memory CredentialRepository with the same uniqueness rules
// as the users/workers tables.
type memCredentialRepo struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]UserRecord
	workers map[int64]WorkerRecord
	failErr error
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{users: map[int64]UserRecord{}, workers: map[int64]WorkerRecord{}}
}

func (r *memCredentialRepo) CreateUser(ctx context.Context, u UserRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return 0, storageError("insert user", r.failErr)
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return 0, newError(KindDuplicateEmail, "email already exists")
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u.ID, nil
}

func (r *memCredentialRepo) CreateWorker(ctx context.Context, w WorkerRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return 0, storageError("insert worker", r.failErr)
	}
	for _, existing := range r.workers {
		if existing.Email == w.Email {
			return 0, newError(KindDuplicateEmail, "email already exists")
		}
	}
	r.nextID++
	w.ID = r.nextID
	r.workers[w.ID] = w
	return w.ID, nil
}

func (r *memCredentialRepo) FindUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memCredentialRepo) FindWorkerByEmail(ctx context.Context, email string) (*WorkerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workers {
		if w.Email == email {
			w := w
			return &w, nil
		}
	}
	return nil, nil
}

func (r *memCredentialRepo) UserByID(ctx context.Context, id int64) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, newError(KindNotFound, "user not found")
	}
	return &u, nil
}

func (r *memCredentialRepo) WorkerByID(ctx context.Context, id int64) (*WorkerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return nil, newError(KindNotFound, "worker not found")
	}
	return &w, nil
}

func (r *memCredentialRepo) ListWorkers(ctx context.Context) ([]WorkerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WorkerRecord, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// memBookingRepo is an in-memory BookingRepository. Its conditional update holds the
// lock across check and write, like the single UPDATE statement does in Postgres.
type memBookingRepo struct {
	mu       sync.Mutex
	creds    *memCredentialRepo
	nextID   int64
	bookings map[int64]Booking
}

func newMemBookingRepo(creds *memCredentialRepo) *memBookingRepo {
	return &memBookingRepo{creds: creds, bookings: map[int64]Booking{}}
}

func (r *memBookingRepo) Create(ctx context.Context, userID, workerID int64, date, clock string) (*Booking, error) {
	if _, err := r.creds.WorkerByID(ctx, workerID); err != nil {
		return nil, err
	}
	if _, err := r.creds.UserByID(ctx, userID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b := Booking{ID: r.nextID, UserID: userID, WorkerID: workerID, Date: date, Time: clock, Status: StatusPending}
	r.bookings[b.ID] = b
	return &b, nil
}

func (r *memBookingRepo) Get(ctx context.Context, id int64) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, newError(KindNotFound, "booking not found")
	}
	return &b, nil
}

func (r *memBookingRepo) UpdateStatusIfPending(ctx context.Context, id, workerID int64, to BookingStatus) (*Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.WorkerID != workerID || b.Status != StatusPending {
		return nil, false, nil
	}
	b.Status = to
	r.bookings[id] = b
	return &b, true, nil
}

func (r *memBookingRepo) ListForUser(ctx context.Context, userID int64) ([]UserBooking, error) {
	r.mu.Lock()
	var items []UserBooking
	for _, b := range r.bookings {
		if b.UserID == userID {
			items = append(items, UserBooking{Booking: b})
		}
	}
	r.mu.Unlock()
	for i := range items {
		w, err := r.creds.WorkerByID(ctx, items[i].WorkerID)
		if err != nil {
			return nil, err
		}
		items[i].WorkerName = w.Name
		items[i].Profession = w.Profession
	}
	sort.Slice(items, func(i, j int) bool { return newerFirst(items[i].Booking, items[j].Booking) })
	return items, nil
}

func (r *memBookingRepo) ListForWorker(ctx context.Context, workerID int64) ([]WorkerBooking, error) {
	r.mu.Lock()
	var items []WorkerBooking
	for _, b := range r.bookings {
		if b.WorkerID == workerID {
			items = append(items, WorkerBooking{Booking: b})
		}
	}
	r.mu.Unlock()
	for i := range items {
		u, err := r.creds.UserByID(ctx, items[i].UserID)
		if err != nil {
			return nil, err
		}
		items[i].UserName = u.Name
		items[i].UserAddress = u.Address
	}
	sort.Slice(items, func(i, j int) bool { return newerFirst(items[i].Booking, items[j].Booking) })
	return items, nil
}

func (r *memBookingRepo) status(id int64) BookingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id].Status
}

func newerFirst(a, b Booking) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	if a.Time != b.Time {
		return a.Time > b.Time
	}
	return a.ID > b.ID
}

// testEnv wires the core components over in-memory repositories and miniredis.
type testEnv struct {
	mr       *miniredis.Miniredis
	redis    *redis.Client
	creds    *memCredentialRepo
	bookings *memBookingRepo
	store    *RedisSessionStore
	svc      Services
	log      *logrus.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := NewLogger(io.Discard, "error")
	credRepo := newMemCredentialRepo()
	bookingRepo := newMemBookingRepo(credRepo)
	creds := NewCredentialService(credRepo, NewBcryptHasher(bcrypt.MinCost))
	store := NewRedisSessionStore(client, time.Hour)
	ledger := NewBookingLedger(bookingRepo, log)

	return &testEnv{
		mr:       mr,
		redis:    client,
		creds:    credRepo,
		bookings: bookingRepo,
		store:    store,
		log:      log,
		svc: Services{
			Credentials: creds,
			Auth:        NewSessionAuthority(creds, store, log),
			Ledger:      ledger,
			Views:       NewViewAssembler(credRepo, ledger),
			Status:      NewStatusCollector(nil, client, store, time.Now()),
		},
	}
}

func (e *testEnv) mustRegisterUser(t *testing.T, name, email, password string) int64 {
	t.Helper()
	id, err := e.svc.Credentials.RegisterUser(context.Background(), UserSignup{
		Name: name, Email: email, Password: password, Address: name + " street 1",
	})
	if err != nil {
		t.Fatalf("register user %s: %v", email, err)
	}
	return id
}

func (e *testEnv) mustRegisterWorker(t *testing.T, name, email, password string) int64 {
	t.Helper()
	id, err := e.svc.Credentials.RegisterWorker(context.Background(), WorkerSignup{
		Name: name, Email: email, Password: password, Profession: "Plumber", HourlyCharge: "25", City: "Pune",
	})
	if err != nil {
		t.Fatalf("register worker %s: %v", email, err)
	}
	return id
}

func (e *testEnv) mustLogin(t *testing.T, email, password string) *Session {
	t.Helper()
	sess, err := e.svc.Auth.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return sess
}
