package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	"carpool/internal/apperr"
	"carpool/internal/booking"
	"carpool/internal/provider"
	"carpool/internal/trip"
	"carpool/internal/wallet"

	"github.com/jmoiron/sqlx"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	return fn(nil)
}

// memRepo keeps payments by id and hands out copies, like rows read from a
// database.
type memRepo struct {
	mu       sync.Mutex
	nextID   int
	payments map[int]Payment
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, payments: map[int]Payment{}}
}

func (r *memRepo) put(p Payment) *Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	r.payments[p.ID] = p
	return &p
}

func (r *memRepo) Create(ctx context.Context, q sqlx.QueryerContext, p *Payment) (*Payment, error) {
	c := *p
	c.ID = 0
	c.CreatedAt = time.Now()
	return r.put(c), nil
}

func (r *memRepo) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, apperr.NotFound("payment", id)
	}
	return &p, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*Payment, error) {
	return r.GetByID(ctx, q, id)
}

func (r *memRepo) GetByTransactionID(ctx context.Context, q sqlx.QueryerContext, transactionID string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("payment", transactionID)
}

func (r *memRepo) byBooking(bookingID int) []Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Payment
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) LatestForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) (*Payment, error) {
	ps := r.byBooking(bookingID)
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[len(ps)-1], nil
}

func (r *memRepo) HeldForBookingForUpdate(ctx context.Context, q sqlx.QueryerContext, bookingID int) (*Payment, error) {
	for _, p := range r.byBooking(bookingID) {
		if p.EscrowStatus == EscrowHeld {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memRepo) HasActive(ctx context.Context, q sqlx.QueryerContext, bookingID int) (bool, error) {
	for _, p := range r.byBooking(bookingID) {
		switch p.Status {
		case StatusPending, StatusProcessing, StatusCompleted:
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) Save(ctx context.Context, q sqlx.ExecerContext, p *Payment) error {
	if _, err := r.GetByID(ctx, nil, p.ID); err != nil {
		return err
	}
	r.put(*p)
	return nil
}

func (r *memRepo) ListByBooking(ctx context.Context, bookingID int) ([]Payment, error) {
	return r.byBooking(bookingID), nil
}

type memBookings struct {
	booking.Repository
	bookings map[int]booking.Booking
}

func (r *memBookings) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*booking.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking", id)
	}
	return &b, nil
}

func (r *memBookings) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id int) (*booking.Booking, error) {
	return r.GetByID(ctx, q, id)
}

type memTrips struct {
	trip.Repository
	trips map[int]trip.Trip
}

func (r *memTrips) GetByID(ctx context.Context, q sqlx.QueryerContext, id int) (*trip.Trip, error) {
	t, ok := r.trips[id]
	if !ok {
		return nil, apperr.NotFound("trip", id)
	}
	return &t, nil
}

type credit struct {
	UserID int
	Entry  wallet.Entry
}

// memLedger records credits and rejects a reused reference.
type memLedger struct {
	credits []credit
}

func (l *memLedger) Credit(ctx context.Context, q sqlx.ExtContext, userID int, e wallet.Entry) (*wallet.Transaction, error) {
	for _, c := range l.credits {
		if c.Entry.Reference == e.Reference {
			return nil, apperr.Wrap(apperr.KindInvalidTransition, wallet.ErrDuplicateReference,
				"ledger reference %s was already applied", e.Reference)
		}
	}
	l.credits = append(l.credits, credit{UserID: userID, Entry: e})
	return &wallet.Transaction{ID: len(l.credits), Type: e.Type, Amount: e.Amount, Reference: e.Reference}, nil
}

func (l *memLedger) total(userID int) int64 {
	var sum int64
	for _, c := range l.credits {
		if c.UserID == userID {
			sum += c.Entry.Amount
		}
	}
	return sum
}

type fakeProvider struct {
	charges []provider.ChargeRequest
	err     error
}

func (p *fakeProvider) Charge(ctx context.Context, req provider.ChargeRequest) (provider.ChargeResult, error) {
	p.charges = append(p.charges, req)
	if p.err != nil {
		return provider.ChargeResult{}, p.err
	}
	return provider.ChargeResult{ExternalReference: "EXT-" + req.Reference, ProcessedAt: time.Now()}, nil
}

func (p *fakeProvider) Payout(ctx context.Context, req provider.PayoutRequest) (provider.PayoutResult, error) {
	return provider.PayoutResult{}, nil
}

type note struct {
	UserID int
	Kind   string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Notify(ctx context.Context, userID int, kind, title, message string, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{UserID: userID, Kind: kind})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notes))
	for i, x := range n.notes {
		out[i] = x.Kind
	}
	return out
}
