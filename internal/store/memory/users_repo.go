package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/store"
)

// UserRepo keeps users in process memory. It backs local runs and tests.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]domain.User)}
}

func (r *UserRepo) GetUser(ctx context.Context, userID string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.users[user.ID]
	if ok {
		user.CreatedAt = existing.CreatedAt
		user.Bookings = existing.Bookings
	} else {
		user.CreatedAt = now
		user.Bookings = nil
	}
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *UserRepo) AddBooking(ctx context.Context, userID string, rec domain.BookingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if slices.ContainsFunc(u.Bookings, func(b domain.BookingRecord) bool { return b.ID == rec.ID }) {
		return store.ErrConflict
	}
	rec.UserID = userID
	u.Bookings = slices.Clone(u.Bookings)
	u.PrependBooking(rec)
	r.users[userID] = u
	return nil
}

func (r *UserRepo) ListBookings(ctx context.Context, userID string) ([]domain.BookingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(u.Bookings), nil
}

func (r *UserRepo) UpdateBookingStatus(ctx context.Context, userID, bookingID string, status domain.BookingStatus) (domain.BookingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.BookingRecord{}, store.ErrNotFound
	}
	i := slices.IndexFunc(u.Bookings, func(b domain.BookingRecord) bool { return b.ID == bookingID })
	if i < 0 {
		return domain.BookingRecord{}, store.ErrNotFound
	}
	u.Bookings = slices.Clone(u.Bookings)
	u.Bookings[i].Status = status
	r.users[userID] = u
	return u.Bookings[i], nil
}

func cloneUser(u domain.User) domain.User {
	u.Bookmarks = slices.Clone(u.Bookmarks)
	u.Bookings = slices.Clone(u.Bookings)
	return u
}
