// Package redis keeps each user as one JSON document, the server-side
// counterpart of the browser's saved profile.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/store"
)

const (
	keyPrefix  = "lumina:user:"
	maxRetries = 5
)

type UserRepo struct {
	rdb goredis.UniversalClient
}

func NewUserRepo(rdb goredis.UniversalClient) *UserRepo {
	return &UserRepo{rdb: rdb}
}

func userKey(userID string) string {
	return keyPrefix + userID
}

func (r *UserRepo) GetUser(ctx context.Context, userID string) (domain.User, error) {
	u, ok, err := load(ctx, r.rdb, userKey(userID))
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	return r.update(ctx, user.ID, true, func(u *domain.User, exists bool) error {
		now := time.Now().UTC()
		bookings := u.Bookings
		createdAt := u.CreatedAt
		*u = user
		u.Bookings = bookings
		if !exists {
			u.Bookings = nil
			createdAt = now
		}
		u.CreatedAt = createdAt
		u.UpdatedAt = now
		return nil
	})
}

func (r *UserRepo) AddBooking(ctx context.Context, userID string, rec domain.BookingRecord) error {
	_, err := r.update(ctx, userID, false, func(u *domain.User, _ bool) error {
		if slices.ContainsFunc(u.Bookings, func(b domain.BookingRecord) bool { return b.ID == rec.ID }) {
			return store.ErrConflict
		}
		rec.UserID = userID
		u.PrependBooking(rec)
		return nil
	})
	return err
}

func (r *UserRepo) ListBookings(ctx context.Context, userID string) ([]domain.BookingRecord, error) {
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Bookings, nil
}

func (r *UserRepo) UpdateBookingStatus(ctx context.Context, userID, bookingID string, status domain.BookingStatus) (domain.BookingRecord, error) {
	var out domain.BookingRecord
	_, err := r.update(ctx, userID, false, func(u *domain.User, _ bool) error {
		i := slices.IndexFunc(u.Bookings, func(b domain.BookingRecord) bool { return b.ID == bookingID })
		if i < 0 {
			return store.ErrNotFound
		}
		u.Bookings[i].Status = status
		out = u.Bookings[i]
		return nil
	})
	if err != nil {
		return domain.BookingRecord{}, err
	}
	return out, nil
}

// update applies fn to the stored document under WATCH and retries when
// another writer got there first.
func (r *UserRepo) update(ctx context.Context, userID string, create bool, fn func(u *domain.User, exists bool) error) (domain.User, error) {
	key := userKey(userID)
	var out domain.User

	txf := func(tx *goredis.Tx) error {
		u, exists, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		if !exists && !create {
			return store.ErrNotFound
		}
		if err := fn(&u, exists); err != nil {
			return err
		}
		b, err := json.Marshal(u)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		if err != nil {
			return err
		}
		out = u
		return nil
	}

	for i := 0; i < maxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.User{}, err
		}
		return out, nil
	}
	return domain.User{}, store.ErrConflict
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func load(ctx context.Context, c getter, key string) (domain.User, bool, error) {
	b, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	var u domain.User
	if err := json.Unmarshal(b, &u); err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}
