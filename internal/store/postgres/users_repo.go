package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/store"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Relation("Bookings", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("created_at DESC, id DESC")
		}).
		Where("?TableAlias.id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// SaveUser upserts the profile and bookmarks. Bookings are only written
// through AddBooking.
func (r *UserRepo) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	now := time.Now().UTC()
	m := user
	m.Bookings = nil
	m.UpdatedAt = now
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.Bookmarks == nil {
		m.Bookmarks = []string{}
	}

	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("nickname = EXCLUDED.nickname").
		Set("email = EXCLUDED.email").
		Set("company = EXCLUDED.company").
		Set("avatar = EXCLUDED.avatar").
		Set("bookmarks = EXCLUDED.bookmarks").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUser(ctx, user.ID)
}

func (r *UserRepo) AddBooking(ctx context.Context, userID string, rec domain.BookingRecord) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		m := rec
		m.UserID = userID
		_, err := tx.NewInsert().Model(&m).Exec(ctx)
		return mapWriteError(err)
	})
}

func (r *UserRepo) ListBookings(ctx context.Context, userID string) ([]domain.BookingRecord, error) {
	exists, err := r.db.NewSelect().
		Model((*domain.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	var rows []domain.BookingRecord
	err = r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserRepo) UpdateBookingStatus(ctx context.Context, userID, bookingID string, status domain.BookingStatus) (domain.BookingRecord, error) {
	var rec domain.BookingRecord
	err := r.db.NewUpdate().
		Model(&rec).
		Set("status = ?", status).
		Where("user_id = ?", userID).
		Where("id = ?", bookingID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BookingRecord{}, store.ErrNotFound
		}
		return domain.BookingRecord{}, err
	}
	return rec, nil
}

// lockUser serialises booking writes for one user within the transaction.
func lockUser(ctx context.Context, tx bun.Tx, userID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", userID).Exec(ctx)
	return err
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrConflict
		case "23503":
			return store.ErrNotFound
		}
	}
	return err
}
