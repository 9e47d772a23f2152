package store

import (
	"context"

	"lumina/backend/internal/domain"
)

// UserRepository persists profiles and their bookings. Bookings are
// returned most recent first.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	SaveUser(ctx context.Context, user domain.User) (domain.User, error)

	AddBooking(ctx context.Context, userID string, rec domain.BookingRecord) error
	ListBookings(ctx context.Context, userID string) ([]domain.BookingRecord, error)
	UpdateBookingStatus(ctx context.Context, userID, bookingID string, status domain.BookingStatus) (domain.BookingRecord, error)
}
