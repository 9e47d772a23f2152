package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a stored booking may move to next.
// Completed and cancelled bookings are final.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return s == BookingStatusConfirmed && (next == BookingStatusCompleted || next == BookingStatusCancelled)
}

// BookingRecord is created once per confirmed consultation. Only Status
// changes afterwards.
type BookingRecord struct {
	bun.BaseModel `bun:"table:bookings" json:"-"`

	ID        string        `bun:"id,pk" json:"id"`
	UserID    string        `bun:"user_id,notnull" json:"userId,omitempty"`
	Date      time.Time     `bun:"date,notnull" json:"date"`
	Slot      TimeSlot      `bun:"slot,notnull" json:"slot"`
	Status    BookingStatus `bun:"status,notnull" json:"status"`
	CreatedAt time.Time     `bun:"created_at,notnull" json:"createdAt"`
}

func NewBookingID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (b BookingRecord) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("booking id is required")
	}
	if strings.TrimSpace(string(b.Slot)) == "" {
		return errors.New("booking slot is required")
	}
	if !b.Status.Valid() {
		return errors.New("invalid booking status")
	}
	if b.Date.IsZero() {
		return errors.New("booking date is required")
	}
	if b.CreatedAt.IsZero() {
		return errors.New("booking created_at is required")
	}
	return nil
}

func (b *BookingRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if b.ID == "" {
		id, err := NewBookingID()
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}
