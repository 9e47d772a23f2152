package domain

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultBookmarks are seeded for a user who logs in without any.
var DefaultBookmarks = []string{"aurora-growth", "new-product-decision", "content-production"}

type User struct {
	bun.BaseModel `bun:"table:users" json:"-"`

	ID        string          `bun:"id,pk" json:"id"`
	Name      string          `bun:"name,notnull" json:"name"`
	Nickname  string          `bun:"nickname,notnull" json:"nickname"`
	Email     string          `bun:"email" json:"email,omitempty"`
	Company   string          `bun:"company" json:"company,omitempty"`
	Avatar    string          `bun:"avatar" json:"avatar,omitempty"`
	Bookmarks []string        `bun:"bookmarks,array,notnull" json:"bookmarks"`
	Bookings  []BookingRecord `bun:"rel:has-many,join:id=user_id" json:"bookings"`
	CreatedAt time.Time       `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time       `bun:"updated_at,notnull" json:"updatedAt"`
}

// UserID derives a stable id from the account's email, or its name when no
// email was given.
func UserID(name, email string) string {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(name))
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("lumina:user:"+key)).String()
}

// ToggleBookmark adds slug if absent and removes it otherwise.
func (u *User) ToggleBookmark(slug string) {
	if i := slices.Index(u.Bookmarks, slug); i >= 0 {
		u.Bookmarks = slices.Delete(slices.Clone(u.Bookmarks), i, i+1)
		return
	}
	u.Bookmarks = append(slices.Clone(u.Bookmarks), slug)
}

// PrependBooking keeps bookings most recent first.
func (u *User) PrependBooking(b BookingRecord) {
	u.Bookings = append([]BookingRecord{b}, u.Bookings...)
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		if u.UpdatedAt.IsZero() {
			u.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		u.UpdatedAt = now
	}
	return nil
}
