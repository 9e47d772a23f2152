package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	repo store.UserRepository
	log  *slog.Logger
}

func NewService(repo store.UserRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "identity")),
	}
}

type LoginInput struct {
	Name     string
	Nickname string
	Email    string
	// CompanyName wins over Company when both are set.
	Company     string
	CompanyName string
	Avatar      string
	Bookmarks   []string
}

// Login creates the profile on first sight. A returning user keeps the
// stored nickname, company, avatar, bookmarks and bookings unless the
// input sets them.
func (s *Service) Login(ctx context.Context, in LoginInput) (domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.User{}, validationError("name is required")
	}
	email := strings.TrimSpace(in.Email)
	id := domain.UserID(name, email)

	u, err := s.repo.GetUser(ctx, id)
	created := errors.Is(err, store.ErrNotFound)
	if err != nil && !created {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if created {
		u = domain.User{
			ID:        id,
			Nickname:  name,
			Bookmarks: slices.Clone(domain.DefaultBookmarks),
		}
	}

	u.Name = name
	if email != "" {
		u.Email = email
	}
	if nickname := strings.TrimSpace(in.Nickname); nickname != "" {
		u.Nickname = nickname
	}
	company := strings.TrimSpace(in.CompanyName)
	if company == "" {
		company = strings.TrimSpace(in.Company)
	}
	if company != "" {
		u.Company = company
	}
	if avatar := strings.TrimSpace(in.Avatar); avatar != "" {
		u.Avatar = avatar
	}
	if len(in.Bookmarks) > 0 {
		u.Bookmarks = slices.Clone(in.Bookmarks)
	}

	u, err = s.repo.SaveUser(ctx, u)
	if err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}

	s.log.Info("user logged in", slog.String("user_id", u.ID), slog.Bool("created", created), slog.Int("bookings", len(u.Bookings)))
	return u, nil
}

func (s *Service) User(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, validationError("user_id is required")
	}
	return s.repo.GetUser(ctx, userID)
}

// ProfileUpdate carries the editable fields. Nil leaves a field as is.
type ProfileUpdate struct {
	Nickname *string
	Email    *string
	Company  *string
	Avatar   *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	u, err := s.User(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if upd.Nickname != nil {
		nickname := strings.TrimSpace(*upd.Nickname)
		if nickname == "" {
			return domain.User{}, validationError("nickname must not be empty")
		}
		u.Nickname = nickname
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Company != nil {
		u.Company = strings.TrimSpace(*upd.Company)
	}
	if upd.Avatar != nil {
		u.Avatar = strings.TrimSpace(*upd.Avatar)
	}
	return s.repo.SaveUser(ctx, u)
}

func (s *Service) ToggleBookmark(ctx context.Context, userID, slug string) (domain.User, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.User{}, validationError("slug is required")
	}
	u, err := s.User(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	u.ToggleBookmark(slug)
	return s.repo.SaveUser(ctx, u)
}

func (s *Service) AddBooking(ctx context.Context, userID string, rec domain.BookingRecord) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	if err := rec.Validate(); err != nil {
		return validationError(err.Error())
	}
	if err := s.repo.AddBooking(ctx, userID, rec); err != nil {
		return err
	}
	s.log.Info(
		"booking stored",
		slog.String("user_id", userID),
		slog.String("booking_id", rec.ID),
		slog.String("slot", string(rec.Slot)),
		slog.Time("date", rec.Date),
	)
	return nil
}

func (s *Service) Bookings(ctx context.Context, userID string) ([]domain.BookingRecord, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}
	return s.repo.ListBookings(ctx, userID)
}

// SetBookingStatus moves a confirmed booking to completed or cancelled.
func (s *Service) SetBookingStatus(ctx context.Context, userID, bookingID string, next domain.BookingStatus) (domain.BookingRecord, error) {
	if userID == "" {
		return domain.BookingRecord{}, validationError("user_id is required")
	}
	if bookingID == "" {
		return domain.BookingRecord{}, validationError("booking_id is required")
	}
	if !next.Valid() {
		return domain.BookingRecord{}, validationError("invalid booking status")
	}

	bookings, err := s.repo.ListBookings(ctx, userID)
	if err != nil {
		return domain.BookingRecord{}, err
	}
	i := slices.IndexFunc(bookings, func(b domain.BookingRecord) bool { return b.ID == bookingID })
	if i < 0 {
		return domain.BookingRecord{}, store.ErrNotFound
	}
	if cur := bookings[i].Status; !cur.CanTransitionTo(next) {
		return domain.BookingRecord{}, validationError(fmt.Sprintf("cannot move booking from %s to %s", cur, next))
	}

	rec, err := s.repo.UpdateBookingStatus(ctx, userID, bookingID, next)
	if err != nil {
		return domain.BookingRecord{}, err
	}
	s.log.Info("booking status changed", slog.String("user_id", userID), slog.String("booking_id", bookingID), slog.String("status", string(next)))
	return rec, nil
}

// Sink binds the service to one user so a booking flow can hand over
// confirmed records.
func (s *Service) Sink(userID string) *UserSink {
	return &UserSink{svc: s, userID: userID}
}

type UserSink struct {
	svc    *Service
	userID string
}

func (k *UserSink) AddBooking(ctx context.Context, rec domain.BookingRecord) error {
	return k.svc.AddBooking(ctx, k.userID, rec)
}

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
