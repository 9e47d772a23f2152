package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/locale"
	"lumina/backend/internal/service/identity"
	"lumina/backend/internal/service/scheduler"
	"lumina/backend/internal/store"
)

type BookingServer struct {
	sessions sessionRunner
	users    userService
	lang     locale.Language
	log      *slog.Logger
}

type sessionRunner interface {
	Do(userID string, fn func(c *scheduler.Controller) error) error
	Lookup(userID string, fn func(c *scheduler.Controller) error) error
	End(userID string)
}

type userService interface {
	Login(ctx context.Context, in identity.LoginInput) (domain.User, error)
	User(ctx context.Context, userID string) (domain.User, error)
	Bookings(ctx context.Context, userID string) ([]domain.BookingRecord, error)
	SetBookingStatus(ctx context.Context, userID, bookingID string, next domain.BookingStatus) (domain.BookingRecord, error)
}

// NewBookingServer serves the booking flow. lang is used for view strings
// when a request names no language.
func NewBookingServer(sessions sessionRunner, users userService, lang locale.Language, log *slog.Logger) *BookingServer {
	if log == nil {
		log = slog.Default()
	}
	if lang == "" {
		lang = locale.English
	}
	return &BookingServer{
		sessions: sessions,
		users:    users,
		lang:     lang,
		log:      log.With(slog.String("component", "grpc.booking")),
	}
}

func (s *BookingServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "Login"))

	u, err := s.users.Login(ctx, identity.LoginInput{
		Name:        stringField(req, "name"),
		Nickname:    stringField(req, "nickname"),
		Email:       stringField(req, "email"),
		Company:     stringField(req, "company"),
		CompanyName: stringField(req, "companyName"),
		Avatar:      stringField(req, "avatar"),
		Bookmarks:   stringListField(req, "bookmarks"),
	})
	if err != nil {
		return nil, s.statusError(log, err, "login failed")
	}
	return newStruct(log, map[string]any{"user": userValue(u)})
}

func (s *BookingServer) OpenBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "OpenBooking"))

	userID, err := s.knownUser(ctx, req)
	if err != nil {
		return nil, s.statusError(log, err, "open booking failed")
	}
	lang := s.language(ctx, req)

	var view map[string]any
	_ = s.sessions.Do(userID, func(c *scheduler.Controller) error {
		c.Open()
		view = viewValue(c, lang)
		return nil
	})
	log.Debug("booking opened", slog.String("user_id", userID))
	return newStruct(log, map[string]any{"view": view})
}

func (s *BookingServer) CloseBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "CloseBooking"))

	userID, err := s.requireUser(ctx, req)
	if err != nil {
		return nil, s.statusError(log, err, "close booking failed")
	}
	s.sessions.End(userID)
	return &structpb.Struct{}, nil
}

func (s *BookingServer) GetBookingView(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "GetBookingView"))

	userID, err := s.knownUser(ctx, req)
	if err != nil {
		return nil, s.statusError(log, err, "get booking view failed")
	}
	lang := s.language(ctx, req)

	var view map[string]any
	err = s.sessions.Lookup(userID, func(c *scheduler.Controller) error {
		view = viewValue(c, lang)
		return nil
	})
	if errors.Is(err, scheduler.ErrNoSession) {
		view = closedViewValue(lang)
	} else if err != nil {
		return nil, s.statusError(log.With(slog.String("user_id", userID)), err, "get booking view failed")
	}
	return newStruct(log, map[string]any{"view": view})
}

func (s *BookingServer) NavigateMonth(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "NavigateMonth"))

	delta, ok := numberField(req, "delta")
	if !ok || delta != float64(int(delta)) {
		log.Warn("invalid request", slog.String("reason", "invalid_delta"))
		return nil, status.Error(codes.InvalidArgument, "delta must be a whole number")
	}
	return s.withController(ctx, log, req, func(c *scheduler.Controller, lang locale.Language) (map[string]any, error) {
		moved := c.NavigateMonth(int(delta))
		return map[string]any{"moved": moved, "view": viewValue(c, lang)}, nil
	})
}

func (s *BookingServer) SelectDate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "SelectDate"))

	d, err := domain.ParseCalendarDate(stringField(req, "date"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_date"), slog.Any("err", err))
		return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
	}
	return s.withController(ctx, log, req, func(c *scheduler.Controller, lang locale.Language) (map[string]any, error) {
		accepted := c.SelectDate(d)
		return map[string]any{"accepted": accepted, "view": viewValue(c, lang)}, nil
	})
}

func (s *BookingServer) SelectSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "SelectSlot"))

	slot := domain.TimeSlot(stringField(req, "slot"))
	return s.withController(ctx, log, req, func(c *scheduler.Controller, lang locale.Language) (map[string]any, error) {
		if err := c.SelectSlot(slot); err != nil {
			return nil, err
		}
		return map[string]any{"view": viewValue(c, lang)}, nil
	})
}

func (s *BookingServer) ConfirmBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "ConfirmBooking"))

	return s.withController(ctx, log, req, func(c *scheduler.Controller, lang locale.Language) (map[string]any, error) {
		rec, err := c.Confirm(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"booking": bookingValue(rec), "view": viewValue(c, lang)}, nil
	})
}

func (s *BookingServer) ListBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "ListBookings"))

	userID, err := s.requireUser(ctx, req)
	if err != nil {
		return nil, s.statusError(log, err, "list bookings failed")
	}
	rows, err := s.users.Bookings(ctx, userID)
	if err != nil {
		return nil, s.statusError(log.With(slog.String("user_id", userID)), err, "list bookings failed")
	}

	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, bookingValue(r))
	}
	log.Debug("bookings listed", slog.String("user_id", userID), slog.Int("count", len(out)))
	return newStruct(log, map[string]any{"bookings": out})
}

func (s *BookingServer) SetBookingStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "SetBookingStatus"))

	userID, err := s.requireUser(ctx, req)
	if err != nil {
		return nil, s.statusError(log, err, "set booking status failed")
	}
	bookingID := stringField(req, "bookingId")
	next := domain.BookingStatus(stringField(req, "status"))

	rec, err := s.users.SetBookingStatus(ctx, userID, bookingID, next)
	if err != nil {
		return nil, s.statusError(log.With(slog.String("user_id", userID), slog.String("booking_id", bookingID)), err, "set booking status failed")
	}
	return newStruct(log, map[string]any{"booking": bookingValue(rec)})
}

// withController runs fn on the user's open scheduler. Unknown users and
// users without an open scheduler never create one here.
func (s *BookingServer) withController(ctx context.Context, log *slog.Logger, req *structpb.Struct, fn func(c *scheduler.Controller, lang locale.Language) (map[string]any, error)) (*structpb.Struct, error) {
	userID, err := s.knownUser(ctx, req)
	if err != nil {
		return nil, s.statusError(log, err, "request failed")
	}
	log = log.With(slog.String("user_id", userID))
	lang := s.language(ctx, req)

	var out map[string]any
	err = s.sessions.Lookup(userID, func(c *scheduler.Controller) error {
		var err error
		out, err = fn(c, lang)
		return err
	})
	if err != nil {
		return nil, s.statusError(log, err, "booking action failed")
	}
	return newStruct(log, out)
}

var errMissingUser = errors.New("user_id is required")

// knownUser resolves the caller and checks the profile exists.
func (s *BookingServer) knownUser(ctx context.Context, req *structpb.Struct) (string, error) {
	userID, err := s.requireUser(ctx, req)
	if err != nil {
		return "", err
	}
	if _, err := s.users.User(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}

// language picks the view language from the request's language field,
// then the accept-language header, then the server default.
func (s *BookingServer) language(ctx context.Context, req *structpb.Struct) locale.Language {
	if lang, ok := locale.Parse(stringField(req, "language")); ok {
		return lang
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("accept-language"); len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return locale.Match(values[0])
		}
	}
	return s.lang
}

// requireUser reads userId from the request, falling back to the
// x-user-id metadata header.
func (s *BookingServer) requireUser(ctx context.Context, req *structpb.Struct) (string, error) {
	if id := stringField(req, "userId"); id != "" {
		return id, nil
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("x-user-id"); len(values) > 0 {
			if id := strings.TrimSpace(values[0]); id != "" {
				return id, nil
			}
		}
	}
	return "", errMissingUser
}

func (s *BookingServer) statusError(log *slog.Logger, err error, msg string) error {
	var (
		vErr *identity.ValidationError
		pErr *domain.PersistenceError
	)
	switch {
	case errors.Is(err, errMissingUser):
		log.Warn("invalid request", slog.String("reason", "missing_user"))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn(msg, slog.Any("err", err))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.As(err, &pErr):
		log.Error(msg, slog.Any("err", err))
		return status.Error(codes.Unavailable, "Your booking could not be saved. Please try again.")
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, domain.ErrUnknownSlot):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrIncompleteSelection):
		log.Info("booking action rejected", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found", slog.Any("err", err))
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		log.Info("write conflict", slog.Any("err", err))
		return status.Error(codes.Aborted, "The record changed while saving. Try again.")
	}
	log.Error(msg, slog.Any("err", err))
	return status.Error(codes.Internal, "internal error")
}

func newStruct(log *slog.Logger, m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		log.Error("response encode failed", slog.Any("err", err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func stringField(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

func numberField(req *structpb.Struct, key string) (float64, bool) {
	if req == nil {
		return 0, false
	}
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return n.NumberValue, true
}

func stringListField(req *structpb.Struct, key string) []string {
	if req == nil {
		return nil
	}
	list := req.GetFields()[key].GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		if s := strings.TrimSpace(v.GetStringValue()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
