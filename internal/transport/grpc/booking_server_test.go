package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/locale"
	"lumina/backend/internal/service/identity"
	"lumina/backend/internal/service/scheduler"
	"lumina/backend/internal/store"
	"lumina/backend/internal/store/memory"
)

type fakeUserService struct {
	loginFn     func(ctx context.Context, in identity.LoginInput) (domain.User, error)
	userFn      func(ctx context.Context, userID string) (domain.User, error)
	bookingsFn  func(ctx context.Context, userID string) ([]domain.BookingRecord, error)
	setStatusFn func(ctx context.Context, userID, bookingID string, next domain.BookingStatus) (domain.BookingRecord, error)
}

func (f *fakeUserService) Login(ctx context.Context, in identity.LoginInput) (domain.User, error) {
	if f.loginFn == nil {
		panic("Login not configured")
	}
	return f.loginFn(ctx, in)
}

func (f *fakeUserService) User(ctx context.Context, userID string) (domain.User, error) {
	if f.userFn == nil {
		return domain.User{ID: userID}, nil
	}
	return f.userFn(ctx, userID)
}

func (f *fakeUserService) Bookings(ctx context.Context, userID string) ([]domain.BookingRecord, error) {
	if f.bookingsFn == nil {
		panic("Bookings not configured")
	}
	return f.bookingsFn(ctx, userID)
}

func (f *fakeUserService) SetBookingStatus(ctx context.Context, userID, bookingID string, next domain.BookingStatus) (domain.BookingRecord, error) {
	if f.setStatusFn == nil {
		panic("SetBookingStatus not configured")
	}
	return f.setStatusFn(ctx, userID, bookingID, next)
}

type sinkFunc func(ctx context.Context, rec domain.BookingRecord) error

func (f sinkFunc) AddBooking(ctx context.Context, rec domain.BookingRecord) error {
	return f(ctx, rec)
}

// 2026-02-18 10:00 in UTC+8.
var testNow = time.Date(2026, 2, 18, 2, 0, 0, 0, time.UTC)

func newTestSessions(sink scheduler.BookingSink) *scheduler.Sessions {
	return scheduler.NewSessions(func(string) scheduler.BookingSink { return sink }, scheduler.Config{
		Holidays: domain.DefaultHolidays(),
		Now:      func() time.Time { return testNow },
	})
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct error: %v", err)
	}
	return s
}

func TestBookingServer_RequiresUser(t *testing.T) {
	srv := NewBookingServer(newTestSessions(sinkFunc(func(context.Context, domain.BookingRecord) error { return nil })), &fakeUserService{}, locale.English, slog.Default())

	_, err := srv.GetBookingView(context.Background(), &structpb.Struct{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-user-id", " u1 "))
	resp, err := srv.GetBookingView(ctx, &structpb.Struct{})
	if err != nil {
		t.Fatalf("GetBookingView error: %v", err)
	}
	if resp.GetFields()["view"].GetStructValue().GetFields()["isOpen"].GetBoolValue() {
		t.Fatalf("view is open before OpenBooking")
	}
}

func TestBookingServer_OpenUnknownUser(t *testing.T) {
	srv := NewBookingServer(newTestSessions(sinkFunc(func(context.Context, domain.BookingRecord) error { return nil })), &fakeUserService{
		userFn: func(ctx context.Context, userID string) (domain.User, error) {
			return domain.User{}, store.ErrNotFound
		},
	}, locale.English, slog.Default())

	_, err := srv.OpenBooking(context.Background(), mustStruct(t, map[string]any{"userId": "ghost"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.NotFound)
	}
}

func TestBookingServer_ErrorCodes(t *testing.T) {
	boom := errors.New("store down")
	srv := NewBookingServer(newTestSessions(sinkFunc(func(context.Context, domain.BookingRecord) error { return boom })), &fakeUserService{}, locale.English, slog.Default())
	ctx := context.Background()
	user := map[string]any{"userId": "u1"}

	if _, err := srv.SelectSlot(ctx, mustStruct(t, map[string]any{"userId": "u1", "slot": "10:00 - 11:00"})); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("SelectSlot while closed code = %s, want %s", status.Code(err), codes.FailedPrecondition)
	}
	if _, err := srv.OpenBooking(ctx, mustStruct(t, user)); err != nil {
		t.Fatalf("OpenBooking error: %v", err)
	}
	if _, err := srv.ConfirmBooking(ctx, mustStruct(t, user)); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("ConfirmBooking without selection code = %s, want %s", status.Code(err), codes.FailedPrecondition)
	}
	if _, err := srv.SelectDate(ctx, mustStruct(t, map[string]any{"userId": "u1", "date": "19/02/2026"})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("SelectDate bad format code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
	if _, err := srv.SelectDate(ctx, mustStruct(t, map[string]any{"userId": "u1", "date": "2026-02-19"})); err != nil {
		t.Fatalf("SelectDate error: %v", err)
	}
	if _, err := srv.SelectSlot(ctx, mustStruct(t, map[string]any{"userId": "u1", "slot": "09:00 - 10:00"})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("SelectSlot unknown code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
	if _, err := srv.SelectSlot(ctx, mustStruct(t, map[string]any{"userId": "u1", "slot": "10:00 - 11:00"})); err != nil {
		t.Fatalf("SelectSlot error: %v", err)
	}
	if _, err := srv.ConfirmBooking(ctx, mustStruct(t, user)); status.Code(err) != codes.Unavailable {
		t.Fatalf("ConfirmBooking with failing store code = %s, want %s", status.Code(err), codes.Unavailable)
	}
	if _, err := srv.NavigateMonth(ctx, mustStruct(t, map[string]any{"userId": "u1", "delta": 0.5})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("NavigateMonth fractional code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestBookingServer_SelectDateReportsIgnored(t *testing.T) {
	srv := NewBookingServer(newTestSessions(sinkFunc(func(context.Context, domain.BookingRecord) error { return nil })), &fakeUserService{}, locale.English, slog.Default())
	ctx := context.Background()

	if _, err := srv.OpenBooking(ctx, mustStruct(t, map[string]any{"userId": "u1"})); err != nil {
		t.Fatalf("OpenBooking error: %v", err)
	}
	resp, err := srv.SelectDate(ctx, mustStruct(t, map[string]any{"userId": "u1", "date": "2026-02-21"}))
	if err != nil {
		t.Fatalf("SelectDate error: %v", err)
	}
	if resp.GetFields()["accepted"].GetBoolValue() {
		t.Fatalf("saturday accepted")
	}
	view := resp.GetFields()["view"].GetStructValue().GetFields()
	if _, ok := view["selectedDate"]; ok {
		t.Fatalf("selectedDate set after ignored selection")
	}
}

func TestBookingServer_SetBookingStatusMapsValidation(t *testing.T) {
	srv := NewBookingServer(newTestSessions(sinkFunc(func(context.Context, domain.BookingRecord) error { return nil })), &fakeUserService{
		setStatusFn: func(ctx context.Context, userID, bookingID string, next domain.BookingStatus) (domain.BookingRecord, error) {
			return domain.BookingRecord{}, &identity.ValidationError{}
		},
	}, locale.English, slog.Default())

	_, err := srv.SetBookingStatus(context.Background(), mustStruct(t, map[string]any{"userId": "u1", "bookingId": "b1", "status": "pending"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestBookingService_EndToEnd(t *testing.T) {
	users := identity.NewService(memory.NewUserRepo(), slog.Default())
	sessions := scheduler.NewSessions(func(userID string) scheduler.BookingSink { return users.Sink(userID) }, scheduler.Config{
		Holidays: domain.DefaultHolidays(),
		Now:      func() time.Time { return testNow },
	})

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterBookingServiceServer(s, NewBookingServer(sessions, users, locale.English, slog.Default()))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	client := NewBookingClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Call(ctx, "Login", mustStruct(t, map[string]any{"name": "Ada", "email": "ada@example.com"}))
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	userID := resp.GetFields()["user"].GetStructValue().GetFields()["id"].GetStringValue()
	if userID == "" {
		t.Fatalf("login returned no user id")
	}
	user := map[string]any{"userId": userID}

	steps := []struct {
		method string
		req    map[string]any
	}{
		{"OpenBooking", user},
		{"SelectDate", map[string]any{"userId": userID, "date": "2026-02-19"}},
		{"SelectSlot", map[string]any{"userId": userID, "slot": "14:00 - 15:00"}},
	}
	for _, step := range steps {
		if _, err := client.Call(ctx, step.method, mustStruct(t, step.req)); err != nil {
			t.Fatalf("%s error: %v", step.method, err)
		}
	}

	resp, err = client.Call(ctx, "ConfirmBooking", mustStruct(t, user))
	if err != nil {
		t.Fatalf("ConfirmBooking error: %v", err)
	}
	booking := resp.GetFields()["booking"].GetStructValue().GetFields()
	if got := booking["date"].GetStringValue(); got != "2026-02-18T16:00:00Z" {
		t.Fatalf("booking date = %s, want 2026-02-18T16:00:00Z", got)
	}
	view := resp.GetFields()["view"].GetStructValue().GetFields()
	if got := view["step"].GetStringValue(); got != string(scheduler.StepSuccess) {
		t.Fatalf("step = %s, want %s", got, scheduler.StepSuccess)
	}

	_, err = client.Call(ctx, "ConfirmBooking", mustStruct(t, user))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("second confirm code = %s, want %s", status.Code(err), codes.FailedPrecondition)
	}

	resp, err = client.Call(ctx, "ListBookings", mustStruct(t, user))
	if err != nil {
		t.Fatalf("ListBookings error: %v", err)
	}
	list := resp.GetFields()["bookings"].GetListValue().GetValues()
	if len(list) != 1 {
		t.Fatalf("bookings = %d, want 1", len(list))
	}
	bookingID := list[0].GetStructValue().GetFields()["id"].GetStringValue()

	resp, err = client.Call(ctx, "SetBookingStatus", mustStruct(t, map[string]any{"userId": userID, "bookingId": bookingID, "status": "cancelled"}))
	if err != nil {
		t.Fatalf("SetBookingStatus error: %v", err)
	}
	if got := resp.GetFields()["booking"].GetStructValue().GetFields()["status"].GetStringValue(); got != "cancelled" {
		t.Fatalf("status = %s, want cancelled", got)
	}

	if _, err := client.Call(ctx, "CloseBooking", mustStruct(t, user)); err != nil {
		t.Fatalf("CloseBooking error: %v", err)
	}
}

func TestBookingServer_UnknownUsersCreateNoSessions(t *testing.T) {
	users := identity.NewService(memory.NewUserRepo(), slog.Default())
	sessions := newTestSessions(sinkFunc(func(context.Context, domain.BookingRecord) error { return nil }))
	srv := NewBookingServer(sessions, users, locale.English, slog.Default())
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_, err := srv.GetBookingView(ctx, mustStruct(t, map[string]any{"userId": fmt.Sprintf("ghost-%d", i)}))
		if status.Code(err) != codes.NotFound {
			t.Fatalf("GetBookingView(ghost-%d) code = %s, want %s", i, status.Code(err), codes.NotFound)
		}
	}
	for _, call := range []func(context.Context, *structpb.Struct) (*structpb.Struct, error){
		srv.SelectSlot, srv.ConfirmBooking, srv.NavigateMonth, srv.SelectDate,
	} {
		_, _ = call(ctx, mustStruct(t, map[string]any{"userId": "ghost", "delta": 1, "date": "2026-02-19", "slot": "10:00 - 11:00"}))
	}
	if got := sessions.Len(); got != 0 {
		t.Fatalf("sessions after unknown users = %d, want 0", got)
	}

	u, err := users.Login(ctx, identity.LoginInput{Name: "Ada"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	resp, err := srv.GetBookingView(ctx, mustStruct(t, map[string]any{"userId": u.ID}))
	if err != nil {
		t.Fatalf("GetBookingView error: %v", err)
	}
	if resp.GetFields()["view"].GetStructValue().GetFields()["isOpen"].GetBoolValue() {
		t.Fatalf("view open without OpenBooking")
	}
	_, err = srv.SelectDate(ctx, mustStruct(t, map[string]any{"userId": u.ID, "date": "2026-02-19"}))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("SelectDate before open code = %s, want %s", status.Code(err), codes.FailedPrecondition)
	}
	if got := sessions.Len(); got != 0 {
		t.Fatalf("sessions before OpenBooking = %d, want 0", got)
	}

	if _, err := srv.OpenBooking(ctx, mustStruct(t, map[string]any{"userId": u.ID})); err != nil {
		t.Fatalf("OpenBooking error: %v", err)
	}
	if got := sessions.Len(); got != 1 {
		t.Fatalf("sessions after OpenBooking = %d, want 1", got)
	}
}

func TestBookingServer_ViewWeekdaysFollowLanguage(t *testing.T) {
	srv := NewBookingServer(newTestSessions(sinkFunc(func(context.Context, domain.BookingRecord) error { return nil })), &fakeUserService{}, locale.English, slog.Default())

	tests := []struct {
		name  string
		ctx   context.Context
		req   map[string]any
		first string
	}{
		{name: "server default", ctx: context.Background(), req: map[string]any{"userId": "u1"}, first: "Sun"},
		{name: "request field", ctx: context.Background(), req: map[string]any{"userId": "u1", "language": "cn"}, first: "日"},
		{name: "accept-language", ctx: metadata.NewIncomingContext(context.Background(), metadata.Pairs("accept-language", "zh-CN,zh;q=0.9")), req: map[string]any{"userId": "u1"}, first: "日"},
	}
	for _, tt := range tests {
		for _, rpc := range []func(context.Context, *structpb.Struct) (*structpb.Struct, error){srv.GetBookingView, srv.OpenBooking} {
			resp, err := rpc(tt.ctx, mustStruct(t, tt.req))
			if err != nil {
				t.Fatalf("%s: error: %v", tt.name, err)
			}
			days := resp.GetFields()["view"].GetStructValue().GetFields()["weekdays"].GetListValue().GetValues()
			if len(days) != 7 || days[0].GetStringValue() != tt.first {
				t.Fatalf("%s: weekdays = %v, want 7 starting %q", tt.name, days, tt.first)
			}
		}
	}
}

func TestBookingServer_ConfirmPastDeadline(t *testing.T) {
	srv := NewBookingServer(newTestSessions(sinkFunc(func(ctx context.Context, rec domain.BookingRecord) error {
		<-ctx.Done()
		return ctx.Err()
	})), &fakeUserService{}, locale.English, slog.Default())

	bg := context.Background()
	for _, step := range []struct {
		call func(context.Context, *structpb.Struct) (*structpb.Struct, error)
		req  map[string]any
	}{
		{srv.OpenBooking, map[string]any{"userId": "u1"}},
		{srv.SelectDate, map[string]any{"userId": "u1", "date": "2026-02-19"}},
		{srv.SelectSlot, map[string]any{"userId": "u1", "slot": "10:00 - 11:00"}},
	} {
		if _, err := step.call(bg, mustStruct(t, step.req)); err != nil {
			t.Fatalf("setup error: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(bg, time.Millisecond)
	defer cancel()
	_, err := srv.ConfirmBooking(ctx, mustStruct(t, map[string]any{"userId": "u1"}))
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.DeadlineExceeded)
	}
}
