package scheduler

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"time"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/metrics"
)

type Step string

const (
	StepDateSelection Step = "date-selection"
	StepSuccess       Step = "success"
)

// BookingSink receives confirmed bookings. It is the user-profile side of
// the flow; the controller never looks users up itself.
type BookingSink interface {
	AddBooking(ctx context.Context, rec domain.BookingRecord) error
}

type Config struct {
	Holidays domain.HolidaySet
	// Slots are the ordered labels offered for every bookable day.
	Slots []domain.TimeSlot
	// Zone anchors "today". Defaults to UTC+8.
	Zone    *time.Location
	Now     func() time.Time
	NewID   func() (string, error)
	Metrics *metrics.BookingMetrics
	Log     *slog.Logger
}

type ViewState struct {
	IsOpen         bool
	Step           Step
	DisplayedMonth domain.YearMonth
	Request        domain.BookingRequest
}

// Controller runs one user's booking flow. It is not safe for concurrent
// use; Sessions serialises access per user.
type Controller struct {
	sink     BookingSink
	holidays domain.HolidaySet
	slots    []domain.TimeSlot
	zone     *time.Location
	now      func() time.Time
	newID    func() (string, error)
	metrics  *metrics.BookingMetrics
	log      *slog.Logger

	state     ViewState
	confirmed *domain.BookingRecord
}

func NewController(sink BookingSink, cfg Config) *Controller {
	if sink == nil {
		panic("scheduler: booking sink required")
	}
	c := &Controller{
		sink:     sink,
		holidays: cfg.Holidays,
		slots:    slices.Clone(cfg.Slots),
		zone:     cfg.Zone,
		now:      cfg.Now,
		newID:    cfg.NewID,
		metrics:  cfg.Metrics,
		log:      cfg.Log,
		state:    ViewState{Step: StepDateSelection},
	}
	if len(c.slots) == 0 {
		c.slots = slices.Clone(domain.DefaultTimeSlots)
	}
	if c.zone == nil {
		c.zone = domain.ReferenceZone(domain.DefaultUTCOffset)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = domain.NewBookingID
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With(slog.String("component", "scheduler"))
	c.state.DisplayedMonth = c.ReferenceToday().YearMonth()
	return c
}

func (c *Controller) ReferenceToday() domain.CalendarDate {
	return domain.ReferenceToday(c.now(), c.zone)
}

func (c *Controller) IsOpen() bool {
	return c.state.IsOpen
}

// State returns a copy of the current view state.
func (c *Controller) State() ViewState {
	s := c.state
	if s.Request.Date != nil {
		d := *s.Request.Date
		s.Request.Date = &d
	}
	if s.Request.Slot != nil {
		sl := *s.Request.Slot
		s.Request.Slot = &sl
	}
	return s
}

// Confirmed returns the record emitted by the last successful confirm of
// the current open flow.
func (c *Controller) Confirmed() (domain.BookingRecord, bool) {
	if c.confirmed == nil {
		return domain.BookingRecord{}, false
	}
	return *c.confirmed, true
}

// Open starts a fresh flow, discarding any earlier selection.
func (c *Controller) Open() {
	c.state = ViewState{
		IsOpen:         true,
		Step:           StepDateSelection,
		DisplayedMonth: c.ReferenceToday().YearMonth(),
	}
	c.confirmed = nil
	c.metrics.ObserveOpened()
	c.log.Debug("scheduler opened", slog.String("month", c.state.DisplayedMonth.String()))
}

// Close abandons an unconfirmed selection. Nothing is emitted.
func (c *Controller) Close() {
	if !c.state.IsOpen {
		return
	}
	abandoned := c.state.Step == StepDateSelection && c.state.Request.Date != nil
	c.state.IsOpen = false
	c.log.Debug("scheduler closed", slog.Bool("abandoned_selection", abandoned))
}

func (c *Controller) selecting() bool {
	return c.state.IsOpen && c.state.Step == StepDateSelection
}

// CanNavigateBack reports whether the previous-month control is live.
func (c *Controller) CanNavigateBack() bool {
	return domain.CanNavigateBack(c.state.DisplayedMonth, c.ReferenceToday())
}

// NavigateMonth moves the displayed month by delta. A move that would land
// before the reference month is ignored.
func (c *Controller) NavigateMonth(delta int) bool {
	if !c.selecting() {
		return false
	}
	target := c.state.DisplayedMonth.AddMonths(delta)
	if target.Compare(c.ReferenceToday().YearMonth()) < 0 {
		return false
	}
	c.state.DisplayedMonth = target
	return true
}

// Calendar renders the displayed month against the current reference day.
func (c *Controller) Calendar() iter.Seq[domain.CellView] {
	return domain.RenderMonth(c.state.DisplayedMonth, c.ReferenceToday(), c.holidays, c.state.Request.Date)
}

func (c *Controller) Slots() []domain.SlotOption {
	return domain.SelectableSlots(c.slots, c.state.Request)
}

// SelectDate picks d and clears any chosen slot. Unbookable dates are
// never offered, so selecting one is ignored rather than reported.
func (c *Controller) SelectDate(d domain.CalendarDate) bool {
	if !c.selecting() {
		return false
	}
	if !domain.IsBookable(d, c.ReferenceToday(), c.holidays) {
		c.metrics.ObserveRejected("unbookable_date")
		return false
	}
	c.state.Request = c.state.Request.WithDate(d)
	return true
}

func (c *Controller) SelectSlot(s domain.TimeSlot) error {
	if !c.selecting() {
		c.metrics.ObserveRejected("invalid_state")
		return domain.ErrInvalidState
	}
	if !domain.ContainsSlot(c.slots, s) {
		c.metrics.ObserveRejected("unknown_slot")
		return domain.ErrUnknownSlot
	}
	req, err := c.state.Request.WithSlot(s)
	if err != nil {
		c.metrics.ObserveRejected("invalid_state")
		return err
	}
	c.state.Request = req
	return nil
}

// Confirm emits exactly one confirmed booking to the sink and moves the
// flow to success. If the sink fails the flow stays on date selection.
func (c *Controller) Confirm(ctx context.Context) (domain.BookingRecord, error) {
	if !c.selecting() {
		c.metrics.ObserveRejected("invalid_state")
		return domain.BookingRecord{}, domain.ErrInvalidState
	}
	req := c.state.Request
	if !req.Complete() {
		c.metrics.ObserveRejected("incomplete_selection")
		return domain.BookingRecord{}, domain.ErrIncompleteSelection
	}

	id, err := c.newID()
	if err != nil {
		return domain.BookingRecord{}, err
	}
	rec := domain.BookingRecord{
		ID:        id,
		Date:      req.Date.Midnight(c.zone).UTC(),
		Slot:      *req.Slot,
		Status:    domain.BookingStatusConfirmed,
		CreatedAt: c.now().UTC(),
	}

	if err := c.sink.AddBooking(ctx, rec); err != nil {
		c.metrics.ObserveRejected("persistence")
		c.log.Error("booking persist failed", slog.Any("err", err), slog.String("booking_id", rec.ID))
		return domain.BookingRecord{}, &domain.PersistenceError{Err: err}
	}

	c.state.Step = StepSuccess
	c.confirmed = &rec
	c.metrics.ObserveConfirmed(string(rec.Slot))
	c.log.Info(
		"booking confirmed",
		slog.String("booking_id", rec.ID),
		slog.String("date", req.Date.String()),
		slog.String("slot", string(rec.Slot)),
	)
	return rec, nil
}
