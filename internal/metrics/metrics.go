package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts scheduler activity. A nil *BookingMetrics is a no-op.
type BookingMetrics struct {
	opened    prometheus.Counter
	confirmed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lumina",
			Subsystem: "booking",
			Name:      "scheduler_opened_total",
			Help:      "Times the booking scheduler was opened",
		}),
		confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumina",
			Subsystem: "booking",
			Name:      "confirmed_total",
			Help:      "Bookings confirmed, by time slot",
		}, []string{"slot"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumina",
			Subsystem: "booking",
			Name:      "rejected_total",
			Help:      "Scheduler actions rejected, by reason",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.opened, m.confirmed, m.rejected)
	return m
}

func (m *BookingMetrics) ObserveOpened() {
	if m == nil {
		return
	}
	m.opened.Inc()
}

func (m *BookingMetrics) ObserveConfirmed(slot string) {
	if m == nil {
		return
	}
	m.confirmed.WithLabelValues(slot).Inc()
}

func (m *BookingMetrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
