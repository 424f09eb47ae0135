package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRegistered("RH")
	m.IncRegistered("RH")
	m.IncRegistered("DP")
	m.IncAttended()
	m.IncRemoved()
	m.ObserveNotification("RH", true)
	m.ObserveNotification("RH", false)
	m.ObserveNotification("RH", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttendanceRegistered.WithLabelValues("RH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttendanceRegistered.WithLabelValues("DP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttendanceAttended))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttendanceRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("RH")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("RH")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRegistered("RH")
		m.IncAttended()
		m.IncRemoved()
		m.ObserveNotification("RH", true)
	})
}
