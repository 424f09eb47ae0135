// Package metrics 接待业务的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 业务计数器
// 所有方法对 nil 接收者安全，未启用指标时直接传 nil
type Metrics struct {
	AttendanceRegistered *prometheus.CounterVec
	AttendanceAttended   prometheus.Counter
	AttendanceRemoved    prometheus.Counter
	NotificationsSent    *prometheus.CounterVec
	NotificationsFailed  *prometheus.CounterVec
}

// New 在给定 Registerer 上注册全部指标；测试中传入独立 Registry 避免重复注册
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AttendanceRegistered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "atende_attendances_registered_total",
			Help: "Total number of attendance records registered, by sector",
		}, []string{"sector"}),
		AttendanceAttended: f.NewCounter(prometheus.CounterOpts{
			Name: "atende_attendances_attended_total",
			Help: "Total number of attendance records marked as attended",
		}),
		AttendanceRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "atende_attendances_removed_total",
			Help: "Total number of attendance records removed",
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "atende_notifications_sent_total",
			Help: "Total number of WhatsApp messages delivered to the gateway, by sector",
		}, []string{"sector"}),
		NotificationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "atende_notifications_failed_total",
			Help: "Total number of WhatsApp messages that failed, by sector",
		}, []string{"sector"}),
	}
}

// IncRegistered 记录一次登记
func (m *Metrics) IncRegistered(sector string) {
	if m == nil {
		return
	}
	m.AttendanceRegistered.WithLabelValues(sector).Inc()
}

// IncAttended 记录一次接待完成
func (m *Metrics) IncAttended() {
	if m == nil {
		return
	}
	m.AttendanceAttended.Inc()
}

// IncRemoved 记录一次删除
func (m *Metrics) IncRemoved() {
	if m == nil {
		return
	}
	m.AttendanceRemoved.Inc()
}

// ObserveNotification 记录单条消息发送结果
func (m *Metrics) ObserveNotification(sector string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.NotificationsSent.WithLabelValues(sector).Inc()
	} else {
		m.NotificationsFailed.WithLabelValues(sector).Inc()
	}
}
