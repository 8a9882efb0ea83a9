package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ridecover/internal/coverage/domain"
)

const namespace = "ridecover"

// PrometheusRecorder counts SDK dispatches, notification actions and setup outcomes.
type PrometheusRecorder struct {
	reg              *prom.Registry
	periodDispatches *prom.CounterVec
	notifications    *prom.CounterVec
	setupOutcomes    *prom.CounterVec
	settingsChecks   *prom.CounterVec
}

// NewPrometheusRecorder registers the coverage metrics on reg (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	pr := &PrometheusRecorder{
		reg: reg,
		periodDispatches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "insurance_period_dispatch_total",
			Help:      "Insurance period SDK calls by target period and outcome",
		}, []string{"period", "success"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notification_actions_total",
			Help:      "Notification show/hide actions issued",
		}, []string{"id", "kind"}),
		setupOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sdk_setup_total",
			Help:      "SDK setup completions by outcome",
		}, []string{"success"}),
		settingsChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "settings_checks_total",
			Help:      "Device settings checks by report availability",
		}, []string{"available"}),
	}
	reg.MustRegister(pr.periodDispatches, pr.notifications, pr.setupOutcomes, pr.settingsChecks)
	return pr
}

func (p *PrometheusRecorder) IncPeriodDispatch(period domain.Period, success bool) {
	p.periodDispatches.WithLabelValues(period.String(), strconv.FormatBool(success)).Inc()
}

func (p *PrometheusRecorder) IncNotificationAction(id domain.NotificationID, kind domain.ActionKind) {
	p.notifications.WithLabelValues(string(id), string(kind)).Inc()
}

func (p *PrometheusRecorder) IncSetupOutcome(success bool) {
	p.setupOutcomes.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (p *PrometheusRecorder) IncSettingsCheck(available bool) {
	p.settingsChecks.WithLabelValues(strconv.FormatBool(available)).Inc()
}

// Handler serves the registry in Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}
