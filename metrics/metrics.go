// Package metrics exports the phone and policy activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghettovoice/doorphone/linphone"
	"github.com/ghettovoice/doorphone/policy"
)

const namespace = "doorphone"

// Metrics holds the doorphone collectors and their registry.
type Metrics struct {
	reg *prometheus.Registry

	state     *prometheus.GaugeVec
	lifecycle *prometheus.GaugeVec
	sessions  prometheus.Counter
	changes   *prometheus.CounterVec
	faults    *prometheus.CounterVec
	actions   *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "state",
				Help:      "Phone state flags: 1 true, 0 false, -1 unknown.",
			},
			[]string{"flag"},
		),
		lifecycle: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "lifecycle",
				Help:      "Client supervisor lifecycle, 1 for the current state.",
			},
			[]string{"state"},
		),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Number of client processes started.",
		}),
		changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_changes_total",
				Help:      "Number of phone state flag changes.",
			},
			[]string{"flag"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "faults_total",
				Help:      "Number of client faults.",
			},
			[]string{"kind"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_actions_total",
				Help:      "Number of policy decisions by action and result.",
			},
			[]string{"action", "result"},
		),
	}

	m.reg.MustRegister(
		m.state,
		m.lifecycle,
		m.sessions,
		m.changes,
		m.faults,
		m.actions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.ObserveState(linphone.State{}, linphone.State{})
	m.ObserveLifecycle("", linphone.LifecycleIdle)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Phone is the subscription surface of [linphone.Phone].
type Phone interface {
	OnStateChange(fn func(old, new linphone.State)) (remove func())
	OnFault(fn func(linphone.Fault)) (remove func())
	OnLifecycle(fn func(from, to linphone.Lifecycle)) (remove func())
}

// Attach subscribes m to the phone events. The returned function unsubscribes.
func (m *Metrics) Attach(p Phone) (detach func()) {
	removers := []func(){
		p.OnStateChange(m.ObserveState),
		p.OnFault(m.ObserveFault),
		p.OnLifecycle(m.ObserveLifecycle),
	}
	return func() {
		for _, rm := range removers {
			rm()
		}
	}
}

// ObserveState records a state change.
func (m *Metrics) ObserveState(old, upd linphone.State) {
	flags := [...]struct {
		name     string
		old, upd linphone.Tristate
	}{
		{"registered", old.Registered, upd.Registered},
		{"dialing", old.Dialing, upd.Dialing},
		{"in_call", old.InCall, upd.InCall},
	}
	for _, f := range flags {
		m.state.WithLabelValues(f.name).Set(tristateValue(f.upd))
		if f.old != f.upd {
			m.changes.WithLabelValues(f.name).Inc()
		}
	}
	if upd.Session != old.Session && upd.Session != uuid.Nil {
		m.sessions.Inc()
	}
}

// ObserveFault records a fault.
func (m *Metrics) ObserveFault(f linphone.Fault) {
	m.faults.WithLabelValues(string(f.Kind)).Inc()
}

// ObserveLifecycle records a lifecycle transition.
func (m *Metrics) ObserveLifecycle(_, to linphone.Lifecycle) {
	for _, s := range [...]linphone.Lifecycle{
		linphone.LifecycleIdle,
		linphone.LifecycleStarting,
		linphone.LifecycleRunning,
		linphone.LifecycleRestarting,
		linphone.LifecycleStopped,
	} {
		v := 0.0
		if s == to {
			v = 1
		}
		m.lifecycle.WithLabelValues(s.String()).Set(v)
	}
}

// ObserveAction implements [policy.Observer].
func (m *Metrics) ObserveAction(action policy.Action, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.actions.WithLabelValues(string(action), result).Inc()
}

func tristateValue(s linphone.Tristate) float64 {
	switch s {
	case linphone.True:
		return 1
	case linphone.False:
		return 0
	default:
		return -1
	}
}

var _ policy.Observer = (*Metrics)(nil)
