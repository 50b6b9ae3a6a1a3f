// Activity Tracker
// Copyright (C) 2025 Дмитрий Удалов dmitry@udalov.online
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"atrack/internal/activity"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "atrack"

// Collector метрики счётчика активности. Реализует activity.Observer.
type Collector struct {
	registry    *prometheus.Registry
	busy        prometheus.Gauge
	inflight    prometheus.Gauge
	transitions *prometheus.CounterVec
	deferred    prometheus.Histogram
	completed   *prometheus.CounterVec
}

// NewCollector создаёт набор метрик в собственном реестре
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "busy",
			Help:      "Visible busy state, 1 while busy.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_in_flight",
			Help:      "Operations currently holding a guard.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_transitions_total",
			Help:      "Published busy state changes.",
		}, []string{"state"}),
		deferred: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "idle_deferred_seconds",
			Help:      "How long the idle transition was postponed by the minimum busy duration.",
			Buckets:   []float64{.05, .1, .25, .5, .75, 1, 2, 5},
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_completed_total",
			Help:      "Tracked operations by name and result.",
		}, []string{"name", "result"}),
	}

	c.registry.MustRegister(c.busy, c.inflight, c.transitions, c.deferred, c.completed)
	return c
}

// Registry реестр с метриками
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler HTTP обработчик для /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Watch подписывает коллектор на сигнал занятости счётчика
func (c *Collector) Watch(counter *activity.Counter) *activity.Subscription {
	first := true
	return counter.Subscribe(func(busy bool) {
		if busy {
			c.busy.Set(1)
		} else {
			c.busy.Set(0)
		}
		// начальное значение при подписке переходом не считается
		if first {
			first = false
			return
		}
		c.transitions.WithLabelValues(stateLabel(busy)).Inc()
	})
}

func stateLabel(busy bool) string {
	if busy {
		return "busy"
	}
	return "idle"
}

func (c *Collector) Acquired() {
	c.inflight.Inc()
}

func (c *Collector) Released() {
	c.inflight.Dec()
}

func (c *Collector) ReleaseDeferred(delay time.Duration) {
	c.deferred.Observe(delay.Seconds())
}

func (c *Collector) Completed(name string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.completed.WithLabelValues(name, result).Inc()
}
