package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics are the Prometheus counters of one Server. Each Server has its
// own registry so several servers can run in one process.
type metrics struct {
	registry *prometheus.Registry

	chatsCreated prometheus.Counter
	questions    prometheus.Counter
	deltas       prometheus.Counter
	streamErrors prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		chatsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeer_mock_chats_created_total",
			Help: "Chats created",
		}),
		questions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeer_mock_questions_total",
			Help: "Questions received",
		}),
		deltas: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeer_mock_stream_deltas_total",
			Help: "Text delta events streamed",
		}),
		streamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeer_mock_stream_errors_total",
			Help: "Replies that ended with an error event",
		}),
	}

	m.registry.MustRegister(m.chatsCreated, m.questions, m.deltas, m.streamErrors)
	return m
}

// handler serves the registry in the Prometheus text format.
func (m *metrics) handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
