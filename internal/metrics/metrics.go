// Package metrics exposes the daemon's health counters as Prometheus
// metrics, optionally served over HTTP when --metrics_addr is set.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LinesParsed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paraevo_lines_parsed_total",
		Help: "PRT3 lines parsed, by kind.",
	}, []string{"kind"})

	ReportsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paraevo_reports_emitted_total",
		Help: "Area/zone state reports emitted, by entity.",
	}, []string{"entity"})

	MQTTPublishes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paraevo_mqtt_publishes_total",
		Help: "MQTT publishes attempted.",
	})

	MQTTPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paraevo_mqtt_publish_errors_total",
		Help: "MQTT publishes (and on-connect utility-key subscriptions) that returned an error.",
	})

	CommandsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paraevo_commands_dropped_total",
		Help: "Inbound MQTT commands dropped because their payload was not recognized.",
	})
)

func init() {
	prometheus.MustRegister(LinesParsed, ReportsEmitted, MQTTPublishes, MQTTPublishErrors, CommandsDropped)
}

// Serve starts the Prometheus exporter at addr and blocks until ctx is
// cancelled or the listener fails.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		return err
	}
}
