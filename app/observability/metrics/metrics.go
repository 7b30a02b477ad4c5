package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	CatalogLoadsTotal        metric.Int64Counter
	CatalogLoadErrorsTotal   metric.Int64Counter
	FavouriteTogglesTotal    metric.Int64Counter
	InteractionFlushesTotal  metric.Int64Counter
	ChatMessagesTotal        metric.Int64Counter
	PaymentCheckoutsTotal    metric.Int64Counter
	RemoteRequestDuration    metric.Float64Histogram
	RemoteRequestErrorsTotal metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global instruments once, using the meter from
// the globally configured MeterProvider. Before a provider is installed the
// global one is a no-op, which keeps tests free of exporter setup.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("JourneyMate")
		m := &AppMetrics{}
		var err error

		m.CatalogLoadsTotal, err = meter.Int64Counter(
			"catalog_loads_total",
			metric.WithDescription("Total number of catalog loads from the remote API"),
			metric.WithUnit("{load}"),
		)
		must(err, "catalog_loads_total")

		m.CatalogLoadErrorsTotal, err = meter.Int64Counter(
			"catalog_load_errors_total",
			metric.WithDescription("Total number of failed catalog loads"),
			metric.WithUnit("{error}"),
		)
		must(err, "catalog_load_errors_total")

		m.FavouriteTogglesTotal, err = meter.Int64Counter(
			"favourite_toggles_total",
			metric.WithDescription("Favourite toggles by outcome"),
			metric.WithUnit("{toggle}"),
		)
		must(err, "favourite_toggles_total")

		m.InteractionFlushesTotal, err = meter.Int64Counter(
			"interaction_flushes_total",
			metric.WithDescription("Interaction flush attempts by outcome"),
			metric.WithUnit("{flush}"),
		)
		must(err, "interaction_flushes_total")

		m.ChatMessagesTotal, err = meter.Int64Counter(
			"chat_messages_total",
			metric.WithDescription("Chat messages by direction"),
			metric.WithUnit("{message}"),
		)
		must(err, "chat_messages_total")

		m.PaymentCheckoutsTotal, err = meter.Int64Counter(
			"payment_checkouts_total",
			metric.WithDescription("Checkout sessions created"),
			metric.WithUnit("{checkout}"),
		)
		must(err, "payment_checkouts_total")

		m.RemoteRequestDuration, err = meter.Float64Histogram(
			"remote_request_duration_seconds",
			metric.WithDescription("Duration of remote API requests in seconds"),
			metric.WithUnit("s"),
		)
		must(err, "remote_request_duration_seconds")

		m.RemoteRequestErrorsTotal, err = meter.Int64Counter(
			"remote_request_errors_total",
			metric.WithDescription("Total number of failed remote API requests"),
			metric.WithUnit("{error}"),
		)
		must(err, "remote_request_errors_total")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func must(err error, name string) {
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
}
