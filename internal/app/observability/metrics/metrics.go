package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal        metric.Int64Counter
	HTTPRequestDuration      metric.Float64Histogram
	AuthRequestsTotal        metric.Int64Counter
	SessionInitTimeouts      metric.Int64Counter
	VenueSearchesTotal       metric.Int64Counter
	VenueWritesTotal         metric.Int64Counter
	DuplicateHitsTotal       metric.Int64Counter
	GeocodeRequestsTotal     metric.Int64Counter
	GeocodeFailuresTotal     metric.Int64Counter
	LikeTogglesTotal         metric.Int64Counter
	LikeDispatchFailures     metric.Int64Counter
	DBQueryErrorsTotal       metric.Int64Counter
	DirectoryRefreshDuration metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once, using the global
// MeterProvider. Call it after the provider is installed.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("tekuteku")
		m := &AppMetrics{}

		m.HTTPRequestsTotal = counter(meter, "http_requests_total", "Total number of HTTP requests completed", "{request}")
		m.HTTPRequestDuration = histogram(meter, "http_request_duration_seconds", "Duration of HTTP requests in seconds")
		m.AuthRequestsTotal = counter(meter, "auth_requests_total", "Total number of authentication requests", "{request}")
		m.SessionInitTimeouts = counter(meter, "session_init_timeouts_total", "Session resolutions that fell back to anonymous", "{session}")
		m.VenueSearchesTotal = counter(meter, "venue_searches_total", "Total number of directory searches", "{request}")
		m.VenueWritesTotal = counter(meter, "venue_writes_total", "Venue creates, edits and deletes", "{write}")
		m.DuplicateHitsTotal = counter(meter, "venue_duplicate_hits_total", "Creates stopped by the duplicate check", "{venue}")
		m.GeocodeRequestsTotal = counter(meter, "geocode_requests_total", "Addresses sent to the geocoding provider", "{request}")
		m.GeocodeFailuresTotal = counter(meter, "geocode_failures_total", "Addresses that could not be resolved", "{error}")
		m.LikeTogglesTotal = counter(meter, "like_toggles_total", "Like toggles by strategy", "{toggle}")
		m.LikeDispatchFailures = counter(meter, "like_dispatch_failures_total", "Background like persistence failures", "{error}")
		m.DBQueryErrorsTotal = counter(meter, "db_query_errors_total", "Total number of database query errors", "{error}")
		m.DirectoryRefreshDuration = histogram(meter, "directory_refresh_duration_seconds", "Duration of directory refreshes in seconds")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the AppMetrics instance, creating it against the current
// global MeterProvider if nobody did yet.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
