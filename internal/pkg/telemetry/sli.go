package telemetry

// SLI metric names used for instrumentation dashboards.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricPositionAge     = "tracking.position_age_seconds"
	MetricGP51PollLatency = "tracking.gp51_poll_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricGeofenceAlerts = "business.geofence_alerts"
	MetricNotifications  = "business.notifications_sent"
)
