package metrics

// RegisterDefaults creates every instrument the service records.
func RegisterDefaults(m Manager) {
	m.NewGauge("app_go_routines", "Number of goroutines")
	m.NewGauge("app_sys_memory_alloc", "Bytes allocated and in use")
	m.NewGauge("app_go_numGC", "Number of completed GC cycles")

	m.NewCounter("http_requests_total", "Total number of HTTP requests")
	m.NewHistogram("http_request_duration_seconds", "HTTP request duration in seconds",
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0)

	m.NewCounter("rooms_created_total", "Total number of rooms created")
	m.NewCounter("rooms_destroyed_total", "Total number of rooms destroyed, by reason")
	m.NewCounter("invites_created_total", "Total number of invite codes issued")
	m.NewCounter("admissions_total", "Admission attempts, by result")
	m.NewCounter("messages_sent_total", "Total number of messages appended, by type")

	m.NewUpDownCounter("active_websocket_connections", "Number of active WebSocket connections")
	m.NewCounter("websocket_messages_sent", "Total number of events fanned out to listeners")
}
