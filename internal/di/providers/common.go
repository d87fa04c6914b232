package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for the HTTP server to drain.
	shutdownTimeout = 30 * time.Second

	// connectTimeout bounds store initialisation and the boot-time migration run.
	connectTimeout = 30 * time.Second
)
