// Package providers holds the samber/do providers that assemble the server.
// Long-lived resources are wrapped in handle types whose Shutdown method the
// injector calls in reverse dependency order.
package providers

import "time"

// shutdownTimeout bounds each graceful shutdown step: draining SSE streams
// and in-flight HTTP requests.
const shutdownTimeout = 30 * time.Second
