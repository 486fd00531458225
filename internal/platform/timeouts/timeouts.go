// Package timeouts defines shared timeout constants used across itemdesk.
package timeouts

import "time"

// ProviderRequest caps a single identity provider call.
const ProviderRequest = 5 * time.Second

// BackendRequest caps a single data backend call.
const BackendRequest = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
