package exchange

import "fmt"

// The error taxonomy from spec.md §7: Transport, Protocol, API, Auth,
// Validation. Ingestion tasks recover from the first four (log, mark
// offline, backoff, reconnect); Validation during symbol resolution is
// fatal to that adapter's worker.

// TransportError wraps HTTP connectivity, WS read/write, and TLS failures.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError wraps unexpected status codes, unparseable bodies, and
// schema mismatches.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol: %s: %v", e.Op, e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// APIError wraps a venue-returned {code, msg} error body.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("api error %s: %s", e.Code, e.Message) }

// AuthError reports missing credentials when a signed call is attempted.
type AuthError struct {
	Op string
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %s: no credentials configured", e.Op) }

// ValidationError reports an unknown symbol or unsupported parameter
// combination.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation: %s", e.Msg) }
