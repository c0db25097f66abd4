package domain

import "fmt"

// AuthError means the upstream rejected the credentials or the session
// expired. The next fetch attempt re-authenticates; it is never fatal to the
// process.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream authentication failed: %v", e.Cause)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// FetchError is a network, timeout or unexpected-response failure of the
// top-level site/device list call. It aborts the current cycle only.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("upstream fetch failed: %v", e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// FieldError reports a single malformed payload field. It is logged and the
// field skipped; the rest of the entity normalizes as usual.
type FieldError struct {
	Field string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %T to number", e.Field, e.Value)
}

// PublishError wraps a push-transport failure. Best effort: logged, never
// rolled back, never retried within the cycle.
type PublishError struct {
	Topic string
	Cause error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s failed: %v", e.Topic, e.Cause)
}

func (e *PublishError) Unwrap() error {
	return e.Cause
}
