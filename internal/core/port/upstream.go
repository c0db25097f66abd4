package port

import (
	"context"

	"solix2prom/internal/core/domain"
)

// UpstreamClient is the account API the exporter polls. The authenticated
// session is owned by the cloud adapter actor; no other component touches it.
type UpstreamClient interface {
	// Authenticate establishes (or refreshes) a session. Failures are
	// reported as *domain.AuthError.
	Authenticate(ctx context.Context) error
	// ListSitesAndDevices returns the current fleet with raw payloads.
	// Transport and decoding failures are reported as *domain.FetchError;
	// an expired session as *domain.AuthError.
	ListSitesAndDevices(ctx context.Context) ([]domain.RawEntity, error)
}
