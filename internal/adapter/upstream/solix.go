// Package upstream adapts the solixcloud account API to the core's
// UpstreamClient port, translating records and the error taxonomy.
package upstream

import (
	"context"
	"errors"

	"solix2prom/internal/core/domain"
	"solix2prom/internal/core/port"
	"solix2prom/pkg/solixcloud"
)

type SolixUpstream struct {
	api solixcloud.AccountAPI
}

var _ port.UpstreamClient = (*SolixUpstream)(nil)

func NewSolixUpstream(api solixcloud.AccountAPI) *SolixUpstream {
	return &SolixUpstream{api: api}
}

// Authenticate logs in to the account API. Transport problems (timeouts,
// cancellation) are fetch failures, not credential failures.
func (u *SolixUpstream) Authenticate(ctx context.Context) error {
	if err := u.api.Login(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &domain.FetchError{Cause: err}
		}
		return &domain.AuthError{Cause: err}
	}
	return nil
}

func (u *SolixUpstream) ListSitesAndDevices(ctx context.Context) ([]domain.RawEntity, error) {
	fleet, err := u.api.Fleet(ctx)
	if err != nil {
		if errors.Is(err, solixcloud.ErrUnauthorized) {
			return nil, &domain.AuthError{Cause: err}
		}
		return nil, &domain.FetchError{Cause: err}
	}

	entities := make([]domain.RawEntity, 0, len(fleet.Sites)+len(fleet.Devices))
	for _, rec := range fleet.Sites {
		entities = append(entities, toEntity(rec))
	}
	for _, rec := range fleet.Devices {
		entities = append(entities, toEntity(rec))
	}
	return entities, nil
}

func toEntity(rec solixcloud.Record) domain.RawEntity {
	return domain.RawEntity{
		ID:       rec.ID,
		SiteID:   rec.SiteID,
		Name:     rec.Name,
		Category: domain.Category(rec.Category),
		Valid:    rec.Valid,
		Fields:   rec.Fields,
	}
}
