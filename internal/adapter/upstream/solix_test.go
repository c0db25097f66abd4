package upstream

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"solix2prom/internal/core/domain"
	"solix2prom/pkg/solixcloud"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateMapsCredentialFailure(t *testing.T) {
	client := &solixcloud.TestClient{LoginErr: errors.New("incorrect password")}

	err := NewSolixUpstream(client).Authenticate(context.Background())

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestAuthenticateMapsTimeoutToFetchError(t *testing.T) {
	client := &solixcloud.TestClient{
		LoginErr: fmt.Errorf("post login: %w", context.DeadlineExceeded),
	}

	err := NewSolixUpstream(client).Authenticate(context.Background())

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	var authErr *domain.AuthError
	assert.False(t, errors.As(err, &authErr))
}

func TestListMapsExpiredSession(t *testing.T) {
	client := &solixcloud.TestClient{FleetErr: solixcloud.ErrUnauthorized}

	_, err := NewSolixUpstream(client).ListSitesAndDevices(context.Background())

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestListReturnsEntities(t *testing.T) {
	client := &solixcloud.TestClient{}

	entities, err := NewSolixUpstream(client).ListSitesAndDevices(context.Background())

	require.NoError(t, err)
	assert.Len(t, entities, 4)
	assert.Equal(t, domain.CategorySite, entities[0].Category)
}
