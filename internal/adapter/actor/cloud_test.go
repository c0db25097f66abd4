package actor

import (
	"errors"
	"testing"
	"time"

	"solix2prom/internal/adapter/upstream"
	"solix2prom/internal/core/domain"
	"solix2prom/pkg/solixcloud"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnCloudActor(t *testing.T, as *actor.ActorSystem, client *solixcloud.TestClient) *actor.PID {
	logCfg := zap.NewDevelopmentConfig()
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCloudActor(upstream.NewSolixUpstream(client), 5*time.Second, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "cloud")
	require.NoError(t, err)
	return pid
}

func TestCloudActorFetchFleet(t *testing.T) {

	as := actor.NewActorSystem()
	client := &solixcloud.TestClient{}
	pid := spawnCloudActor(t, as, client)

	res, err := as.Root.RequestFuture(pid, domain.FetchFleetRequest{}, 10*time.Second).Result()
	require.NoError(t, err)

	resp, ok := res.(domain.FetchFleetResponse)
	require.True(t, ok)
	require.False(t, resp.HasResponseError())
	assert.Len(t, resp.Entities, 4)
	assert.Equal(t, 1, client.LoginCalls())

	// the session is reused across fetches
	_, err = as.Root.RequestFuture(pid, domain.FetchFleetRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, 1, client.LoginCalls())
	assert.Equal(t, 2, client.FleetCalls())

	as.Shutdown()
}

func TestCloudActorAuthError(t *testing.T) {

	as := actor.NewActorSystem()
	client := &solixcloud.TestClient{LoginErr: errors.New("bad credentials")}
	pid := spawnCloudActor(t, as, client)

	res, err := as.Root.RequestFuture(pid, domain.FetchFleetRequest{}, 10*time.Second).Result()
	require.NoError(t, err)

	resp, ok := res.(domain.FetchFleetResponse)
	require.True(t, ok)
	require.True(t, resp.HasResponseError())

	var authErr *domain.AuthError
	assert.True(t, errors.As(resp.GetResponseError(), &authErr))

	// once credentials work again, a fresh login happens
	client.LoginErr = nil
	res, err = as.Root.RequestFuture(pid, domain.FetchFleetRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	resp, ok = res.(domain.FetchFleetResponse)
	require.True(t, ok)
	assert.False(t, resp.HasResponseError())
	assert.Equal(t, 2, client.LoginCalls())

	as.Shutdown()
}

func TestCloudActorExpiredSession(t *testing.T) {

	as := actor.NewActorSystem()
	client := &solixcloud.TestClient{FleetErr: solixcloud.ErrUnauthorized}
	pid := spawnCloudActor(t, as, client)

	res, err := as.Root.RequestFuture(pid, domain.FetchFleetRequest{}, 10*time.Second).Result()
	require.NoError(t, err)

	resp, ok := res.(domain.FetchFleetResponse)
	require.True(t, ok)
	require.True(t, resp.HasResponseError())

	var authErr *domain.AuthError
	assert.True(t, errors.As(resp.GetResponseError(), &authErr))

	// the expired session forces a re-login on the next fetch
	client.FleetErr = nil
	_, err = as.Root.RequestFuture(pid, domain.FetchFleetRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, 2, client.LoginCalls())

	as.Shutdown()
}

func TestCloudActorHealth(t *testing.T) {

	as := actor.NewActorSystem()
	pid := spawnCloudActor(t, as, &solixcloud.TestClient{})

	res, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(t, err)

	health, ok := res.(domain.ActorHealthResponse)
	require.True(t, ok)
	assert.True(t, health.Healthy)
	assert.Equal(t, domain.ACTOR_ID_CLOUD, health.Id)

	as.Shutdown()
}
