package actor

import (
	"errors"
	"testing"
	"time"

	"solix2prom/internal/core/domain"
	"solix2prom/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDummyMQTTActorPublishSnapshot(t *testing.T) {

	as := actor.NewActorSystem()
	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	es := &eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewTestMQTTActor(&cfg, es, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "mqtt")
	require.NoError(t, err)

	snap := &domain.Snapshot{
		Taken: time.Now(),
		Cycle: 1,
		Entities: map[string]domain.EntityReadings{
			"sb-1": {
				Info: domain.EntityInfo{
					ID:       "sb-1",
					SiteID:   "site-1",
					Category: domain.CategorySolarbank,
				},
				Valid:    true,
				Cycle:    1,
				Readings: map[string]float64{"solix_device_battery_soc_percent": 87},
			},
		},
	}

	res, err := as.Root.RequestFuture(pid, domain.PublishSnapshotRequest{Snapshot: snap}, 5*time.Second).Result()
	require.NoError(t, err)

	resp, ok := res.(domain.PublishSnapshotResponse)
	require.True(t, ok)
	assert.Equal(t, 1, resp.Published)
	assert.Equal(t, 0, resp.Failed)

	as.Root.Stop(pid)
	as.Shutdown()
}

func TestPublishTallyCountsOutcomes(t *testing.T) {

	assert := assert.New(t)

	tally := newPublishTally(3)
	assert.False(tally.record(nil))
	assert.False(tally.record(errors.New("broker gone")))
	assert.True(tally.record(nil))

	published, failed := tally.counts()
	assert.Equal(2, published)
	assert.Equal(1, failed)
}

func TestDummyMQTTActorSubscribesSnapshots(t *testing.T) {

	as := actor.NewActorSystem()
	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	es := &eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewTestMQTTActor(&cfg, es, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "mqtt")
	require.NoError(t, err)

	time.Sleep(500 * time.Millisecond)

	res, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, health.Healthy)

	// an installed snapshot flows to the actor through the stream
	es.Publish(domain.SnapshotInstalledEvent{Snapshot: &domain.Snapshot{Cycle: 1, Entities: map[string]domain.EntityReadings{}}})
	time.Sleep(500 * time.Millisecond)

	as.Root.Stop(pid)
	time.Sleep(500 * time.Millisecond)

	as.Shutdown()
}
