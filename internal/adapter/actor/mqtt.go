package actor

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"solix2prom/internal/config"
	"solix2prom/internal/core/domain"
	"solix2prom/internal/mqtt"
	"solix2prom/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTActor forwards every installed snapshot to the MQTT broker. Delivery
// is best effort: individual publish failures are logged and the snapshot is
// never rolled back or re-sent within the cycle.
type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	logger         *zap.Logger
}

type MQTTConnected struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	Topic string
	Error error
}

type snapshotPublished struct {
	Cycle     uint64
	Published int
	Failed    int
	ReplyTo   *actor.PID
}

// publishTally aggregates the outcomes of one snapshot's publishes across
// the client's callback goroutines.
type publishTally struct {
	total  int32
	done   atomic.Int32
	failed atomic.Int32
}

func newPublishTally(total int) *publishTally {
	return &publishTally{total: int32(total)}
}

// record notes one outcome and reports true once all publishes are accounted
// for.
func (t *publishTally) record(err error) bool {
	if err != nil {
		t.failed.Add(1)
	}
	return t.done.Add(1) == t.total
}

func (t *publishTally) counts() (published, failed int) {
	f := int(t.failed.Load())
	return int(t.total) - f, f
}

func NewMQTTActor(config *config.Config, es *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: es,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		state.subscribeToSnapshots(ctx)

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// let the supervisor restart with backoff
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishSnapshotRequest:
		state.logger.Debug("mqtt@default PublishSnapshotRequest", zap.Uint64("cycle", msg.Snapshot.Cycle))
		state.publishSnapshot(ctx, msg.Snapshot)
	case publishResult:
		if msg.Error != nil {
			perr := &domain.PublishError{Topic: msg.Topic, Cause: msg.Error}
			state.logger.Error("mqtt@default publish failed", zap.Error(perr))
		}
	case snapshotPublished:
		state.logger.Info("mqtt@default snapshot published",
			zap.Uint64("cycle", msg.Cycle),
			zap.Int("published", msg.Published),
			zap.Int("failed", msg.Failed))
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishSnapshotResponse{
				Published: msg.Published,
				Failed:    msg.Failed,
			})
		}
	case MQTTConnectionLost:
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) subscribeToSnapshots(ctx actor.Context) {
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
		if ev, ok := value.(domain.SnapshotInstalledEvent); ok {
			root.Send(self, domain.PublishSnapshotRequest{Snapshot: ev.Snapshot})
		}
	})
}

func (state *MQTTActor) publishSnapshot(ctx actor.Context, snap *domain.Snapshot) {
	replyTo := ctx.Sender()
	total := 0
	for _, entity := range snap.Entities {
		total += 1 + len(entity.Readings)
	}
	if total == 0 {
		ctx.Send(ctx.Self(), snapshotPublished{Cycle: snap.Cycle, ReplyTo: replyTo})
		return
	}

	tally := newPublishTally(total)
	for _, entity := range snap.Entities {
		category := string(entity.Info.Category)

		state.publishValue(ctx, snap.Cycle, tally, replyTo,
			state.client.EntityValidTopic(category, entity.Info.ID), bool2Payload(entity.Valid))
		for name, value := range entity.Readings {
			topic := state.client.ReadingStateTopic(category, entity.Info.ID, name)
			state.publishValue(ctx, snap.Cycle, tally, replyTo, topic, strconv.FormatFloat(value, 'f', -1, 64))
		}
	}
}

func (state *MQTTActor) publishValue(ctx actor.Context, cycle uint64, tally *publishTally, replyTo *actor.PID, topic, payload string) {
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.client.Publish(topic, payload, 0, false, func(err error) {
		if err != nil {
			root.Send(self, publishResult{Topic: topic, Error: err})
		}
		if tally.record(err) {
			published, failed := tally.counts()
			root.Send(self, snapshotPublished{
				Cycle:     cycle,
				Published: published,
				Failed:    failed,
				ReplyTo:   replyTo,
			})
		}
	}, 5*time.Second)
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2Payload(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

// Dummy actor used by tests: counts what would have been published without
// touching a broker.
func NewTestMQTTActor(config *config.Config, es *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: es,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.subscribeToSnapshots(ctx)
	case *actor.Stopping:
		if state.eventStreamSub != nil {
			state.eventStream.Unsubscribe(state.eventStreamSub)
			state.eventStreamSub = nil
		}
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishSnapshotRequest:
		state.logger.Debug("mqtt@dummy PublishSnapshotRequest", zap.Uint64("cycle", msg.Snapshot.Cycle))
		if ctx.Sender() != nil {
			ctx.Respond(domain.PublishSnapshotResponse{
				Published: len(msg.Snapshot.Entities),
			})
		}
	}
}
