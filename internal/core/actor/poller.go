package actor

import (
	"fmt"
	"time"

	"solix2prom/internal/config"
	"solix2prom/internal/core/domain"
	"solix2prom/internal/core/normalize"
	"solix2prom/internal/core/snapshot"
	"solix2prom/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PollerActor drives the refresh loop: ask the cloud actor for the fleet,
// normalize every entity independently, assemble the next snapshot and
// install it. Ticks never overlap: the next one is only scheduled once the
// current cycle has finished, and stray ticks arriving mid-cycle are dropped.
type PollerActor struct {
	config      *config.Config
	behavior    actor.Behavior
	cloudActor  *actor.PID
	store       *snapshot.Store
	normalizer  *normalize.Normalizer
	eventStream *eventstream.EventStream
	scheduler   *scheduler.TimerScheduler
	cycle       uint64
	failures    uint
	logger      *zap.Logger
}

type pollTick struct {
}

func NewPollerActor(config *config.Config, cloudActor *actor.PID, store *snapshot.Store,
	normalizer *normalize.Normalizer, es *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		cloudActor:  cloudActor,
		store:       store,
		normalizer:  normalizer,
		eventStream: es,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_POLLER, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@default started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		ctx.Send(ctx.Self(), pollTick{})
	case pollTick:
		state.logger.Debug("poller@default pollTick")
		actorutil.PipeToSelfWithRecover(ctx,
			ctx.RequestFuture(state.cloudActor, domain.FetchFleetRequest{}, state.config.Poll.FetchTimeout()+2*time.Second),
			func(err error) any {
				return domain.FetchFleetResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: &domain.FetchError{Cause: err},
					},
				}
			})
		state.behavior.BecomeStacked(state.WaitingFetch)
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   state.stateString("idle"),
		})
	default:
		state.logger.Debug("poller@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) WaitingFetch(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case pollTick:
		// a cycle is already in progress
		state.logger.Debug("poller@waiting tick dropped")
	case domain.FetchFleetResponse:
		state.behavior.UnbecomeStacked()
		if msg.HasResponseError() {
			state.failures++
			delay := state.backoffDelay()
			state.logger.Warn("poller@waiting refresh failed",
				zap.Error(msg.GetResponseError()),
				zap.Uint("consecutiveFailures", state.failures),
				zap.Duration("retryIn", delay))
			state.scheduler.RequestOnce(delay, ctx.Self(), pollTick{})
			return
		}
		state.runCycle(msg.Entities)
		state.failures = 0
		state.scheduler.RequestOnce(state.config.Poll.Interval(), ctx.Self(), pollTick{})
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@waiting ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   state.stateString("refreshing"),
		})
	default:
		state.logger.Debug("poller@waiting default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) runCycle(entities []domain.RawEntity) {
	state.cycle++
	taken := time.Now()

	results := make([]snapshot.EntityResult, 0, len(entities))
	var failed int
	for _, raw := range entities {
		readings, err := state.normalizer.Entity(raw)
		if err != nil {
			state.logger.Warn("poller: entity normalization failed",
				zap.String("entity", raw.ID), zap.Error(err))
		}
		res := snapshot.EntityResult{
			Info:     raw.Info(),
			Valid:    raw.Valid,
			Readings: readings,
			Err:      err,
		}
		if res.Failed() {
			failed++
		}
		results = append(results, res)
	}

	snap := snapshot.Build(state.store.Current(), state.cycle, taken, results, state.config.Poll.GraceCycles)
	state.store.Install(snap)
	state.eventStream.Publish(domain.SnapshotInstalledEvent{Snapshot: snap})

	state.logger.Info("poller: snapshot installed",
		zap.Uint64("cycle", state.cycle),
		zap.Int("entities", len(snap.Entities)),
		zap.Int("failed", failed))
}

// backoffDelay doubles the base interval per consecutive failure, up to the
// configured cap.
func (state *PollerActor) backoffDelay() time.Duration {
	delay := state.config.Poll.Interval()
	limit := state.config.Poll.BackoffCap()
	for i := uint(0); i < state.failures; i++ {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}

func (state *PollerActor) stateString(phase string) string {
	return fmt.Sprintf("%s cycle=%d failures=%d", phase, state.cycle, state.failures)
}
