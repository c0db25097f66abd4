package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solix2prom/internal/core/domain"
	"solix2prom/internal/core/port"
	"solix2prom/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// CloudActor owns the authenticated upstream session. Fetches run under a
// timeout so a hung upstream can only hold the mailbox for a bounded time;
// at most one fetch is in flight, and requests arriving meanwhile are
// stashed.
type CloudActor struct {
	behavior      actor.Behavior
	stash         *actorutil.Stash
	client        port.UpstreamClient
	fetchTimeout  time.Duration
	authenticated bool
	logger        *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewCloudActor(client port.UpstreamClient, fetchTimeout time.Duration, log *zap.Logger) *CloudActor {
	act := &CloudActor{
		client:       client,
		fetchTimeout: fetchTimeout,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_CLOUD, log),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *CloudActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *CloudActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("cloud@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CLOUD,
			Healthy: true,
			State:   "idle",
		})
	case domain.FetchFleetRequest:
		state.logger.Debug("cloud@default FetchFleetRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.fetchFleet),
			mapTaskResult[domain.FetchFleetResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.FetchFleetResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: &domain.FetchError{Cause: err},
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.fetchTimeout + time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	default:
		state.logger.Debug("cloud@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *CloudActor) WaitingCloud(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("cloud@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if resp, ok := msg.message.(domain.FetchFleetResponse); ok {
			state.noteOutcome(resp)
		}
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("cloud@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// noteOutcome tracks session state: an auth failure forces a fresh login on
// the next fetch, a success marks the session reusable.
func (state *CloudActor) noteOutcome(resp domain.FetchFleetResponse) {
	if !resp.HasResponseError() {
		state.authenticated = true
		return
	}
	var authErr *domain.AuthError
	if errors.As(resp.GetResponseError(), &authErr) {
		state.authenticated = false
	}
}

func (a *CloudActor) fetchFleet() (*domain.FetchFleetResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.fetchTimeout)
	defer cancel()

	if !a.authenticated {
		if err := a.client.Authenticate(ctx); err != nil {
			logger.Error(err)
			return &domain.FetchFleetResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}, nil
		}
	}
	entities, err := a.client.ListSitesAndDevices(ctx)
	if err != nil {
		logger.Error(err)
		return &domain.FetchFleetResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}, nil
	}
	return &domain.FetchFleetResponse{
		Entities: entities,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
