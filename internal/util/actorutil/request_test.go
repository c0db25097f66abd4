package actorutil

import (
	"testing"

	"solix2prom/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

func TestRequestReplyToPrefersExplicitRef(t *testing.T) {
	pid := actor.NewPID("nonhost", "sink")
	req := domain.FetchFleetRequest{
		ActorRequestMixIn: domain.ActorRequestMixIn{ReplyToRef: pid},
	}

	assert.Same(t, pid, ForRequest(req).ReplyTo(nil))
}
