package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorRequestMixIn is embedded by every request message. ReplyToRef routes
// the response somewhere other than the sender, for fan-out patterns where
// the requester is not the consumer; when nil, responses go to the sender.
type ActorRequestMixIn struct {
	ReplyToRef *actor.PID
}

type ActorRequest interface {
	ReplyTo() *actor.PID
}

func (r ActorRequestMixIn) ReplyTo() *actor.PID {
	return r.ReplyToRef
}

// ActorResponseMixIn carries the error channel of a response message, so a
// single response type can report both success and failure of an operation.
type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}
