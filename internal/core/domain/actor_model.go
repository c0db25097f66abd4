package domain

const (
	ACTOR_ID_MASTER = "master"
	ACTOR_ID_CLOUD  = "cloud"
	ACTOR_ID_POLLER = "poller"
	ACTOR_ID_MQTT   = "mqtt"
)

// FetchFleetRequest asks the cloud adapter for the current site and device
// list, authenticating (or re-authenticating) first if needed.
type FetchFleetRequest struct {
	ActorRequestMixIn
}

type FetchFleetResponse struct {
	ActorResponseMixIn
	Entities []RawEntity
}

// PublishSnapshotRequest hands a freshly installed snapshot to the push
// publisher. Delivery is best effort and never affects the snapshot.
type PublishSnapshotRequest struct {
	ActorRequestMixIn
	Snapshot *Snapshot
}

type PublishSnapshotResponse struct {
	ActorResponseMixIn
	Published int
	Failed    int
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
