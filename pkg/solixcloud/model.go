package solixcloud

import "context"

// Record is one site or device as the cloud reports it: identity, a category
// tag, a data-validity indicator and the raw attribute payload. Payload
// shape varies by device type, hardware generation and firmware.
type Record struct {
	ID       string
	SiteID   string
	Name     string
	Category string
	Valid    bool
	Fields   map[string]any
}

// Fleet is the result of one full account query.
type Fleet struct {
	Sites   []Record
	Devices []Record
}

// AccountAPI is the operation set the exporter needs from the cloud.
type AccountAPI interface {
	// Login establishes an authenticated session. The session is reused by
	// later calls until the cloud rejects it.
	Login(ctx context.Context) error
	// Fleet fetches the current sites and devices. Returns ErrUnauthorized
	// (possibly wrapped) when the session is missing or expired.
	Fleet(ctx context.Context) (*Fleet, error)
}

// Device categories as reported in the upstream "type" attribute.
const (
	CategorySite       = "site"
	CategorySolarbank  = "solarbank"
	CategoryInverter   = "inverter"
	CategorySmartMeter = "smartmeter"
	CategorySmartPlug  = "smartplug"
)
