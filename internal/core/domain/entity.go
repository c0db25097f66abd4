package domain

import "strconv"

// Category selects the normalizer that applies to a raw entity. It is fixed
// for the lifetime of an entity within a run.
type Category string

const (
	CategorySite       Category = "site"
	CategorySolarbank  Category = "solarbank"
	CategoryInverter   Category = "inverter"
	CategorySmartMeter Category = "smartmeter"
	CategorySmartPlug  Category = "smartplug"
)

func (c Category) IsDevice() bool {
	return c != CategorySite
}

// RawEntity is one site or device record as returned by the upstream account
// API: a category tag, a validity indicator and an otherwise opaque payload.
// Field presence and field types vary by device hardware and firmware
// revision, so nothing beyond the tag and the indicator is assumed here.
type RawEntity struct {
	ID       string
	SiteID   string
	Name     string
	Category Category
	Valid    bool
	Fields   map[string]any
}

// EntityInfo is the stable identity of an entity carried into snapshots and
// exposed as metric labels.
type EntityInfo struct {
	ID         string
	SiteID     string
	Name       string
	Category   Category
	Model      string
	Generation string
	SWVersion  string
}

func (r RawEntity) Info() EntityInfo {
	info := EntityInfo{
		ID:       r.ID,
		SiteID:   r.SiteID,
		Name:     r.Name,
		Category: r.Category,
	}
	if model, ok := r.Fields["device_pn"].(string); ok {
		info.Model = model
	}
	switch gen := r.Fields["generation"].(type) {
	case string:
		info.Generation = gen
	case float64:
		info.Generation = strconv.Itoa(int(gen))
	case int:
		info.Generation = strconv.Itoa(gen)
	}
	if sw, ok := r.Fields["sw_version"].(string); ok {
		info.SWVersion = sw
	}
	return info
}
