package server

import (
	"strings"
	"testing"
	"time"

	"solix2prom/internal/core/domain"
	"solix2prom/internal/core/measure"
	"solix2prom/internal/core/snapshot"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot() *domain.Snapshot {
	return snapshot.Build(nil, 1, time.Now(), []snapshot.EntityResult{
		{
			Info: domain.EntityInfo{
				ID:       "site-1",
				Name:     "Home",
				Category: domain.CategorySite,
			},
			Valid: true,
			Readings: map[string]float64{
				measure.SITE_HOME_LOAD_POWER: 433,
			},
		},
		{
			Info: domain.EntityInfo{
				ID:         "sb-1",
				SiteID:     "site-1",
				Name:       "Solarbank",
				Category:   domain.CategorySolarbank,
				Model:      "A17C0",
				Generation: "1",
				SWVersion:  "1.5.6",
			},
			Valid: true,
			Readings: map[string]float64{
				measure.DEVICE_BATTERY_SOC: 87,
			},
		},
	}, 3)
}

func TestCollectorEmptyStore(t *testing.T) {
	store := snapshot.NewStore()
	c := NewSnapshotCollector(store, zap.NewNop())

	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCollectorRendersSnapshot(t *testing.T) {
	store := snapshot.NewStore()
	store.Install(testSnapshot())
	c := NewSnapshotCollector(store, zap.NewNop())

	expected := `
# HELP solix_device_battery_soc_percent Device battery state-of-charge
# TYPE solix_device_battery_soc_percent gauge
solix_device_battery_soc_percent{device_sn="sb-1",name="Solarbank",site_id="site-1",type="solarbank"} 87
# HELP solix_device_data_valid Whether device data is valid (1) or not (0)
# TYPE solix_device_data_valid gauge
solix_device_data_valid{device_sn="sb-1",name="Solarbank",site_id="site-1",type="solarbank"} 1
# HELP solix_device_info Static info about the device (always 1)
# TYPE solix_device_info gauge
solix_device_info{device_sn="sb-1",generation="1",model="A17C0",name="Solarbank",site_id="site-1",sw_version="1.5.6",type="solarbank"} 1
# HELP solix_site_data_valid Whether site data is valid (1) or not (0)
# TYPE solix_site_data_valid gauge
solix_site_data_valid{site_id="site-1",site_name="Home"} 1
# HELP solix_site_home_load_power_watts Current site home load power
# TYPE solix_site_home_load_power_watts gauge
solix_site_home_load_power_watts{site_id="site-1",site_name="Home"} 433
# HELP solix_snapshot_cycle Sequence number of the currently exported refresh cycle
# TYPE solix_snapshot_cycle gauge
solix_snapshot_cycle 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"solix_device_battery_soc_percent",
		"solix_device_data_valid",
		"solix_device_info",
		"solix_site_data_valid",
		"solix_site_home_load_power_watts",
		"solix_snapshot_cycle")
	require.NoError(t, err)
}

func TestCollectorMarksCarriedForwardInvalid(t *testing.T) {
	store := snapshot.NewStore()
	prev := testSnapshot()
	next := snapshot.Build(prev, 2, time.Now(), []snapshot.EntityResult{
		{
			Info: domain.EntityInfo{
				ID:       "sb-1",
				SiteID:   "site-1",
				Name:     "Solarbank",
				Category: domain.CategorySolarbank,
			},
			Valid: false,
		},
	}, 3)
	store.Install(next)
	c := NewSnapshotCollector(store, zap.NewNop())

	expected := `
# HELP solix_device_battery_soc_percent Device battery state-of-charge
# TYPE solix_device_battery_soc_percent gauge
solix_device_battery_soc_percent{device_sn="sb-1",name="Solarbank",site_id="site-1",type="solarbank"} 87
# HELP solix_device_data_valid Whether device data is valid (1) or not (0)
# TYPE solix_device_data_valid gauge
solix_device_data_valid{device_sn="sb-1",name="Solarbank",site_id="site-1",type="solarbank"} 0
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"solix_device_battery_soc_percent",
		"solix_device_data_valid")
	require.NoError(t, err)
}
