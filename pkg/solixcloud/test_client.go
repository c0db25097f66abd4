package solixcloud

import (
	"context"
	"sync/atomic"
)

// TestClient is a canned AccountAPI for tests: a small fixed fleet plus
// injectable failures and call counters.
type TestClient struct {
	LoginErr error
	FleetErr error
	// FleetFn overrides the canned fleet when set.
	FleetFn func() (*Fleet, error)

	loginCalls atomic.Int32
	fleetCalls atomic.Int32
}

func (t *TestClient) Login(ctx context.Context) error {
	t.loginCalls.Add(1)
	return t.LoginErr
}

func (t *TestClient) Fleet(ctx context.Context) (*Fleet, error) {
	t.fleetCalls.Add(1)
	if t.FleetErr != nil {
		return nil, t.FleetErr
	}
	if t.FleetFn != nil {
		return t.FleetFn()
	}
	return TestFleet(), nil
}

func (t *TestClient) LoginCalls() int {
	return int(t.loginCalls.Load())
}

func (t *TestClient) FleetCalls() int {
	return int(t.fleetCalls.Load())
}

// TestFleet is one site with a solarbank, a smart meter and a smart plug.
func TestFleet() *Fleet {
	return &Fleet{
		Sites: []Record{
			{
				ID:       "site-1",
				Name:     "Home",
				Category: CategorySite,
				Valid:    true,
				Fields: map[string]any{
					"site_id":         "site-1",
					"home_load_power": 433.0,
					"retain_load":     "200 W",
					"data_valid":      true,
					"solarbank_info": map[string]any{
						"to_home_load":             "312",
						"total_photovoltaic_power": 540.0,
						"total_output_power":       "312.00",
						"total_charging_power":     "-228.00",
						"total_battery_power":      0.87,
						"updated_time":             "2024-05-01 10:30:00",
					},
					"smart_plug_info": map[string]any{
						"total_power": "55",
					},
					"statistics": []any{
						map[string]any{"type": "1", "total": "1234.5", "unit": "kwh"},
						map[string]any{"type": "3", "total": "56.7"},
					},
					"site_details": map[string]any{
						"price":      0.31,
						"price_type": "fixed",
					},
				},
			},
		},
		Devices: []Record{
			{
				ID:       "sb-1",
				SiteID:   "site-1",
				Name:     "Solarbank E1600",
				Category: CategorySolarbank,
				Valid:    true,
				Fields: map[string]any{
					"device_sn":        "sb-1",
					"device_pn":        "A17C0",
					"generation":       "1",
					"sw_version":       "1.5.6",
					"battery_soc":      "87",
					"charging_power":   "-228",
					"input_power":      "540",
					"output_power":     "312",
					"charging_status":  "charge",
					"wifi_signal":      "86",
					"battery_capacity": 1600.0,
					"data_valid":       true,
				},
			},
			{
				ID:       "sm-1",
				SiteID:   "site-1",
				Name:     "Smart Meter",
				Category: CategorySmartMeter,
				Valid:    true,
				Fields: map[string]any{
					"device_sn":                  "sm-1",
					"device_pn":                  "A17X7",
					"grid_to_home_power":         "121",
					"photovoltaic_to_grid_power": "0",
					"grid_status":                "on_grid",
					"data_valid":                 true,
				},
			},
			{
				ID:       "sp-1",
				SiteID:   "site-1",
				Name:     "Smart Plug",
				Category: CategorySmartPlug,
				Valid:    true,
				Fields: map[string]any{
					"device_sn":     "sp-1",
					"device_pn":     "A17X8",
					"current_power": "55",
					"energy_today":  0.42,
					"wifi_online":   true,
					"data_valid":    true,
				},
			},
		},
	}
}
