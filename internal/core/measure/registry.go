// Package measure declares the fixed catalog of measurements the exporter
// can produce. The catalog is decided at design time; normalizers may only
// emit names registered here, which is verified once at startup.
package measure

import "fmt"

// Site measurements
const (
	SITE_HOME_LOAD_POWER         = "solix_site_home_load_power_watts"
	SITE_TO_HOME_LOAD_POWER      = "solix_site_to_home_load_power_watts"
	SITE_TOTAL_PV_POWER          = "solix_site_total_pv_power_watts"
	SITE_TOTAL_OUTPUT_POWER      = "solix_site_total_output_power_watts"
	SITE_TOTAL_CHARGING_POWER    = "solix_site_total_charging_power_watts"
	SITE_BATTERY_DISCHARGE_POWER = "solix_site_battery_discharge_power_watts"
	SITE_SMART_PLUGS_TOTAL_POWER = "solix_site_smart_plugs_total_power_watts"
	SITE_OTHER_LOADS_POWER       = "solix_site_other_loads_power_watts"
	SITE_RETAIN_LOAD_PRESET      = "solix_site_retain_load_preset_watts"
	SITE_TOTAL_BATTERY_SOC       = "solix_site_total_battery_soc_percent"
	SITE_SOLARBANKS_CASCADED     = "solix_site_solarbanks_cascaded"
	SITE_DATA_VALID              = "solix_site_data_valid"
	SITE_UPDATED_TIMESTAMP       = "solix_site_updated_timestamp_seconds"
	SITE_ENERGY_PRODUCED         = "solix_site_energy_produced_kwh_total"
	SITE_TOTAL_SAVINGS           = "solix_site_total_savings_money"
	SITE_PRICE                   = "solix_site_price"
)

// Device measurements
const (
	DEVICE_INFO                  = "solix_device_info"
	DEVICE_BATTERY_SOC           = "solix_device_battery_soc_percent"
	DEVICE_BATTERY_ENERGY        = "solix_device_battery_energy_wh"
	DEVICE_BATTERY_CAPACITY      = "solix_device_battery_capacity_wh"
	DEVICE_INPUT_POWER           = "solix_device_input_power_watts"
	DEVICE_OUTPUT_POWER          = "solix_device_output_power_watts"
	DEVICE_BATTERY_POWER         = "solix_device_battery_power_watts"
	DEVICE_BAT_CHARGE_POWER      = "solix_device_bat_charge_power_watts"
	DEVICE_AC_POWER              = "solix_device_ac_power_watts"
	DEVICE_MICRO_INV_POWER       = "solix_device_micro_inverter_power_watts"
	DEVICE_MICRO_INV_POWER_LIMIT = "solix_device_micro_inverter_power_limit_watts"
	DEVICE_MICRO_INV_LOW_LIMIT   = "solix_device_micro_inverter_low_power_limit_watts"
	DEVICE_GRID_IMPORT_POWER     = "solix_device_grid_import_power_watts"
	DEVICE_GRID_EXPORT_POWER     = "solix_device_grid_export_power_watts"
	DEVICE_GRID_TO_BATTERY_POWER = "solix_device_grid_to_battery_power_watts"
	DEVICE_PLUG_POWER            = "solix_device_plug_power_watts"
	DEVICE_ENERGY_TODAY          = "solix_device_energy_today_kwh"
	DEVICE_SOLAR_POWER_1         = "solix_device_solar_power_1_watts"
	DEVICE_SOLAR_POWER_2         = "solix_device_solar_power_2_watts"
	DEVICE_SOLAR_POWER_3         = "solix_device_solar_power_3_watts"
	DEVICE_SOLAR_POWER_4         = "solix_device_solar_power_4_watts"
	DEVICE_AC_PORT_POWER         = "solix_device_ac_port_power_watts"
	DEVICE_OTHER_INPUT_POWER     = "solix_device_other_input_power_watts"
	DEVICE_HEATING_POWER         = "solix_device_pei_heating_power_watts"
	DEVICE_SET_OUTPUT_POWER      = "solix_device_set_output_power_watts"
	DEVICE_SET_SYS_OUTPUT_POWER  = "solix_device_set_system_output_power_watts"
	DEVICE_WIFI_SIGNAL           = "solix_device_wifi_signal_percent"
	DEVICE_WIFI_RSSI             = "solix_device_wifi_rssi_dbm"
	DEVICE_WIFI_ONLINE           = "solix_device_wifi_online"
	DEVICE_WIRED_CONNECTED       = "solix_device_wired_connected"
	DEVICE_STATUS_CODE           = "solix_device_status_code"
	DEVICE_CHARGING_STATUS_CODE  = "solix_device_charging_status_code"
	DEVICE_GRID_STATUS_CODE      = "solix_device_grid_status_code"
	DEVICE_DATA_VALID            = "solix_device_data_valid"
	DEVICE_IS_OTA_UPDATE         = "solix_device_is_ota_update"
	DEVICE_AUTO_UPGRADE          = "solix_device_auto_upgrade"
	DEVICE_SUB_PACKAGE_NUM       = "solix_device_sub_package_num"
)

type Measurement struct {
	Name string
	Unit string
	Help string
}

var catalog = []Measurement{
	{SITE_HOME_LOAD_POWER, "W", "Current site home load power"},
	{SITE_TO_HOME_LOAD_POWER, "W", "Power from Solarbank to home load"},
	{SITE_TOTAL_PV_POWER, "W", "Total photovoltaic power of Solarbank(s)"},
	{SITE_TOTAL_OUTPUT_POWER, "W", "Total AC output power of Solarbank(s)"},
	{SITE_TOTAL_CHARGING_POWER, "W", "Total charging power to Solarbank batteries (negative when discharging)"},
	{SITE_BATTERY_DISCHARGE_POWER, "W", "Battery discharge power total"},
	{SITE_SMART_PLUGS_TOTAL_POWER, "W", "Total power of smart plugs in site"},
	{SITE_OTHER_LOADS_POWER, "W", "Other loads (planned) power"},
	{SITE_RETAIN_LOAD_PRESET, "W", "Site retain load preset"},
	{SITE_TOTAL_BATTERY_SOC, "%", "Total Solarbank state-of-charge"},
	{SITE_SOLARBANKS_CASCADED, "", "Whether multiple Solarbank generations are cascaded (1) or not (0)"},
	{SITE_DATA_VALID, "", "Whether site data is valid (1) or not (0)"},
	{SITE_UPDATED_TIMESTAMP, "s", "Last upstream update of site info as seconds since the epoch"},
	{SITE_ENERGY_PRODUCED, "kWh", "Total energy produced by the site"},
	{SITE_TOTAL_SAVINGS, "", "Total monetary savings/revenue for the site"},
	{SITE_PRICE, "", "Site energy price"},
	{DEVICE_INFO, "", "Static info about the device (always 1)"},
	{DEVICE_BATTERY_SOC, "%", "Device battery state-of-charge"},
	{DEVICE_BATTERY_ENERGY, "Wh", "Device battery energy"},
	{DEVICE_BATTERY_CAPACITY, "Wh", "Battery capacity"},
	{DEVICE_INPUT_POWER, "W", "Device input (PV) power"},
	{DEVICE_OUTPUT_POWER, "W", "Device output (AC/home load) power"},
	{DEVICE_BATTERY_POWER, "W", "Battery net power. Positive = discharge, negative = charge"},
	{DEVICE_BAT_CHARGE_POWER, "W", "Battery charge power"},
	{DEVICE_AC_POWER, "W", "Inverter AC generation power"},
	{DEVICE_MICRO_INV_POWER, "W", "Micro-inverter power"},
	{DEVICE_MICRO_INV_POWER_LIMIT, "W", "Micro-inverter power limit"},
	{DEVICE_MICRO_INV_LOW_LIMIT, "W", "Micro-inverter low power limit"},
	{DEVICE_GRID_IMPORT_POWER, "W", "Grid import power to home"},
	{DEVICE_GRID_EXPORT_POWER, "W", "Photovoltaic export power to grid"},
	{DEVICE_GRID_TO_BATTERY_POWER, "W", "Grid to battery power"},
	{DEVICE_PLUG_POWER, "W", "Smart plug current power"},
	{DEVICE_ENERGY_TODAY, "kWh", "Device energy today"},
	{DEVICE_SOLAR_POWER_1, "W", "PV string 1 power"},
	{DEVICE_SOLAR_POWER_2, "W", "PV string 2 power"},
	{DEVICE_SOLAR_POWER_3, "W", "PV string 3 power"},
	{DEVICE_SOLAR_POWER_4, "W", "PV string 4 power"},
	{DEVICE_AC_PORT_POWER, "W", "AC port output power"},
	{DEVICE_OTHER_INPUT_POWER, "W", "Other input power"},
	{DEVICE_HEATING_POWER, "W", "PEI heating power"},
	{DEVICE_SET_OUTPUT_POWER, "W", "Device preset output power"},
	{DEVICE_SET_SYS_OUTPUT_POWER, "W", "System preset output power"},
	{DEVICE_WIFI_SIGNAL, "%", "WiFi signal strength"},
	{DEVICE_WIFI_RSSI, "dBm", "WiFi RSSI"},
	{DEVICE_WIFI_ONLINE, "", "WiFi connectivity (1 online, 0 offline)"},
	{DEVICE_WIRED_CONNECTED, "", "Wired connection present (1 yes, 0 no)"},
	{DEVICE_STATUS_CODE, "", "Device status code"},
	{DEVICE_CHARGING_STATUS_CODE, "", "Charging status code"},
	{DEVICE_GRID_STATUS_CODE, "", "Grid status code"},
	{DEVICE_DATA_VALID, "", "Whether device data is valid (1) or not (0)"},
	{DEVICE_IS_OTA_UPDATE, "", "OTA update available (1) or not (0)"},
	{DEVICE_AUTO_UPGRADE, "", "Auto upgrade enabled (1) or disabled (0)"},
	{DEVICE_SUB_PACKAGE_NUM, "", "Number of battery sub packages"},
}

var byName = func() map[string]Measurement {
	m := make(map[string]Measurement, len(catalog))
	for _, meas := range catalog {
		m[meas.Name] = meas
	}
	return m
}()

func Lookup(name string) (Measurement, bool) {
	m, ok := byName[name]
	return m, ok
}

func AllNames() []string {
	names := make([]string, 0, len(catalog))
	for _, m := range catalog {
		names = append(names, m.Name)
	}
	return names
}

// CheckRegistered verifies that every given measurement name is part of the
// catalog. A normalizer emitting an unregistered name is a programming
// error, surfaced at startup rather than at scrape time.
func CheckRegistered(names []string) error {
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return fmt.Errorf("measurement %q is not registered", n)
		}
	}
	return nil
}
