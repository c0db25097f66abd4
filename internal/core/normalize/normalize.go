// Package normalize maps raw, type-dependent upstream payloads to partial
// sets of registered measurements. Each category has its own pure mapping;
// absent or malformed fields are skipped per field and never abort the rest
// of an entity or the batch.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"solix2prom/internal/core/domain"
	"solix2prom/internal/core/measure"

	"go.uber.org/zap"
)

// solarbankTimeLayout is the format of solarbank_info.updated_time.
const solarbankTimeLayout = "2006-01-02 15:04:05"

// CodeUnrecognized is the reserved status code for string values outside the
// known enumeration. Dashboards see an explicit signal instead of a gap.
const CodeUnrecognized = 99

var chargingStatusCodes = map[string]float64{
	"detection":  0,
	"charge":     1,
	"discharge":  2,
	"bypass":     3,
	"standby":    4,
	"full":       5,
	"wait":       6,
	"protection": 7,
}

var gridStatusCodes = map[string]float64{
	"off_grid": 0,
	"on_grid":  1,
	"unknown":  2,
}

type Normalizer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger.Named("normalize")}
}

// Entity converts one raw record into measurement values. An error is
// returned only when the payload cannot be normalized at all (unknown
// category, missing payload); the scheduler then falls back to the entity's
// previous readings.
func (n *Normalizer) Entity(raw domain.RawEntity) (map[string]float64, error) {
	if raw.Fields == nil {
		return nil, fmt.Errorf("entity %s: no payload", raw.ID)
	}
	out := make(map[string]float64)
	switch raw.Category {
	case domain.CategorySite:
		n.site(raw, out)
	case domain.CategorySolarbank:
		n.commonDevice(raw, out)
		n.solarbank(raw, out)
	case domain.CategoryInverter:
		n.commonDevice(raw, out)
		n.inverter(raw, out)
	case domain.CategorySmartMeter:
		n.commonDevice(raw, out)
		n.smartMeter(raw, out)
	case domain.CategorySmartPlug:
		n.commonDevice(raw, out)
		n.smartPlug(raw, out)
	default:
		return nil, fmt.Errorf("entity %s: unknown category %q", raw.ID, raw.Category)
	}
	return out, nil
}

func (n *Normalizer) site(raw domain.RawEntity, out map[string]float64) {
	f := raw.Fields
	n.num(raw, f, "home_load_power", measure.SITE_HOME_LOAD_POWER, out)
	n.num(raw, f, "other_loads_power", measure.SITE_OTHER_LOADS_POWER, out)
	n.num(raw, f, "retain_load", measure.SITE_RETAIN_LOAD_PRESET, out)
	n.statistics(raw, f, out)

	sd := subFields(f, "site_details")
	n.num(raw, sd, "price", measure.SITE_PRICE, out)

	sb := subFields(f, "solarbank_info")
	n.updatedTime(raw, sb, out)
	n.num(raw, sb, "to_home_load", measure.SITE_TO_HOME_LOAD_POWER, out)
	n.num(raw, sb, "total_photovoltaic_power", measure.SITE_TOTAL_PV_POWER, out)
	n.num(raw, sb, "total_output_power", measure.SITE_TOTAL_OUTPUT_POWER, out)
	n.num(raw, sb, "total_charging_power", measure.SITE_TOTAL_CHARGING_POWER, out)
	n.num(raw, sb, "battery_discharge_power", measure.SITE_BATTERY_DISCHARGE_POWER, out)
	// total_battery_power is reported as a 0..1 fraction
	if v, ok := n.field(raw, sb, "total_battery_power"); ok {
		out[measure.SITE_TOTAL_BATTERY_SOC] = clampPercent(v * 100)
	}
	n.flag(raw, sb, "sb_cascaded", measure.SITE_SOLARBANKS_CASCADED, out)

	sp := subFields(f, "smart_plug_info")
	n.num(raw, sp, "total_power", measure.SITE_SMART_PLUGS_TOTAL_POWER, out)
}

// statistics carries lifetime site aggregates as typed entries: type "1" is
// energy produced (in Wh or kWh depending on the unit field), type "3" is
// monetary savings.
func (n *Normalizer) statistics(raw domain.RawEntity, f map[string]any, out map[string]float64) {
	stats, _ := f["statistics"].([]any)
	for _, item := range stats {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := entry["type"].(string)
		switch typ {
		case "1":
			if v, ok := n.field(raw, entry, "total"); ok {
				if unit, _ := entry["unit"].(string); strings.EqualFold(unit, "wh") {
					v /= 1000
				}
				out[measure.SITE_ENERGY_PRODUCED] = v
			}
		case "3":
			n.num(raw, entry, "total", measure.SITE_TOTAL_SAVINGS, out)
		}
	}
}

// updatedTime converts the solarbank_info datetime string to epoch seconds.
func (n *Normalizer) updatedTime(raw domain.RawEntity, sb map[string]any, out map[string]float64) {
	if sb == nil {
		return
	}
	value, present := sb["updated_time"]
	if !present || value == nil {
		return
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return
	}
	t, err := time.Parse(solarbankTimeLayout, s)
	if err != nil {
		n.logger.Warn("skipping malformed field",
			zap.String("entity", raw.ID),
			zap.String("category", string(raw.Category)),
			zap.Error(&domain.FieldError{Field: "updated_time", Value: value}))
		return
	}
	out[measure.SITE_UPDATED_TIMESTAMP] = float64(t.Unix())
}

func (n *Normalizer) commonDevice(raw domain.RawEntity, out map[string]float64) {
	f := raw.Fields
	n.code(raw, f, "status", measure.DEVICE_STATUS_CODE, nil, out)
	n.percent(raw, f, "wifi_signal", measure.DEVICE_WIFI_SIGNAL, out)
	n.num(raw, f, "rssi", measure.DEVICE_WIFI_RSSI, out)
	n.flag(raw, f, "wifi_online", measure.DEVICE_WIFI_ONLINE, out)
	n.flag(raw, f, "wired_connected", measure.DEVICE_WIRED_CONNECTED, out)
	n.flag(raw, f, "is_ota_update", measure.DEVICE_IS_OTA_UPDATE, out)
	n.flag(raw, f, "auto_upgrade", measure.DEVICE_AUTO_UPGRADE, out)
	n.num(raw, f, "energy_today", measure.DEVICE_ENERGY_TODAY, out)
}

func (n *Normalizer) solarbank(raw domain.RawEntity, out map[string]float64) {
	f := raw.Fields
	n.percent(raw, f, "battery_soc", measure.DEVICE_BATTERY_SOC, out)
	n.num(raw, f, "battery_energy", measure.DEVICE_BATTERY_ENERGY, out)
	n.num(raw, f, "battery_capacity", measure.DEVICE_BATTERY_CAPACITY, out)
	n.num(raw, f, "input_power", measure.DEVICE_INPUT_POWER, out)
	n.num(raw, f, "output_power", measure.DEVICE_OUTPUT_POWER, out)
	// signed: positive = discharge to AC, negative = charge
	n.num(raw, f, "charging_power", measure.DEVICE_BATTERY_POWER, out)
	n.num(raw, f, "bat_charge_power", measure.DEVICE_BAT_CHARGE_POWER, out)
	n.num(raw, f, "solar_power_1", measure.DEVICE_SOLAR_POWER_1, out)
	n.num(raw, f, "solar_power_2", measure.DEVICE_SOLAR_POWER_2, out)
	n.num(raw, f, "solar_power_3", measure.DEVICE_SOLAR_POWER_3, out)
	n.num(raw, f, "solar_power_4", measure.DEVICE_SOLAR_POWER_4, out)
	n.num(raw, f, "ac_power", measure.DEVICE_AC_PORT_POWER, out)
	n.num(raw, f, "other_input_power", measure.DEVICE_OTHER_INPUT_POWER, out)
	n.num(raw, f, "grid_to_battery_power", measure.DEVICE_GRID_TO_BATTERY_POWER, out)
	n.num(raw, f, "pei_heating_power", measure.DEVICE_HEATING_POWER, out)
	n.num(raw, f, "set_output_power", measure.DEVICE_SET_OUTPUT_POWER, out)
	n.num(raw, f, "set_system_output_power", measure.DEVICE_SET_SYS_OUTPUT_POWER, out)
	n.num(raw, f, "sub_package_num", measure.DEVICE_SUB_PACKAGE_NUM, out)
	n.code(raw, f, "charging_status", measure.DEVICE_CHARGING_STATUS_CODE, chargingStatusCodes, out)
}

func (n *Normalizer) inverter(raw domain.RawEntity, out map[string]float64) {
	f := raw.Fields
	n.num(raw, f, "generate_power", measure.DEVICE_AC_POWER, out)
	n.num(raw, f, "micro_inverter_power", measure.DEVICE_MICRO_INV_POWER, out)
	if _, ok := f["micro_inverter_power_limit"]; ok {
		n.num(raw, f, "micro_inverter_power_limit", measure.DEVICE_MICRO_INV_POWER_LIMIT, out)
	} else {
		n.num(raw, f, "preset_inverter_limit", measure.DEVICE_MICRO_INV_POWER_LIMIT, out)
	}
	n.num(raw, f, "micro_inverter_low_power_limit", measure.DEVICE_MICRO_INV_LOW_LIMIT, out)
}

func (n *Normalizer) smartMeter(raw domain.RawEntity, out map[string]float64) {
	f := raw.Fields
	n.num(raw, f, "grid_to_home_power", measure.DEVICE_GRID_IMPORT_POWER, out)
	n.num(raw, f, "photovoltaic_to_grid_power", measure.DEVICE_GRID_EXPORT_POWER, out)
	n.code(raw, f, "grid_status", measure.DEVICE_GRID_STATUS_CODE, gridStatusCodes, out)
}

func (n *Normalizer) smartPlug(raw domain.RawEntity, out map[string]float64) {
	n.num(raw, raw.Fields, "current_power", measure.DEVICE_PLUG_POWER, out)
}

// field coerces one payload value, logging and skipping malformed ones.
func (n *Normalizer) field(raw domain.RawEntity, fields map[string]any, key string) (float64, bool) {
	if fields == nil {
		return 0, false
	}
	value, present := fields[key]
	if !present || value == nil {
		return 0, false
	}
	f, ok := AsFloat(value)
	if !ok {
		ferr := &domain.FieldError{Field: key, Value: value}
		n.logger.Warn("skipping malformed field",
			zap.String("entity", raw.ID),
			zap.String("category", string(raw.Category)),
			zap.Error(ferr))
		return 0, false
	}
	return f, true
}

func (n *Normalizer) num(raw domain.RawEntity, fields map[string]any, key, name string, out map[string]float64) {
	if v, ok := n.field(raw, fields, key); ok {
		out[name] = v
	}
}

func (n *Normalizer) percent(raw domain.RawEntity, fields map[string]any, key, name string, out map[string]float64) {
	if v, ok := n.field(raw, fields, key); ok {
		out[name] = clampPercent(v)
	}
}

// flag emits 0/1 only when the field is present, so absent flags stay absent.
func (n *Normalizer) flag(raw domain.RawEntity, fields map[string]any, key, name string, out map[string]float64) {
	if fields == nil {
		return
	}
	value, present := fields[key]
	if !present || value == nil {
		return
	}
	if v, ok := AsFloat(value); ok {
		if v != 0 {
			out[name] = 1
		} else {
			out[name] = 0
		}
	}
}

// code maps status fields: numeric values pass through, known strings map via
// the enumeration, unknown strings become CodeUnrecognized.
func (n *Normalizer) code(raw domain.RawEntity, fields map[string]any, key, name string, enum map[string]float64, out map[string]float64) {
	if fields == nil {
		return
	}
	value, present := fields[key]
	if !present || value == nil {
		return
	}
	if v, ok := AsFloat(value); ok {
		out[name] = v
		return
	}
	if s, ok := value.(string); ok {
		if code, known := enum[s]; known {
			out[name] = code
		} else {
			n.logger.Warn("unrecognized status value",
				zap.String("entity", raw.ID),
				zap.String("field", key),
				zap.String("value", s))
			out[name] = CodeUnrecognized
		}
		return
	}
	n.logger.Warn("skipping malformed field",
		zap.String("entity", raw.ID),
		zap.String("category", string(raw.Category)),
		zap.Error(&domain.FieldError{Field: key, Value: value}))
}

// MeasurementNames lists every name any category mapping can emit. It is
// checked against the registry at startup.
func MeasurementNames() []string {
	return []string{
		measure.SITE_HOME_LOAD_POWER,
		measure.SITE_TO_HOME_LOAD_POWER,
		measure.SITE_TOTAL_PV_POWER,
		measure.SITE_TOTAL_OUTPUT_POWER,
		measure.SITE_TOTAL_CHARGING_POWER,
		measure.SITE_BATTERY_DISCHARGE_POWER,
		measure.SITE_SMART_PLUGS_TOTAL_POWER,
		measure.SITE_OTHER_LOADS_POWER,
		measure.SITE_RETAIN_LOAD_PRESET,
		measure.SITE_TOTAL_BATTERY_SOC,
		measure.SITE_SOLARBANKS_CASCADED,
		measure.SITE_UPDATED_TIMESTAMP,
		measure.SITE_ENERGY_PRODUCED,
		measure.SITE_TOTAL_SAVINGS,
		measure.SITE_PRICE,
		measure.DEVICE_BATTERY_SOC,
		measure.DEVICE_BATTERY_ENERGY,
		measure.DEVICE_BATTERY_CAPACITY,
		measure.DEVICE_INPUT_POWER,
		measure.DEVICE_OUTPUT_POWER,
		measure.DEVICE_BATTERY_POWER,
		measure.DEVICE_BAT_CHARGE_POWER,
		measure.DEVICE_AC_POWER,
		measure.DEVICE_MICRO_INV_POWER,
		measure.DEVICE_MICRO_INV_POWER_LIMIT,
		measure.DEVICE_MICRO_INV_LOW_LIMIT,
		measure.DEVICE_GRID_IMPORT_POWER,
		measure.DEVICE_GRID_EXPORT_POWER,
		measure.DEVICE_GRID_TO_BATTERY_POWER,
		measure.DEVICE_PLUG_POWER,
		measure.DEVICE_ENERGY_TODAY,
		measure.DEVICE_SOLAR_POWER_1,
		measure.DEVICE_SOLAR_POWER_2,
		measure.DEVICE_SOLAR_POWER_3,
		measure.DEVICE_SOLAR_POWER_4,
		measure.DEVICE_AC_PORT_POWER,
		measure.DEVICE_OTHER_INPUT_POWER,
		measure.DEVICE_HEATING_POWER,
		measure.DEVICE_SET_OUTPUT_POWER,
		measure.DEVICE_SET_SYS_OUTPUT_POWER,
		measure.DEVICE_WIFI_SIGNAL,
		measure.DEVICE_WIFI_RSSI,
		measure.DEVICE_WIFI_ONLINE,
		measure.DEVICE_WIRED_CONNECTED,
		measure.DEVICE_STATUS_CODE,
		measure.DEVICE_CHARGING_STATUS_CODE,
		measure.DEVICE_GRID_STATUS_CODE,
		measure.DEVICE_IS_OTA_UPDATE,
		measure.DEVICE_AUTO_UPGRADE,
		measure.DEVICE_SUB_PACKAGE_NUM,
	}
}
