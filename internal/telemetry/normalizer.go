// Package telemetry turns raw device status payloads into typed,
// unit-normalized samples.
package telemetry

import (
	"strconv"
	"strings"
)

// StatusCode is a single (code, value) pair from a device status payload.
// The value is whatever the JSON decoder produced: float64, bool or string.
type StatusCode struct {
	Code  string `json:"code"`
	Value any    `json:"value"`
}

// Sample is a normalized telemetry snapshot. Every field is optional;
// a code absent from the payload leaves the field nil, never zero.
type Sample struct {
	EnergyKWh *float64 // add_ele, raw/1000
	PowerW    *float64 // cur_power, raw/divisor (10 or 1000 by firmware generation)
	VoltageV  *float64 // cur_voltage, raw/10
	CurrentMA *int     // cur_current, raw
	SwitchOn  *bool    // switch / switch_1 / switch_led / switch_led_1
}

// Parse normalizes a status payload. Unknown codes are ignored and malformed
// values are skipped; parsing never fails as a whole.
func Parse(status []StatusCode, powerDivisor float64) Sample {
	var s Sample
	if powerDivisor <= 0 {
		powerDivisor = 10
	}

	for _, st := range status {
		if st.Value == nil {
			continue
		}

		switch st.Code {
		case "add_ele":
			if raw, ok := toFloat(st.Value); ok {
				v := raw / 1000.0
				s.EnergyKWh = &v
			}
		case "cur_power":
			if raw, ok := toFloat(st.Value); ok {
				v := raw / powerDivisor
				s.PowerW = &v
			}
		case "cur_voltage":
			if raw, ok := toFloat(st.Value); ok {
				v := raw / 10.0
				s.VoltageV = &v
			}
		case "cur_current":
			if raw, ok := toFloat(st.Value); ok {
				v := int(raw)
				s.CurrentMA = &v
			}
		case "switch", "switch_1", "switch_led", "switch_led_1":
			if b, ok := toBool(st.Value); ok {
				s.SwitchOn = &b
			}
		}
	}
	return s
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}
