package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexFloat is a weight value as hardware actually sends it: a JSON number,
// a numeric string, or null. Parsing never fails the surrounding payload; an
// unusable value is remembered as present-but-invalid so the pipeline can
// downgrade it to a warning instead of rejecting the batch.
type FlexFloat struct {
	present bool
	valid   bool
	value   float64
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	f.present = true

	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	f.valid = true
	f.value = v
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.present || !f.valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Present reports whether the field appeared in the payload at all
func (f FlexFloat) Present() bool { return f.present }

// Value returns the parsed number; ok is false when the field was absent or
// not a usable number.
func (f FlexFloat) Value() (float64, bool) { return f.value, f.present && f.valid }

// SensorPayload is one telemetry batch from a cabinet. The hardware protocol
// grew aliases over time (average_weight vs unit_weight, item_name vs
// medicine_name); they are resolved here, once, and nowhere downstream.
type SensorPayload struct {
	HardwareID   string               `json:"hardware_id"`
	Timestamp    string               `json:"timestamp,omitempty"`
	SensorType   string               `json:"sensor_type,omitempty"`
	UnitPayload  *UnitPayload         `json:"unit_payload,omitempty"`
	Compartments []CompartmentReading `json:"compartments"`
}

// UnitPayload optionally carries a unit weight shared by every compartment
// in the batch
type UnitPayload struct {
	AverageWeight FlexFloat `json:"average_weight"`
	UnitWeight    FlexFloat `json:"unit_weight"`
}

// CompartmentReading is one compartment's observation within a batch
type CompartmentReading struct {
	Compartment   *int      `json:"compartment"`
	Weight        FlexFloat `json:"weight"`
	Unit          string    `json:"unit,omitempty"`
	ItemName      string    `json:"item_name,omitempty"`
	MedicineName  string    `json:"medicine_name,omitempty"`
	AverageWeight FlexFloat `json:"average_weight"`
	UnitWeight    FlexFloat `json:"unit_weight"`

	raw json.RawMessage
}

func (c *CompartmentReading) UnmarshalJSON(data []byte) error {
	type reading CompartmentReading
	var r reading
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*c = CompartmentReading(r)
	c.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the compartment object exactly as it arrived, for the audit
// trail
func (c *CompartmentReading) Raw() string {
	if len(c.raw) == 0 {
		b, _ := json.Marshal(c)
		return string(b)
	}
	return string(c.raw)
}

// Name returns the descriptive item name, whichever key the hardware used
func (c *CompartmentReading) Name() string {
	if c.ItemName != "" {
		return c.ItemName
	}
	return c.MedicineName
}

// UnitWeightOverride resolves the per-compartment unit weight. The second
// return carries a warning when a supplied override was unusable and got
// ignored.
func (c *CompartmentReading) UnitWeightOverride() (*float64, string) {
	f := c.AverageWeight
	if !f.Present() {
		f = c.UnitWeight
	}
	if !f.Present() {
		return nil, ""
	}
	v, ok := f.Value()
	if !ok {
		return nil, "compartment unit weight override is not a valid number"
	}
	if v <= 0 {
		return nil, "compartment unit weight override must be greater than zero"
	}
	return &v, ""
}

// SharedUnitWeight resolves the batch-level unit weight default, if any
func (p *SensorPayload) SharedUnitWeight() (*float64, string) {
	if p.UnitPayload == nil {
		return nil, ""
	}
	f := p.UnitPayload.AverageWeight
	if !f.Present() {
		f = p.UnitPayload.UnitWeight
	}
	if !f.Present() {
		return nil, ""
	}
	v, ok := f.Value()
	if !ok {
		return nil, "payload average_weight is not a valid number"
	}
	if v <= 0 {
		return nil, "payload average_weight must be greater than zero"
	}
	return &v, ""
}

// ParseSensorPayload decodes and validates a raw telemetry body. Returns a
// *ValidationError when required top-level fields are missing or the body is
// not valid JSON.
func ParseSensorPayload(raw []byte) (*SensorPayload, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{Message: "no data provided"}
	}

	var payload SensorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid payload: %v", err)}
	}

	var missing []string
	if payload.HardwareID == "" {
		missing = append(missing, "hardware_id")
	}
	if payload.Compartments == nil {
		missing = append(missing, "compartments")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "missing required fields: " + strings.Join(missing, ", ")}
	}

	return &payload, nil
}
