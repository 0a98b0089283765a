package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSensorPayloadMissingFields(t *testing.T) {
	_, err := ParseSensorPayload([]byte(`{}`))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "hardware_id")
	assert.Contains(t, validation.Message, "compartments")

	_, err = ParseSensorPayload(nil)
	assert.ErrorAs(t, err, &validation)

	_, err = ParseSensorPayload([]byte(`not json`))
	assert.ErrorAs(t, err, &validation)
}

func TestParseSensorPayloadValid(t *testing.T) {
	raw := []byte(`{
		"hardware_id": "BOT001",
		"sensor_type": "weight",
		"compartments": [
			{"compartment": 1, "weight": 45.5, "unit": "grams", "item_name": "tylenol"},
			{"compartment": 2, "weight": "30.2"}
		]
	}`)

	payload, err := ParseSensorPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "BOT001", payload.HardwareID)
	require.Len(t, payload.Compartments, 2)

	w, ok := payload.Compartments[0].Weight.Value()
	require.True(t, ok)
	assert.Equal(t, 45.5, w)
	assert.Equal(t, "tylenol", payload.Compartments[0].Name())

	// Numeric strings from hardware still parse
	w, ok = payload.Compartments[1].Weight.Value()
	require.True(t, ok)
	assert.Equal(t, 30.2, w)
}

func TestCompartmentReadingKeepsRawForAudit(t *testing.T) {
	raw := []byte(`{"hardware_id":"BOT001","compartments":[{"compartment":3,"weight":1.5,"extra":"kept"}]}`)

	payload, err := ParseSensorPayload(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"compartment":3,"weight":1.5,"extra":"kept"}`, payload.Compartments[0].Raw())
}

func TestSharedUnitWeightAliases(t *testing.T) {
	payload, err := ParseSensorPayload([]byte(`{
		"hardware_id": "BOT001",
		"unit_payload": {"average_weight": 0.5},
		"compartments": []
	}`))
	require.NoError(t, err)

	w, warn := payload.SharedUnitWeight()
	require.NotNil(t, w)
	assert.Equal(t, 0.5, *w)
	assert.Empty(t, warn)

	// unit_weight is accepted as an alias
	payload, err = ParseSensorPayload([]byte(`{
		"hardware_id": "BOT001",
		"unit_payload": {"unit_weight": 0.25},
		"compartments": []
	}`))
	require.NoError(t, err)

	w, warn = payload.SharedUnitWeight()
	require.NotNil(t, w)
	assert.Equal(t, 0.25, *w)
	assert.Empty(t, warn)
}

func TestSharedUnitWeightDowngradesToWarning(t *testing.T) {
	payload, err := ParseSensorPayload([]byte(`{
		"hardware_id": "BOT001",
		"unit_payload": {"average_weight": 0},
		"compartments": []
	}`))
	require.NoError(t, err)

	w, warn := payload.SharedUnitWeight()
	assert.Nil(t, w)
	assert.Contains(t, warn, "greater than zero")

	payload, err = ParseSensorPayload([]byte(`{
		"hardware_id": "BOT001",
		"unit_payload": {"average_weight": "garbage"},
		"compartments": []
	}`))
	require.NoError(t, err)

	w, warn = payload.SharedUnitWeight()
	assert.Nil(t, w)
	assert.Contains(t, warn, "not a valid number")
}

func TestUnitWeightOverridePrecedence(t *testing.T) {
	payload, err := ParseSensorPayload([]byte(`{
		"hardware_id": "BOT001",
		"unit_payload": {"average_weight": 0.5},
		"compartments": [
			{"compartment": 1, "weight": 10, "average_weight": 0.25},
			{"compartment": 2, "weight": 10},
			{"compartment": 3, "weight": 10, "unit_weight": -1}
		]
	}`))
	require.NoError(t, err)

	shared, _ := payload.SharedUnitWeight()
	require.NotNil(t, shared)

	// Valid per-compartment override wins over the batch default
	override, warn := payload.Compartments[0].UnitWeightOverride()
	require.NotNil(t, override)
	assert.Equal(t, 0.25, *override)
	assert.Empty(t, warn)

	// No override falls back to the batch default
	override, warn = payload.Compartments[1].UnitWeightOverride()
	assert.Nil(t, override)
	assert.Empty(t, warn)

	// An unusable override is ignored with a warning, never fatal
	override, warn = payload.Compartments[2].UnitWeightOverride()
	assert.Nil(t, override)
	assert.NotEmpty(t, warn)
}

func TestNameAlias(t *testing.T) {
	payload, err := ParseSensorPayload([]byte(`{
		"hardware_id": "BOT001",
		"compartments": [
			{"compartment": 1, "weight": 10, "medicine_name": "aspirin"},
			{"compartment": 2, "weight": 10, "item_name": "gauze", "medicine_name": "ignored"}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "aspirin", payload.Compartments[0].Name())
	assert.Equal(t, "gauze", payload.Compartments[1].Name())
}
