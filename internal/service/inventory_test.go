package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/tenant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemInput(t *testing.T, raw string) *ItemInput {
	t.Helper()
	var input ItemInput
	require.NoError(t, json.Unmarshal([]byte(raw), &input))
	return &input
}

func TestApplyInputValidation(t *testing.T) {
	s := &InventoryService{defaultReorderLevel: 5}
	cabinet := &models.Cabinet{ID: 1, TotalCompartments: 8}

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"compartment below range", `{"compartment_number": 0}`, "compartment_number"},
		{"compartment above range", `{"compartment_number": 9}`, "compartment_number"},
		{"zero unit weight", `{"unit_weight": 0}`, "unit_weight"},
		{"negative unit weight", `{"unit_weight": -0.5}`, "unit_weight"},
		{"garbage unit weight", `{"unit_weight": "abc"}`, "unit_weight"},
		{"negative current weight", `{"current_weight": -1}`, "current_weight"},
		{"negative quantity", `{"quantity": -1}`, "quantity"},
		{"negative reorder level", `{"reorder_level": -1}`, "reorder_level"},
		{"zero max capacity", `{"max_capacity": 0}`, "max_capacity"},
		{"malformed expiry date", `{"expiry_date": "01/06/2025"}`, "expiry_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &models.InventoryItem{}
			err := s.applyInput(item, itemInput(t, tt.input), cabinet)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Contains(t, validation.Message, tt.wantErr)
		})
	}
}

func TestApplyInputSetsFields(t *testing.T) {
	s := &InventoryService{defaultReorderLevel: 5}
	cabinet := &models.Cabinet{ID: 1, TotalCompartments: 8}
	item := &models.InventoryItem{}

	input := itemInput(t, `{
		"compartment_number": 3,
		"name": "tylenol",
		"unit_weight": 0.55,
		"current_weight": 9.9,
		"reorder_level": 2,
		"max_capacity": 40,
		"expiry_date": "2026-03-15",
		"batch_number": "LOT-42"
	}`)
	require.NoError(t, s.applyInput(item, input, cabinet))

	assert.Equal(t, 3, item.CompartmentNumber)
	assert.Equal(t, "tylenol", item.Name)
	require.NotNil(t, item.UnitWeight)
	assert.Equal(t, 0.55, *item.UnitWeight)
	require.NotNil(t, item.CurrentWeight)
	assert.Equal(t, 9.9, *item.CurrentWeight)
	assert.Equal(t, 2, item.ReorderLevel)
	require.NotNil(t, item.MaxCapacity)
	assert.Equal(t, 40, *item.MaxCapacity)
	require.NotNil(t, item.ExpiryDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *item.ExpiryDate)
	assert.Equal(t, "LOT-42", item.BatchNumber)

	// First weight observation doubles as the initial weight
	require.NotNil(t, item.InitialWeight)
	assert.Equal(t, 9.9, *item.InitialWeight)
}

func TestApplyInputInitialWeightNotOverwritten(t *testing.T) {
	s := &InventoryService{defaultReorderLevel: 5}
	cabinet := &models.Cabinet{ID: 1, TotalCompartments: 8}
	item := &models.InventoryItem{InitialWeight: floatPtr(12.0)}

	require.NoError(t, s.applyInput(item, itemInput(t, `{"current_weight": 6.0}`), cabinet))

	assert.Equal(t, 12.0, *item.InitialWeight)
	assert.Equal(t, 6.0, *item.CurrentWeight)
}

func TestApplyInputAverageWeightAlias(t *testing.T) {
	s := &InventoryService{defaultReorderLevel: 5}
	cabinet := &models.Cabinet{ID: 1, TotalCompartments: 8}
	item := &models.InventoryItem{}

	require.NoError(t, s.applyInput(item, itemInput(t, `{"average_weight": 0.3}`), cabinet))
	require.NotNil(t, item.UnitWeight)
	assert.Equal(t, 0.3, *item.UnitWeight)

	// average_weight wins when both aliases are present
	item = &models.InventoryItem{}
	require.NoError(t, s.applyInput(item, itemInput(t, `{"average_weight": 0.3, "unit_weight": 0.9}`), cabinet))
	assert.Equal(t, 0.3, *item.UnitWeight)
}

func TestApplyInputPastExpiryAllowed(t *testing.T) {
	s := &InventoryService{defaultReorderLevel: 5}
	cabinet := &models.Cabinet{ID: 1, TotalCompartments: 8}
	item := &models.InventoryItem{}

	require.NoError(t, s.applyInput(item, itemInput(t, `{"expiry_date": "2020-01-01"}`), cabinet))
	require.NotNil(t, item.ExpiryDate)
}

func TestCreateRequiredFields(t *testing.T) {
	s := &InventoryService{defaultReorderLevel: 5}
	actor := tenant.Actor{Role: tenant.RoleSuperAdmin}
	cabinetID := int64(1)
	name := "tylenol"

	tests := []struct {
		name    string
		input   *ItemInput
		wantErr string
	}{
		{"missing cabinet_id", &ItemInput{Name: &name}, "cabinet_id"},
		{"missing name", &ItemInput{CabinetID: &cabinetID}, "name"},
		{"empty name", &ItemInput{CabinetID: &cabinetID, Name: new(string)}, "name"},
		{
			"missing compartment_number",
			&ItemInput{CabinetID: &cabinetID, Name: &name},
			"compartment_number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), actor, tt.input)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Contains(t, validation.Message, tt.wantErr)
		})
	}
}

func TestApplyInputClearExpiry(t *testing.T) {
	s := &InventoryService{defaultReorderLevel: 5}
	cabinet := &models.Cabinet{ID: 1, TotalCompartments: 8}
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	item := &models.InventoryItem{ExpiryDate: &expiry}

	require.NoError(t, s.applyInput(item, itemInput(t, `{"expiry_date": ""}`), cabinet))
	assert.Nil(t, item.ExpiryDate)
}
