package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestValidateRegister(t *testing.T) {
	s := &CabinetService{minCompartments: 4}

	var validation *ValidationError

	err := s.validateRegister(&RegisterInput{})
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "hardware_id")
	assert.Contains(t, validation.Message, "name")

	err = s.validateRegister(&RegisterInput{HardwareID: "BOT001"})
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "name")

	err = s.validateRegister(&RegisterInput{
		HardwareID:   "BOT001",
		Name:         "Cabinet A",
		Compartments: intPtr(3),
	})
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "at least 4")

	err = s.validateRegister(&RegisterInput{
		HardwareID:   "BOT001",
		Name:         "Cabinet A",
		Compartments: intPtr(4),
	})
	assert.NoError(t, err)

	// Compartments may be omitted; the hardware floor is used as default
	err = s.validateRegister(&RegisterInput{HardwareID: "BOT001", Name: "Cabinet A"})
	assert.NoError(t, err)
}
