package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	Init()
}

func TestInit(t *testing.T) {
	t.Run("repeated init is safe", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Init()
			Init()
		})
	})
}

func TestValidate(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Email string `validate:"omitempty,email"`
		Level string `validate:"oneof=debug info warn error"`
	}

	t.Run("valid struct", func(t *testing.T) {
		err := Validate(payload{Name: "ccdwatch", Level: "info"})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := Validate(payload{Level: "info"})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "'Name'")
		assert.Contains(t, err.Error(), "'required'")
	})

	t.Run("multiple failures are all reported", func(t *testing.T) {
		err := Validate(payload{Email: "not-an-email", Level: "loud"})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "'Name'")
		assert.Contains(t, err.Error(), "'Email'")
		assert.Contains(t, err.Error(), "'Level'")
	})

	t.Run("non-struct value", func(t *testing.T) {
		err := Validate("not a struct")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrValidation)
	})
}
