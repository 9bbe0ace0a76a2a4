package Govector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValue(t *testing.T) {
	t.Run("StringValue", func(t *testing.T) {
		v := StringValue("Lake Erie")
		assert.Equal(t, StringKind, v.Kind())
		s, err := v.AsString()
		require.NoError(t, err)
		assert.Equal(t, "Lake Erie", s)
		assert.Equal(t, "Lake Erie", v.Interface())
		assert.Equal(t, "Lake Erie", v.String())
	})

	t.Run("RealValue", func(t *testing.T) {
		v := RealValue(25744.0)
		assert.Equal(t, RealKind, v.Kind())
		f, err := v.AsReal()
		require.NoError(t, err)
		assert.Equal(t, 25744.0, f)
		assert.Equal(t, 25744.0, v.Interface())
		assert.Equal(t, "25744", v.String())
	})

	t.Run("AsRealOnString", func(t *testing.T) {
		f, err := StringValue("25744").AsReal()
		assert.Zero(t, f)
		var mismatch *FieldValueMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, RealKind, mismatch.Want)
		assert.Equal(t, StringKind, mismatch.Got)
		assert.Contains(t, err.Error(), "RealValue")
	})

	t.Run("AsStringOnReal", func(t *testing.T) {
		s, err := RealValue(1.5).AsString()
		assert.Empty(t, s)
		var mismatch *FieldValueMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, StringKind, mismatch.Want)
		assert.Equal(t, RealKind, mismatch.Got)
	})

	t.Run("ZeroValueIsEmptyString", func(t *testing.T) {
		var v FieldValue
		s, err := v.AsString()
		require.NoError(t, err)
		assert.Empty(t, s)
	})
}
