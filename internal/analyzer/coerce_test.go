package analyzer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	t.Run("json number", func(t *testing.T) {
		d := toDecimal(float64(12.5))
		require.NotNil(t, d)
		assert.True(t, d.Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("numeric string", func(t *testing.T) {
		d := toDecimal(" 9.90 ")
		require.NotNil(t, d)
		assert.True(t, d.Equal(decimal.RequireFromString("9.90")))
	})

	t.Run("nil and garbage", func(t *testing.T) {
		assert.Nil(t, toDecimal(nil))
		assert.Nil(t, toDecimal("twelve"))
		assert.Nil(t, toDecimal(""))
	})
}

func TestSafeStr(t *testing.T) {
	s := safeStr("  Coop  ")
	require.NotNil(t, s)
	assert.Equal(t, "Coop", *s)

	assert.Nil(t, safeStr(nil))
	assert.Nil(t, safeStr(""))
	assert.Nil(t, safeStr("   "))
}

func TestParseDate(t *testing.T) {
	t.Run("iso date", func(t *testing.T) {
		d := parseDate("2026-03-14")
		require.NotNil(t, d)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), *d)
	})

	t.Run("full timestamp truncates to midnight", func(t *testing.T) {
		d := parseDate("2026-03-14T15:04:05Z")
		require.NotNil(t, d)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), *d)
	})

	t.Run("unparsable", func(t *testing.T) {
		assert.Nil(t, parseDate(nil))
		assert.Nil(t, parseDate("14.03.2026"))
		assert.Nil(t, parseDate("yesterday"))
	})
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, isTruthy(true))
	assert.True(t, isTruthy(float64(1)))
	assert.True(t, isTruthy("yes"))
	assert.True(t, isTruthy(map[string]any{}))

	assert.False(t, isTruthy(nil))
	assert.False(t, isTruthy(false))
	assert.False(t, isTruthy(float64(0)))
	assert.False(t, isTruthy(""))
	assert.False(t, isTruthy("false"))
	assert.False(t, isTruthy("FALSE"))
}
