package vests_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiespino/aliento-pay/vests"
)

func TestRawAmountNormalization(t *testing.T) {
	t.Parallel()

	t.Run("it normalizes all three encodings to the same value", func(t *testing.T) {
		t.Parallel()

		// Arrange: three encodings of 1234.567890 VESTS
		raws := []vests.RawAmount{
			vests.AssetString("1234.567890 VESTS"),
			vests.PlainNumber(1234.56789),
			vests.AmountPrecision{Amount: 1234567890, Precision: 6},
		}

		// Act + Assert
		for _, raw := range raws {
			value, err := raw.Normalize()
			require.NoError(t, err)
			assert.InDelta(t, 1234.56789, value, 1e-9)
		}
	})

	t.Run("it rejects malformed asset strings", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"", "VESTS", "1.0", "one VESTS", "1.0 VESTS extra"} {
			_, err := vests.AssetString(s).Normalize()
			assert.ErrorIs(t, err, vests.ErrMalformedAsset, "input %q", s)
		}
	})

	t.Run("it rejects non-finite plain numbers", func(t *testing.T) {
		t.Parallel()

		_, err := vests.PlainNumber(math.NaN()).Normalize()
		assert.ErrorIs(t, err, vests.ErrNotFinite)

		_, err = vests.PlainNumber(math.Inf(1)).Normalize()
		assert.ErrorIs(t, err, vests.ErrNotFinite)
	})

	t.Run("it rejects out-of-range precision", func(t *testing.T) {
		t.Parallel()

		_, err := vests.AmountPrecision{Amount: 1, Precision: -1}.Normalize()
		assert.ErrorIs(t, err, vests.ErrInvalidPrecision)

		_, err = vests.AmountPrecision{Amount: 1, Precision: 13}.Normalize()
		assert.ErrorIs(t, err, vests.ErrInvalidPrecision)
	})
}

func TestParseAsset(t *testing.T) {
	t.Parallel()

	value, symbol, err := vests.ParseAsset("170000000.000 HIVE")

	require.NoError(t, err)
	assert.InDelta(t, 170000000.0, value, 1e-6)
	assert.Equal(t, "HIVE", symbol)
}

func TestFormatAsset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10.000 HIVE", vests.FormatAsset(10, "HIVE"))
	assert.Equal(t, "0.001 HIVE", vests.FormatAsset(0.001, "HIVE"))
	assert.Equal(t, "24.000 HIVE", vests.FormatAsset(24.0001, "HIVE"))
}
