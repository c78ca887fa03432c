package greenops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeToKg(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		unit    string
		want    float64
		wantErr error
	}{
		{name: "grams", value: 1500, unit: "g", want: 1.5},
		{name: "kilograms", value: 2, unit: "kg", want: 2},
		{name: "tonnes", value: 0.5, unit: "t", want: 500},
		{name: "pounds", value: 10, unit: "lb", want: 4.53592},
		{name: "suffixed mixed case", value: 1, unit: "kgCO2e", want: 1},
		{name: "uppercase", value: 3, unit: "KG", want: 3},
		{name: "invalid unit", value: 1, unit: "oz", wantErr: ErrInvalidUnit},
		{name: "negative", value: -1, unit: "kg", wantErr: ErrNegativeValue},
		{name: "NaN", value: math.NaN(), unit: "kg", wantErr: ErrCalculationOverflow},
		{name: "overflow", value: math.MaxFloat64, unit: "t", wantErr: ErrCalculationOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeToKg(tt.value, tt.unit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvertFromKg(t *testing.T) {
	got, err := ConvertFromKg(-1.5, "g")
	require.NoError(t, err)
	assert.InDelta(t, -1500.0, got, 1e-9)

	got, err = ConvertFromKg(2500, "tCO2e")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got, 1e-9)

	_, err = ConvertFromKg(1, "stone")
	require.ErrorIs(t, err, ErrInvalidUnit)
}

func TestIsRecognizedUnit(t *testing.T) {
	for _, u := range []string{"g", "kg", "t", "lb", "gCO2e", "LBCO2E"} {
		assert.True(t, IsRecognizedUnit(u), u)
	}
	for _, u := range []string{"", "kWh", "co2e", "tons"} {
		assert.False(t, IsRecognizedUnit(u), u)
	}
}
