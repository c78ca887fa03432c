package greenops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name    string
		input   ActivityInput
		want    float64
		wantErr error
	}{
		{
			name:  "car gasoline 25 km",
			input: ActivityInput{Category: CategoryTransportation, Type: "car_gasoline", Value: 25},
			want:  5.25,
		},
		{
			name:  "half kilo of beef",
			input: ActivityInput{Category: CategoryFood, Type: "beef", Value: 0.5},
			want:  13.5,
		},
		{
			name:  "electricity rounds to cents",
			input: ActivityInput{Category: CategoryEnergy, Type: "electricity", Value: 12.345},
			want:  6.17,
		},
		{
			name:  "recycling is negative",
			input: ActivityInput{Category: CategoryWaste, Type: "recycling", Value: 3},
			want:  -0.3,
		},
		{
			name:  "zero-factor type",
			input: ActivityInput{Category: CategoryTransportation, Type: "bicycle", Value: 40},
			want:  0,
		},
		{
			name:  "unknown type degrades to zero",
			input: ActivityInput{Category: CategoryTransportation, Type: "hoverboard", Value: 10},
			want:  0,
		},
		{
			name:  "type under the wrong category is unknown",
			input: ActivityInput{Category: CategoryFood, Type: "electricity", Value: 10},
			want:  0,
		},
		{
			name:    "negative value",
			input:   ActivityInput{Category: CategoryFood, Type: "beef", Value: -1},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "NaN value",
			input:   ActivityInput{Category: CategoryFood, Type: "beef", Value: math.NaN()},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "infinite value",
			input:   ActivityInput{Category: CategoryFood, Type: "beef", Value: math.Inf(1)},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.CO2Amount, 1e-9)
			assert.Equal(t, CO2Unit, got.Unit)
			assert.Equal(t, tt.input.Category, got.Category)
		})
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	input := ActivityInput{Category: CategoryEnergy, Type: "natural_gas", Value: 3.333}
	first, err := Calculate(input)
	require.NoError(t, err)
	for range 100 {
		again, err := Calculate(input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRoundKg(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 2.344, want: 2.34},
		{in: 2.346, want: 2.35},
		{in: 0.125, want: 0.13},
		{in: -0.125, want: -0.12},
		{in: 0, want: 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundKg(tt.in), 1e-9, "RoundKg(%v)", tt.in)
	}
}

func TestFootprintRollups(t *testing.T) {
	monday := []ActivityInput{
		{Category: CategoryTransportation, Type: "car_gasoline", Value: 25},
		{Category: CategoryFood, Type: "beef", Value: 0.5},
	}
	tuesday := []ActivityInput{
		{Category: CategoryEnergy, Type: "electricity", Value: 10},
	}

	daily, err := DailyFootprint(monday)
	require.NoError(t, err)
	assert.InDelta(t, 18.75, daily, 1e-9)

	empty, err := DailyFootprint(nil)
	require.NoError(t, err)
	assert.Zero(t, empty)

	weekly, err := WeeklyFootprint([][]ActivityInput{monday, tuesday, nil})
	require.NoError(t, err)
	assert.InDelta(t, 23.75, weekly, 1e-9)

	assert.InDelta(t, 100.5, MonthlyFootprint([]float64{23.75, 30, 46.75}), 1e-9)
	assert.Zero(t, MonthlyFootprint(nil))

	_, err = WeeklyFootprint([][]ActivityInput{{{Category: CategoryFood, Type: "beef", Value: -3}}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func BenchmarkCalculate(b *testing.B) {
	input := ActivityInput{Category: CategoryTransportation, Type: "car_gasoline", Value: 25}
	for b.Loop() {
		_, _ = Calculate(input)
	}
}
