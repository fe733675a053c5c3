package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0.00"},
		{"small", 20, "20.00"},
		{"thousands", 1234.5, "1,234.50"},
		{"millions", 1234567.891, "1,234,567.89"},
		{"negative", -1500.25, "-1,500.25"},
		{"half below binary", 0.015, "0.01"},
		{"half below binary large", 2.675, "2.67"},
		{"exact half to even", 0.125, "0.12"},
		{"exact half up to even", 0.375, "0.38"},
		{"rounds into thousands", 999.999, "1,000.00"},
		{"negative rounds to zero", -0.001, "-0.00"},
		{"beyond int64", 1e20, "100,000,000,000,000,000,000.00"},
		{"nan", math.NaN(), MissingValue},
		{"inf", math.Inf(1), "inf"},
		{"negative inf", math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.in))
		})
	}
}

func TestFormatNull(t *testing.T) {
	assert.Equal(t, MissingValue, FormatNull(NullFloat{}))
	assert.Equal(t, "10.00", FormatNull(Float(10)))
}

func TestNullFloat(t *testing.T) {
	assert.Equal(t, Float(20), Float(2).Mul(Float(10)))
	assert.False(t, Float(2).Mul(NullFloat{}).Valid)
	assert.False(t, NullFloat{}.Mul(Float(3)).Valid)

	assert.Equal(t, "", NullFloat{}.String())
	assert.Equal(t, "10", Float(10).String())
	assert.Equal(t, "0.1", Float(0.1).String())
	assert.Equal(t, "12.345", Float(12.345).String())
}

func TestDateHasClock(t *testing.T) {
	assert.False(t, Date{}.HasClock())
	assert.True(t, Date{}.IsEmpty())
	assert.False(t, NewDate(2024, 3, 1).HasClock())

	d := NewDate(2024, 3, 1)
	d.Time = d.Add(90 * 60 * 1e9)
	assert.True(t, d.HasClock())
}
