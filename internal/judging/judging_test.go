package judging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanMoveTo(t *testing.T) {
	tests := []struct {
		from, to RoundStatus
		want     bool
	}{
		{RoundOpen, RoundClosed, true},
		{RoundOpen, RoundArchived, false},
		{RoundOpen, RoundOpen, false},
		{RoundClosed, RoundOpen, true},
		{RoundClosed, RoundArchived, true},
		{RoundArchived, RoundOpen, false},
		{RoundArchived, RoundClosed, false},
		{RoundStatus("draft"), RoundOpen, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanMoveTo(tt.to))
		})
	}
}

func TestMarkValidate(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		valid bool
	}{
		{"Lowest", MinMark, true},
		{"Highest", MaxMark, true},
		{"Fractional", 7.5, true},
		{"Negative", -0.5, false},
		{"Too high", 10.01, false},
		{"NaN", math.NaN(), false},
		{"Infinite", math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Mark{Value: tt.value}.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMarkOutOfRange)
			}
		})
	}
}
