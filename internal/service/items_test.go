package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeItems(t *testing.T) {
	cases := []struct {
		name       string
		names      []string
		quantities []int
		want       []ItemRequest
		err        error
	}{
		{
			name:  "missing quantities default to one",
			names: []string{"Falafel", "FOUL"},
			want:  []ItemRequest{{"falafel", "Falafel", 1}, {"foul", "FOUL", 1}},
		},
		{
			name:       "paired",
			names:      []string{"falafel", "foul"},
			quantities: []int{3, 2},
			want:       []ItemRequest{{"falafel", "falafel", 3}, {"foul", "foul", 2}},
		},
		{
			name:       "blank names skipped",
			names:      []string{" ", " Falafel "},
			quantities: []int{4, 2},
			want:       []ItemRequest{{"falafel", "Falafel", 2}},
		},
		{name: "no names", err: ErrNoItems},
		{name: "only blanks", names: []string{""}, err: ErrNoItems},
		{name: "mismatch", names: []string{"falafel"}, quantities: []int{1, 2}, err: ErrQuantityMismatch},
		{name: "negative", names: []string{"falafel"}, quantities: []int{-1}, err: ErrBadQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeItems(tc.names, tc.quantities)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
