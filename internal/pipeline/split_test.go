package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_PreservesOrderAndCount(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}
	batches := Split(items, 10)

	if assert.Len(t, batches, 3) {
		assert.Len(t, batches[0], 10)
		assert.Len(t, batches[1], 10)
		assert.Len(t, batches[2], 3)
	}
	var flat []int
	for _, b := range batches {
		flat = append(flat, b...)
	}
	assert.Equal(t, items, flat)
}

func TestSplit_Edges(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"empty", 0, 10, nil},
		{"exact multiple", 20, 10, []int{10, 10}},
		{"smaller than size", 3, 10, []int{3}},
		{"size one", 3, 1, []int{1, 1, 1}},
		{"zero size is one batch", 5, 0, []int{5}},
		{"negative size is one batch", 5, -2, []int{5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items := make([]string, tc.n)
			var got []int
			for _, b := range Split(items, tc.size) {
				got = append(got, len(b))
			}
			assert.Equal(t, tc.sizes, got)
		})
	}
}

func TestSplit_BatchesDoNotAlias(t *testing.T) {
	batches := Split([]int{1, 2, 3, 4}, 2)
	batches[0] = append(batches[0], 99)
	assert.Equal(t, []int{3, 4}, batches[1])
}
