package internal

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSorted(t *testing.T) {
	assert := assert.New(t)

	var keys []string
	var values []int
	for key, value := range IterSorted(map[string]int{"c": 3, "a": 1, "b": 2}) {
		keys = append(keys, key)
		values = append(values, value)
	}

	assert.Equal([]string{"a", "b", "c"}, keys)
	assert.Equal([]int{1, 2, 3}, values)
}

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	seq := IterSeq2Concat(
		IterSorted(map[string]int{"x": 1, "y": 2}),
		maps.All(map[string]int{"z": 3}),
	)

	var keys []string
	for key := range seq {
		keys = append(keys, key)
	}
	assert.Equal([]string{"x", "y", "z"}, keys)

	// Stopping early stops every sequence.
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(1, count)
}
