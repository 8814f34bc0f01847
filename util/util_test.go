package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKeysSorted(t *testing.T) {
	m := map[string]int{"G": 1, "Am": 2, "C": 3}
	assert.Equal(t, []string{"Am", "C", "G"}, GetKeysSorted(m))
}

func TestMinMaxClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(2, Min(2, 5))
	assert.Equal(5, Max(2, 5))
	assert.Equal(0, Clamp(-3, 0, 10))
	assert.Equal(10, Clamp(42, 0, 10))
	assert.Equal(7, Clamp(7, 0, 10))
}

func TestSum(t *testing.T) {
	assert.Equal(t, uint64(6), Sum([]int{1, 2, 3}))
	assert.Equal(t, uint64(0), Sum([]uint8{}))
}

func TestInRange(t *testing.T) {
	s := []int{1, 2}
	assert.True(t, InRange(s, 0))
	assert.True(t, InRange(s, 1))
	assert.False(t, InRange(s, 2))
	assert.False(t, InRange(s, -1))
}
