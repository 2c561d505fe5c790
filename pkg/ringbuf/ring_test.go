package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_WalkFirstN(t *testing.T) {
	ring := New[int](5)
	for i := 0; i < 7; i++ {
		ring.PushFront(i)
	}

	actual := make([]int, 0)
	ring.WalkFirstN(7, func(v int) {
		actual = append(actual, v)
	})
	assert.Equal(t, []int{6, 5, 4, 3, 2, 6, 5}, actual)
}

func TestRing_Append(t *testing.T) {
	ring := New[int](10)

	for i := 1; i <= 12; i++ {
		ring.Append(i)
		assert.LessOrEqual(t, ring.Len(), 10)
	}

	assert.Equal(t, 10, ring.Len())
	assert.Equal(t, []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3}, ring.Slice())
}

func TestRing_AppendBatch(t *testing.T) {
	ring := New[int](4)

	ring.Append(1, 2)
	assert.Equal(t, []int{2, 1}, ring.Slice())

	ring.Append()
	assert.Equal(t, []int{2, 1}, ring.Slice())

	ring.Append(3, 4, 5)
	assert.Equal(t, []int{5, 4, 3, 2}, ring.Slice())

	// a batch larger than the ring keeps only its newest tail
	ring.Append(6, 7, 8, 9, 10, 11)
	assert.Equal(t, []int{11, 10, 9, 8}, ring.Slice())
}

func TestRing_ZeroCapacity(t *testing.T) {
	ring := New[string](0)
	ring.Append("a", "b")

	assert.Equal(t, 0, ring.Len())
	assert.Empty(t, ring.Slice())
}

func TestRing_SliceIsCopy(t *testing.T) {
	ring := New[int](3).Append(1, 2, 3)

	out := ring.Slice()
	out[0] = 100

	assert.Equal(t, []int{3, 2, 1}, ring.Slice())
}
