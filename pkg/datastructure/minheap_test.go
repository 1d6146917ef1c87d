package datastructure

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinHeapExtractOrder(t *testing.T) {
	h := NewMinHeap[int32]()

	items := rand.Perm(200)
	for _, v := range items {
		h.Insert(PriorityQueueNode[int32]{Rank: float64(v), Item: int32(v)})
	}
	assert.Equal(t, 200, h.Size())

	prev := -1.0
	for h.Size() > 0 {
		node, err := h.ExtractMin()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, node.Rank, prev)
		prev = node.Rank
	}

	_, err := h.ExtractMin()
	assert.ErrorIs(t, err, ErrEmptyHeap)
}

func TestMinHeapGetMin(t *testing.T) {
	h := NewMinHeap[string]()

	_, err := h.GetMin()
	assert.ErrorIs(t, err, ErrEmptyHeap)

	h.Insert(PriorityQueueNode[string]{Rank: 3, Item: "c"})
	h.Insert(PriorityQueueNode[string]{Rank: 1, Item: "a"})
	h.Insert(PriorityQueueNode[string]{Rank: 2, Item: "b"})

	min, err := h.GetMin()
	assert.NoError(t, err)
	assert.Equal(t, "a", min.Item)
	assert.Equal(t, 3, h.Size())
}

func TestMinHeapDecreaseKey(t *testing.T) {
	h := NewMinHeap[int32]()
	h.Insert(PriorityQueueNode[int32]{Rank: 10, Item: 1})
	h.Insert(PriorityQueueNode[int32]{Rank: 20, Item: 2})
	h.Insert(PriorityQueueNode[int32]{Rank: 30, Item: 3})

	assert.NoError(t, h.DecreaseKey(PriorityQueueNode[int32]{Rank: 5, Item: 3}))
	min, err := h.GetMin()
	assert.NoError(t, err)
	assert.Equal(t, int32(3), min.Item)

	assert.ErrorIs(t, h.DecreaseKey(PriorityQueueNode[int32]{Rank: 50, Item: 1}),
		ErrRankNotSmaller)
	assert.ErrorIs(t, h.DecreaseKey(PriorityQueueNode[int32]{Rank: 1, Item: 99}),
		ErrItemNotInHeap)

	assert.True(t, h.Contains(2))
	assert.False(t, h.Contains(99))
}
