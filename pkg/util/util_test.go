package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickSort(t *testing.T) {

	arr := []int{4, 3, 2, 1, 10, 5555, -1, 20, 100, -100}
	arr = QuickSortG(arr, func(a, b int) int {
		if a < b {
			return -1
		} else if a > b {
			return 1
		} else {
			return 0
		}
	})

	for i := 0; i < len(arr); i++ {
		if i == 0 {
			continue
		}
		if arr[i] < arr[i-1] {
			t.Errorf("Error in sorting")
		}
	}
}

func TestReverseG(t *testing.T) {
	arr := []int32{3, 2, 1}
	assert.Equal(t, []int32{1, 2, 3}, ReverseG(arr))
	assert.Equal(t, []int32{3, 2, 1}, arr)
}

func TestKillFirstBit(t *testing.T) {
	assert.Equal(t, uint64(0), KillFirstBit(0))
	assert.Equal(t, uint64(0), KillFirstBit(0b0100))
	assert.Equal(t, uint64(0b1000), KillFirstBit(0b1010))
}

func TestHasAtMostOneBit(t *testing.T) {
	assert.True(t, HasAtMostOneBit(0))
	assert.True(t, HasAtMostOneBit(0b1000))
	assert.False(t, HasAtMostOneBit(0b1001))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, CeilDiv(0, 16))
	assert.Equal(t, 1, CeilDiv(1, 16))
	assert.Equal(t, 1, CeilDiv(16, 16))
	assert.Equal(t, 2, CeilDiv(17, 16))
}
