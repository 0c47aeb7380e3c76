package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDint64_Unique(t *testing.T) {
	seen := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		assert.Positive(t, id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}
