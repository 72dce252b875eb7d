package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMappingRecord_Newer(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	older := MappingRecord{Key: "0190", CreatedAt: t0}
	later := MappingRecord{Key: "0180", CreatedAt: t0.Add(time.Second)}
	assert.True(t, later.Newer(older), "later timestamp wins even with smaller key")
	assert.False(t, older.Newer(later))

	tieA := MappingRecord{Key: "018f-a", CreatedAt: t0}
	tieB := MappingRecord{Key: "018f-b", CreatedAt: t0}
	assert.True(t, tieB.Newer(tieA), "equal timestamps fall back to key")
	assert.False(t, tieA.Newer(tieB))
	assert.False(t, tieA.Newer(tieA))
}
