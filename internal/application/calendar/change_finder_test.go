package calendar

import (
	"testing"

	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changed(seg *models.TravelSeg) *models.TravelSeg {
	seg.ChangeStatus = models.ChangeChanged
	return seg
}

func TestChangeFinder_FullMatchIsNotAChange(t *testing.T) {
	r3 := roundTripResult(t)
	orig := changed(airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333))
	newItin := itin(airSeg(1, 1, dfw, lax, "2016-06-09", "AA", 333))

	res := NewChangeFinder(r3, newItin).Find([]*models.TravelSeg{orig})

	assert.False(t, res.Changed)
	assert.Empty(t, res.Unmatched)
	require.Len(t, res.Observations, 1)
	assert.Equal(t, 0, res.Observations[0].OndIndex)
	assert.Equal(t, dr("2016-06-07", "2016-06-07"), res.Observations[0].Range)
}

func TestChangeFinder_StructuralMatchOnlyIsAChange(t *testing.T) {
	r3 := roundTripResult(t)
	orig := changed(airSeg(2, 2, lax, dfw, "2016-06-21", "AA", 334))
	newItin := itin(airSeg(1, 2, lax, dfw, "2016-06-21", "UA", 100))

	res := NewChangeFinder(r3, newItin).Find([]*models.TravelSeg{orig})

	assert.True(t, res.Changed)
	assert.Equal(t, []*models.TravelSeg{orig}, res.Unmatched)
	require.Len(t, res.Observations, 1)
	assert.Equal(t, 1, res.Observations[0].OndIndex)
}

func TestChangeFinder_NewSegmentIsConsumedOnce(t *testing.T) {
	r3 := roundTripResult(t)
	first := changed(airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333))
	second := changed(airSeg(2, 1, dfw, lax, "2016-06-07", "AA", 333))
	newItin := itin(airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333))

	res := NewChangeFinder(r3, newItin).Find([]*models.TravelSeg{first, second})

	assert.True(t, res.Changed)
	assert.Equal(t, []*models.TravelSeg{second}, res.Unmatched)
}

func TestChangeFinder_UnchangedSegmentsAreIgnored(t *testing.T) {
	r3 := roundTripResult(t)
	orig := airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333)

	res := NewChangeFinder(r3, itin()).Find([]*models.TravelSeg{orig})

	assert.False(t, res.Changed)
	assert.Empty(t, res.Observations)
}

func TestChangeFinder_SurfaceSegmentsMatchEachOther(t *testing.T) {
	r3 := roundTripResult(t)
	orig := changed(airSeg(1, 1, dfw, lax, "2016-06-07", "", 0))
	orig.Type = models.SegmentSurface
	n := airSeg(1, 1, dfw, lax, "2016-06-08", "", 0)
	n.Type = models.SegmentSurface

	res := NewChangeFinder(r3, itin(n)).Find([]*models.TravelSeg{orig})

	assert.False(t, res.Changed)
}

func TestChangeFinder_LegacyMatchNeedsSameDate(t *testing.T) {
	orig := changed(airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333))

	moved := NewChangeFinder(nil, itin(airSeg(1, 1, dfw, lax, "2016-06-08", "AA", 333)))
	assert.True(t, moved.Find([]*models.TravelSeg{orig}).Changed)

	same := NewChangeFinder(nil, itin(airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333)))
	res := same.LegacyMatch([]*models.TravelSeg{orig})
	assert.False(t, res.Changed)
	assert.Empty(t, res.Observations)
}
