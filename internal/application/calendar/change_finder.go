package calendar

import (
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// DateObservation is a travel date that keeps an OND's original segment unchanged.
type DateObservation struct {
	OndIndex int
	Range    models.DateRange
}

type ChangeResult struct {
	Changed      bool
	Unmatched    []*models.TravelSeg
	Observations []DateObservation
}

// ChangeFinder matches changed segments of the exchanged itinerary against the new itinerary.
type ChangeFinder struct {
	r3      *R3ValidationResult
	newSegs []*models.TravelSeg
}

func NewChangeFinder(r3 *R3ValidationResult, newItin *models.Itin) *ChangeFinder {
	f := &ChangeFinder{r3: r3}
	if newItin != nil {
		f.newSegs = newItin.TravelSegs
	}
	return f
}

// Find reports whether any changed segment of segs lacks an equivalent segment in the new
// itinerary flown inside its OND window. Each new segment explains at most one original segment.
func (f *ChangeFinder) Find(segs []*models.TravelSeg) ChangeResult {
	if f.r3 == nil {
		return f.LegacyMatch(segs)
	}

	consumed := make([]bool, len(f.newSegs))
	var res ChangeResult

	for _, seg := range segs {
		if !seg.IsChanged() {
			continue
		}

		depDate := seg.DepartureDate()
		ondIndex := f.r3.OndIndexForSeg(seg)
		window := models.NewDateRange(depDate, depDate)
		if ondIndex != InvalidOndIndex {
			window = f.r3.DateRangeForOnd(ondIndex).StripHours()
		}

		matched := false
		for i, n := range f.newSegs {
			if consumed[i] || !structuralMatch(seg, n, window) {
				continue
			}

			if ondIndex != InvalidOndIndex {
				res.Observations = append(res.Observations, DateObservation{
					OndIndex: ondIndex,
					Range:    models.NewDateRange(depDate, depDate),
				})
			}

			if sameService(seg, n) {
				consumed[i] = true
				matched = true
				break
			}
		}

		if !matched {
			res.Unmatched = append(res.Unmatched, seg)
		}
	}

	res.Changed = len(res.Unmatched) > 0
	return res
}

// LegacyMatch requires an exact city pair, departure date and carrier/flight match.
func (f *ChangeFinder) LegacyMatch(segs []*models.TravelSeg) ChangeResult {
	consumed := make([]bool, len(f.newSegs))
	var res ChangeResult

	for _, seg := range segs {
		if !seg.IsChanged() {
			continue
		}

		matched := false
		for i, n := range f.newSegs {
			if consumed[i] {
				continue
			}
			if n.BoardMultiCity != seg.BoardMultiCity || n.OffMultiCity != seg.OffMultiCity {
				continue
			}
			if !n.DepartureDate().Equal(seg.DepartureDate()) || !sameService(seg, n) {
				continue
			}
			consumed[i] = true
			matched = true
			break
		}

		if !matched {
			res.Unmatched = append(res.Unmatched, seg)
		}
	}

	res.Changed = len(res.Unmatched) > 0
	return res
}

func structuralMatch(orig, n *models.TravelSeg, window models.DateRange) bool {
	return n.BoardMultiCity == orig.BoardMultiCity &&
		n.OffMultiCity == orig.OffMultiCity &&
		window.Contains(orig.DepartureDate())
}

func sameService(orig, n *models.TravelSeg) bool {
	if !orig.IsAir() && !n.IsAir() {
		return true
	}
	return orig.IsAir() && n.IsAir() &&
		orig.Carrier == n.Carrier &&
		orig.FlightNumber == n.FlightNumber
}
