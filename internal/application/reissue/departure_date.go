package reissue

import (
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/calendar"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// DepartureWindow narrows the OND window of the fare component's first segment by the
// date indicator. ondIndex is InvalidOndIndex when nothing is narrowed.
func DepartureWindow(sc *Scope, fm *models.FareMarket, ind models.DateInd) (ondIndex int, window models.DateRange, ok bool) {
	if !models.IsSet(ind) || sc.Calendar == nil || len(fm.TravelSegs) == 0 {
		return calendar.InvalidOndIndex, models.DateRange{}, true
	}

	first := fm.TravelSegs[0]
	ondIndex = sc.Calendar.OndIndexForSeg(first)
	if ondIndex == calendar.InvalidOndIndex {
		return calendar.InvalidOndIndex, models.DateRange{}, true
	}

	dep := first.DepartureDate()
	var want models.DateRange
	switch ind {
	case models.DateIndSameDepartureDate:
		want = models.NewDateRange(dep, dep)
	case models.DateIndLaterDepartureDate:
		want = models.NewDateRange(dep.AddDate(0, 0, 1), sc.Calendar.DateRangeForOnd(ondIndex).Last)
	default:
		return ondIndex, models.DateRange{}, false
	}

	window = sc.Calendar.Intersection(want, ondIndex)
	return ondIndex, window, window.IsValid()
}

func matchDepartureDate(sc *Scope, fm *models.FareMarket, seq models.ReissueSequence) bool {
	if !models.IsSet(seq.DateInd) {
		return true
	}
	if sc.Calendar != nil {
		_, _, ok := DepartureWindow(sc, fm, seq.DateInd)
		return ok
	}

	if len(fm.TravelSegs) == 0 {
		return false
	}
	orig := fm.TravelSegs[0]
	for _, n := range sc.newSegs() {
		if n.BoardMultiCity != orig.BoardMultiCity || n.OffMultiCity != orig.OffMultiCity {
			continue
		}
		switch seq.DateInd {
		case models.DateIndSameDepartureDate:
			return n.DepartureDate().Equal(orig.DepartureDate())
		case models.DateIndLaterDepartureDate:
			return n.DepartureDate().After(orig.DepartureDate())
		}
		return false
	}
	return false
}
