package merger

import (
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// MergePortion keeps the segments every sequence locks.
func MergePortion(locked []models.Set[int]) models.Set[int] {
	if len(locked) == 0 {
		return models.NewSet[int]()
	}
	merged := locked[0].Clone()
	for _, other := range locked[1:] {
		merged = merged.Intersect(other)
	}
	return merged
}

// CollectForcedConnections unions the forced connection points. A sequence without any
// clears the whole group.
func CollectForcedConnections(perSeq []models.Set[models.LocCode]) models.Set[models.LocCode] {
	merged := models.NewSet[models.LocCode]()
	for _, locs := range perSeq {
		if len(locs) == 0 {
			return models.NewSet[models.LocCode]()
		}
		merged = merged.Union(locs)
	}
	return merged
}

func CollectFirstBreakRest(seqs []models.ReissueSequence) bool {
	for _, seq := range seqs {
		if models.IsSet(seq.FirstBreakInd) {
			return true
		}
	}
	return false
}

// MergeFlightNumber locks the flight number only when every sequence locks it.
func MergeFlightNumber(seqs []models.ReissueSequence) bool {
	if len(seqs) == 0 {
		return false
	}
	for _, seq := range seqs {
		if !models.IsSet(seq.FlightNoInd) {
			return false
		}
	}
	return true
}

// MergeFareByteCxrAppl unions the applicable carriers and intersects the restricted ones,
// dropping any restricted carrier another sequence makes applicable.
func MergeFareByteCxrAppl(perSeq []models.FareByteCxrAppl) models.FareByteCxrAppl {
	merged := models.FareByteCxrAppl{
		Restricted: models.NewSet[models.CarrierCode](),
		Applicable: models.NewSet[models.CarrierCode](),
	}
	if len(perSeq) == 0 {
		return merged
	}

	merged.GovCxrPrefer = true
	for i, appl := range perSeq {
		merged.Applicable = merged.Applicable.Union(appl.Applicable)
		merged.GovCxrPrefer = merged.GovCxrPrefer && appl.GovCxrPrefer
		if i == 0 {
			merged.Restricted = appl.Restricted.Clone()
			continue
		}
		merged.Restricted = intersectCarriers(merged.Restricted, appl.Restricted)
	}

	// $$ among applicable carriers means every carrier not named, so it lifts no restriction.
	for cxr := range merged.Applicable {
		if cxr != models.AnyCarrier {
			merged.Restricted.Remove(cxr)
		}
	}
	return merged
}

// intersectCarriers treats $$ as every carrier.
func intersectCarriers(a, b models.Set[models.CarrierCode]) models.Set[models.CarrierCode] {
	aAny, bAny := a.Contains(models.AnyCarrier), b.Contains(models.AnyCarrier)
	switch {
	case aAny && bAny:
		return a.Union(b)
	case aAny:
		return b.Clone()
	case bAny:
		return a.Clone()
	default:
		return a.Intersect(b)
	}
}

// ForcedConnections lists the fare component points a stopover/connection indicator keeps fixed.
func ForcedConnections(fm *models.FareMarket, ind models.StopoverConnectInd) models.Set[models.LocCode] {
	out := models.NewSet[models.LocCode]()
	if fm == nil || !models.IsSet(ind) {
		return out
	}

	segs := fm.TravelSegs
	for i, seg := range segs {
		if i == len(segs)-1 {
			break
		}
		switch {
		case ind == models.StopConxBoth,
			ind == models.StopConxStopover && seg.Stopover,
			ind == models.StopConxConnection && !seg.Stopover:
			out.Add(seg.OffMultiCity)
		}
	}
	return out
}

func segOrders(segs []*models.TravelSeg) models.Set[int] {
	out := models.NewSet[int]()
	for _, seg := range segs {
		out.Add(seg.Order)
	}
	return out
}

func calendarAppl(ind models.DateInd) models.CalendarAppl {
	switch ind {
	case models.DateIndSameDepartureDate:
		return models.CalendarSameDepartureDate
	case models.DateIndLaterDepartureDate:
		return models.CalendarLaterDepartureDate
	default:
		return models.CalendarWholePeriod
	}
}
