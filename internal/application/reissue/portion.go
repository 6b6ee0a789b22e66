package reissue

import (
	"context"
	"errors"
	"fmt"

	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

type geoResolution struct {
	segs     map[*models.TravelSeg]bool
	tsi      bool
	boundary bool
}

// LockedSegments resolves the exchanged segments a sequence's portion restriction keeps
// unchangeable, in journey order. ok is false when the geography data is missing or the
// byte combination is ill formed; such a sequence must not match.
func (t *ReissueTable) LockedSegments(ctx context.Context, sc *Scope, fm *models.FareMarket, seq models.ReissueSequence) (segs []*models.TravelSeg, ok bool, err error) {
	journey := sc.journey()
	if !models.IsSet(seq.PortionInd) && seq.TvlGeoTblItemNoFrom == 0 && seq.TvlGeoTblItemNoTo == 0 {
		return nil, true, nil
	}

	span := journey
	if seq.TvlGeoTblItemNoFrom != 0 || seq.TvlGeoTblItemNoTo != 0 {
		span, ok, err = t.geoSpan(ctx, sc, fm, seq)
		if err != nil || !ok {
			return nil, ok, err
		}
	}

	switch seq.PortionInd {
	case models.PortionFirstFlightCoupon:
		span = intersectSegs(span, firstAir(journey))
	case models.PortionFirstFlightComponent:
		span = intersectSegs(span, sc.firstFareComponent())
	}
	return span, true, nil
}

func (t *ReissueTable) geoSpan(ctx context.Context, sc *Scope, fm *models.FareMarket, seq models.ReissueSequence) ([]*models.TravelSeg, bool, error) {
	journey := sc.journey()

	var from, to *geoResolution
	for _, item := range []struct {
		no  int
		dst **geoResolution
	}{{seq.TvlGeoTblItemNoFrom, &from}, {seq.TvlGeoTblItemNoTo, &to}} {
		if item.no == 0 {
			continue
		}
		res, ok, err := t.resolveGeo(ctx, sc, fm, seq.Vendor, item.no)
		if err != nil || !ok {
			return nil, ok, err
		}
		*item.dst = res
	}

	// Two TSI driven geos only describe a span when one of them names a departure or arrival.
	if from != nil && to != nil && from.tsi && to.tsi && !from.boundary && !to.boundary {
		return nil, false, nil
	}

	switch {
	case from != nil && to != nil:
		start, end := -1, -1
		for i, seg := range journey {
			if start < 0 && from.segs[seg] {
				start = i
			}
			if to.segs[seg] {
				end = i
			}
		}
		if start < 0 || end < start {
			return nil, true, nil
		}
		return journey[start : end+1], true, nil
	case from != nil:
		return inJourneyOrder(journey, from.segs), true, nil
	default:
		return inJourneyOrder(journey, to.segs), true, nil
	}
}

func (t *ReissueTable) resolveGeo(ctx context.Context, sc *Scope, fm *models.FareMarket, vendor models.Vendor, itemNo int) (*geoResolution, bool, error) {
	const op = "reissue.ReissueTable.resolveGeo"

	items, err := t.store.GeoRuleItems(ctx, vendor, itemNo)
	if err != nil && !errors.Is(err, derr.ErrRuleNotFound) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return nil, false, nil
	}

	res := &geoResolution{segs: make(map[*models.TravelSeg]bool)}
	for _, item := range items {
		if item.TSI == 0 {
			if item.Loc1.IsEmpty() {
				return nil, false, nil
			}
			for _, seg := range sc.journey() {
				if betweenLocs(item.Loc1, item.Loc2, seg) {
					res.segs[seg] = true
				}
			}
			continue
		}

		info, err := t.store.TSIInfo(ctx, item.TSI)
		if errors.Is(err, derr.ErrRuleNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("%s: tsi %d: %w", op, item.TSI, err)
		}

		res.tsi = true
		if info.Type == models.TSIDeparture || info.Type == models.TSIArrival {
			res.boundary = true
		}

		universe := sc.segsFor(info.Scope, fm)
		for i, seg := range universe {
			if tsiSelects(info.Type, universe, i) && tsiLocMatches(info.Type, item.Loc1, seg) {
				res.segs[seg] = true
			}
		}
	}
	return res, true, nil
}

func tsiSelects(typ models.TSIType, segs []*models.TravelSeg, i int) bool {
	switch typ {
	case models.TSIOrigin:
		return i == 0
	case models.TSIDestination:
		return i == len(segs)-1
	case models.TSIStopover:
		return segs[i].Stopover
	case models.TSIConnection:
		return !segs[i].Stopover && i < len(segs)-1
	default:
		return true
	}
}

func tsiLocMatches(typ models.TSIType, key models.LocKey, seg *models.TravelSeg) bool {
	if key.IsEmpty() {
		return true
	}
	switch typ {
	case models.TSIDeparture, models.TSIOrigin:
		return locMatches(key, seg.Origin)
	case models.TSIAny:
		return locMatches(key, seg.Origin) || locMatches(key, seg.Destination)
	default:
		return locMatches(key, seg.Destination)
	}
}

// betweenLocs matches a segment travelling between loc1 and loc2 in either direction.
func betweenLocs(loc1, loc2 models.LocKey, seg *models.TravelSeg) bool {
	if locMatches(loc1, seg.Origin) && (loc2.IsEmpty() || locMatches(loc2, seg.Destination)) {
		return true
	}
	return locMatches(loc1, seg.Destination) && (loc2.IsEmpty() || locMatches(loc2, seg.Origin))
}

func locMatches(key models.LocKey, loc models.Loc) bool {
	switch key.Type {
	case models.LocTypeAirport:
		return string(loc.Code) == key.Code
	case models.LocTypeCity:
		city := loc.City
		if city == "" {
			city = loc.Code
		}
		return string(city) == key.Code
	case models.LocTypeNation:
		return loc.Nation == key.Code
	case models.LocTypeSubArea:
		return loc.SubArea == key.Code
	case models.LocTypeArea:
		return loc.Area == key.Code
	default:
		return false
	}
}

// OutboundSegments returns the exchanged segments locked by an outbound indicator.
func OutboundSegments(sc *Scope, ind models.OutboundInd) []*models.TravelSeg {
	journey := sc.journey()
	switch ind {
	case models.OutboundOrigToStopover:
		for i, seg := range journey {
			if seg.Stopover {
				return journey[:i+1]
			}
		}
		return journey
	case models.OutboundFirstFareComponent:
		return sc.firstFareComponent()
	default:
		return nil
	}
}

func anyChanged(segs []*models.TravelSeg) bool {
	for _, seg := range segs {
		if seg.IsChanged() {
			return true
		}
	}
	return false
}

func firstAir(segs []*models.TravelSeg) []*models.TravelSeg {
	for _, seg := range segs {
		if seg.IsAir() {
			return []*models.TravelSeg{seg}
		}
	}
	return nil
}

func intersectSegs(a, b []*models.TravelSeg) []*models.TravelSeg {
	keep := make(map[*models.TravelSeg]bool, len(b))
	for _, seg := range b {
		keep[seg] = true
	}
	return inJourneyOrder(a, keep)
}

func inJourneyOrder(journey []*models.TravelSeg, keep map[*models.TravelSeg]bool) []*models.TravelSeg {
	out := make([]*models.TravelSeg, 0, len(keep))
	for _, seg := range journey {
		if keep[seg] {
			out = append(out, seg)
		}
	}
	return out
}
