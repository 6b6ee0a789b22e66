package calendar

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
	"go.uber.org/zap"
)

const InvalidOndIndex = -1

// R3ValidationResult maps exchanged itinerary legs to OND indexes and tracks the
// narrowing travel date window of every OND. It is owned by one evaluation at a time;
// use Clone to hand a private copy to each record 3 evaluation.
type R3ValidationResult struct {
	// dateRanges hold half-open [First, Last) windows.
	dateRanges []models.DateRange
	legToOnd   map[int]int
	status     bool
}

func (r *R3ValidationResult) OndCount() int {
	return len(r.dateRanges)
}

func (r *R3ValidationResult) IsValid() bool {
	return r.status
}

func (r *R3ValidationResult) OndIndexForSeg(seg *models.TravelSeg) int {
	if seg == nil {
		return InvalidOndIndex
	}
	idx, ok := r.legToOnd[seg.LegID]
	if !ok {
		return InvalidOndIndex
	}
	return idx
}

// AddDateRange narrows OND ondIndex with dr. Once the result is invalid it stays invalid.
func (r *R3ValidationResult) AddDateRange(dr models.DateRange, ondIndex int) bool {
	r.checkIndex(ondIndex)
	if !r.status {
		return false
	}

	narrowed := halfOpenIntersection(r.dateRanges[ondIndex], dr.InclusiveRange())
	r.dateRanges[ondIndex] = narrowed
	if !narrowed.IsValid() {
		r.status = false
	}
	return r.status
}

// DateRange returns the overall inclusive span from the first OND start to the last OND end.
func (r *R3ValidationResult) DateRange() models.DateRange {
	if !r.status || len(r.dateRanges) == 0 {
		return models.DateRange{}
	}
	first := r.dateRanges[0]
	last := r.dateRanges[len(r.dateRanges)-1]
	return models.NewDateRange(first.First, last.Last.AddDate(0, 0, -1))
}

// DateRangeForOnd returns the inclusive window of OND ondIndex.
func (r *R3ValidationResult) DateRangeForOnd(ondIndex int) models.DateRange {
	r.checkIndex(ondIndex)
	return toInclusive(r.dateRanges[ondIndex])
}

// Intersection returns dr narrowed to OND ondIndex without storing it.
func (r *R3ValidationResult) Intersection(dr models.DateRange, ondIndex int) models.DateRange {
	return dr.StripHours().Intersection(r.DateRangeForOnd(ondIndex))
}

func (r *R3ValidationResult) Clone() *R3ValidationResult {
	return &R3ValidationResult{
		dateRanges: slices.Clone(r.dateRanges),
		legToOnd:   maps.Clone(r.legToOnd),
		status:     r.status,
	}
}

func (r *R3ValidationResult) checkIndex(ondIndex int) {
	if ondIndex < 0 || ondIndex >= len(r.dateRanges) {
		panic(fmt.Sprintf("calendar: ond index %d out of range [0,%d)", ondIndex, len(r.dateRanges)))
	}
}

func halfOpenIntersection(a, b models.DateRange) models.DateRange {
	if a.First.IsZero() || b.First.IsZero() {
		return models.DateRange{}
	}
	first := a.First
	if b.First.After(first) {
		first = b.First
	}
	last := a.Last
	if b.Last.Before(last) {
		last = b.Last
	}
	if !first.Before(last) {
		return models.DateRange{}
	}
	return models.NewDateRange(first, last)
}

func toInclusive(halfOpen models.DateRange) models.DateRange {
	if halfOpen.First.IsZero() {
		return models.DateRange{}
	}
	return models.NewDateRange(halfOpen.First, halfOpen.Last.AddDate(0, 0, -1))
}

type locMatcher func(ctx context.Context, a, b models.Loc) bool

// LegMapper builds R3ValidationResult values for exchange shopping transactions.
type LegMapper struct {
	log      *zap.Logger
	resolver ports.CityResolver
}

func NewLegMapper(log *zap.Logger, resolver ports.CityResolver) *LegMapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &LegMapper{log: log, resolver: resolver}
}

func (m *LegMapper) Build(ctx context.Context, excItin, newItin *models.Itin, onds []*models.OriginDestination) *R3ValidationResult {
	const op = "calendar.LegMapper.Build"
	logger := m.log.With(zap.String("op", op))

	if n := len(onds); slices.Contains(onds, nil) {
		onds = slices.DeleteFunc(slices.Clone(onds), func(ond *models.OriginDestination) bool { return ond == nil })
		logger.Warn("nil origin-destination entries dropped", zap.Int("dropped", n-len(onds)))
	}

	res := &R3ValidationResult{
		dateRanges: make([]models.DateRange, 0, len(onds)),
		legToOnd:   make(map[int]int),
		status:     true,
	}
	for _, ond := range onds {
		res.dateRanges = append(res.dateRanges, DateRangeForOnd(ond, ond.TravelDate).InclusiveRange())
	}
	if excItin == nil || len(res.dateRanges) == 0 {
		return res
	}

	legs := make(map[int][]*models.TravelSeg)
	for _, seg := range excItin.TravelSegs {
		legs[seg.LegID] = append(legs[seg.LegID], seg)
	}
	unmapped := slices.Sorted(maps.Keys(legs))

	cities := make(map[models.LocCode]models.LocCode)
	sameCity := func(ctx context.Context, a, b models.Loc) bool {
		return m.city(ctx, cities, a) == m.city(ctx, cities, b)
	}

	skipped := 0
	for _, match := range []locMatcher{sameCity, sameCountry, sameSubArea} {
		for progressed := true; progressed && len(unmapped) > 0; {
			progressed = false
			for _, legID := range slices.Clone(unmapped) {
				idx, ok := findOnd(ctx, legs[legID], newItin, match, skipped, len(res.dateRanges))
				if !ok {
					continue
				}
				res.legToOnd[legID] = idx
				skipped += onds[idx].SkippedOND
				unmapped = slices.DeleteFunc(unmapped, func(id int) bool { return id == legID })
				progressed = true
			}
		}
	}

	for _, legID := range unmapped {
		idx := res.forcedOndIndex(legID)
		res.legToOnd[legID] = idx
		logger.Debug("leg force matched", zap.Int("leg_id", legID), zap.Int("ond_index", idx))
	}

	return res
}

func (r *R3ValidationResult) forcedOndIndex(legID int) int {
	if len(r.legToOnd) < len(r.dateRanges) {
		used := make(map[int]bool, len(r.legToOnd))
		for _, idx := range r.legToOnd {
			used[idx] = true
		}
		for idx := range r.dateRanges {
			if !used[idx] {
				return idx
			}
		}
	}

	lastIdx := len(r.dateRanges) - 1
	prevLeg := -1
	for id := range r.legToOnd {
		if id < legID && id > prevLeg {
			prevLeg = id
		}
	}
	if prevLeg < 0 {
		return 0
	}
	return min(r.legToOnd[prevLeg]+1, lastIdx)
}

func findOnd(ctx context.Context, leg []*models.TravelSeg, newItin *models.Itin, match locMatcher, skipped, ondCount int) (int, bool) {
	if len(leg) == 0 || newItin == nil {
		return InvalidOndIndex, false
	}
	first, last := leg[0], leg[len(leg)-1]

	markets := make([][]*models.TravelSeg, 0, len(newItin.FareMarkets))
	for _, fm := range newItin.FareMarkets {
		markets = append(markets, fm.TravelSegs)
	}
	if len(markets) == 0 {
		markets = append(markets, newItin.TravelSegs)
	}

	for _, segs := range markets {
		for i, board := range segs {
			if !match(ctx, first.Origin, board.Origin) {
				continue
			}
			for _, off := range segs[i:] {
				if !match(ctx, last.Destination, off.Destination) {
					continue
				}
				idx := board.LegID - 1 - skipped
				if idx >= 0 && idx < ondCount {
					return idx, true
				}
			}
		}
	}
	return InvalidOndIndex, false
}

func (m *LegMapper) city(ctx context.Context, memo map[models.LocCode]models.LocCode, loc models.Loc) models.LocCode {
	if city, ok := memo[loc.Code]; ok {
		return city
	}

	city := loc.City
	if m.resolver != nil {
		resolved, err := m.resolver.MultiTransportCity(ctx, loc.Code)
		if err != nil {
			m.log.Warn("multi transport city lookup failed", zap.String("loc", string(loc.Code)), zap.Error(err))
		} else if resolved != "" {
			city = resolved
		}
	}
	if city == "" {
		city = loc.Code
	}

	memo[loc.Code] = city
	return city
}

func sameCountry(_ context.Context, a, b models.Loc) bool {
	return a.Nation != "" && a.Nation == b.Nation
}

func sameSubArea(_ context.Context, a, b models.Loc) bool {
	return a.SubArea != "" && a.SubArea == b.SubArea
}

// Days iterates the calendar days of an inclusive range.
func Days(dr models.DateRange) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if !dr.IsValid() {
			return
		}
		s := dr.StripHours()
		for d := s.First; !d.After(s.Last); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}
