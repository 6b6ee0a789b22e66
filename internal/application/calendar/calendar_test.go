package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustDate(v string) time.Time {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		panic(err)
	}
	return t
}

func dr(first, last string) models.DateRange {
	return models.NewDateRange(mustDate(first), mustDate(last))
}

func loc(code, nation, subArea string) models.Loc {
	return models.Loc{Code: models.LocCode(code), City: models.LocCode(code), Nation: nation, SubArea: subArea}
}

func airSeg(order, leg int, from, to models.Loc, date string, cxr string, flight int) *models.TravelSeg {
	return &models.TravelSeg{
		Order:          order,
		LegID:          leg,
		Type:           models.SegmentAir,
		Origin:         from,
		Destination:    to,
		BoardMultiCity: from.City,
		OffMultiCity:   to.City,
		DepartureDT:    mustDate(date).Add(10 * time.Hour),
		Carrier:        models.CarrierCode(cxr),
		FlightNumber:   flight,
		Unflown:        true,
	}
}

func itin(segs ...*models.TravelSeg) *models.Itin {
	return &models.Itin{
		TravelSegs:  segs,
		FareMarkets: []*models.FareMarket{{TravelSegs: segs}},
	}
}

var (
	dfw = loc("DFW", "US", "11")
	lax = loc("LAX", "US", "11")
	lon = loc("LON", "GB", "21")
	man = loc("MAN", "GB", "21")
	par = loc("PAR", "FR", "21")
	nrt = loc("NRT", "JP", "31")
)

func roundTripONDs() []*models.OriginDestination {
	return []*models.OriginDestination{
		{TravelDate: mustDate("2016-06-07"), CalDaysBefore: 3, CalDaysAfter: 3},
		{TravelDate: mustDate("2016-06-21"), CalDaysBefore: 3, CalDaysAfter: 3},
	}
}

func roundTripResult(t *testing.T) *R3ValidationResult {
	t.Helper()
	exc := itin(
		airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333),
		airSeg(2, 2, lax, dfw, "2016-06-21", "AA", 334),
	)
	newItin := itin(
		airSeg(1, 1, dfw, lax, "2016-06-08", "AA", 333),
		airSeg(2, 2, lax, dfw, "2016-06-22", "AA", 334),
	)
	return NewLegMapper(zap.NewNop(), nil).Build(context.Background(), exc, newItin, roundTripONDs())
}

func TestDateRangeForOnd(t *testing.T) {
	ond := &models.OriginDestination{CalDaysBefore: 3, CalDaysAfter: 2}

	assert.Equal(t, dr("2016-06-04", "2016-06-09"), DateRangeForOnd(ond, mustDate("2016-06-07")))
	assert.Equal(t, dr("2016-06-07", "2016-06-07"), DateRangeForOnd(nil, mustDate("2016-06-07")))
}

func TestIsEXSCalendar(t *testing.T) {
	trx := &models.ExchangeTrx{ONDs: []*models.OriginDestination{{}, {}}}
	assert.False(t, IsEXSCalendar(trx))

	trx.ONDs[1].CalDaysAfter = 3
	assert.True(t, IsEXSCalendar(trx))

	trx.ONDs[1] = &models.OriginDestination{CalDaysBefore: 3}
	assert.True(t, IsEXSCalendar(trx))
	assert.False(t, IsEXSCalendar(nil))
}

func TestValidateInputParams(t *testing.T) {
	trx := &models.ExchangeTrx{ONDs: []*models.OriginDestination{
		{CalDaysBefore: 3, CalDaysAfter: 3},
		{CalDaysBefore: 0, CalDaysAfter: 0},
	}}
	assert.True(t, ValidateInputParams(trx, nil))

	trx.ONDs[1].CalDaysAfter = 2
	assert.False(t, ValidateInputParams(trx, nil))
	assert.True(t, ValidateInputParams(trx, []int{0, 2, 3}))

	trx.TestRequest = true
	assert.True(t, ValidateInputParams(trx, nil))
}

func TestDateApplicationString(t *testing.T) {
	assert.Equal(t, "WHOLE PERIOD", DateApplicationString(models.CalendarWholePeriod))
	assert.Equal(t, "LATER DEPARTURE DATE", DateApplicationString(models.CalendarLaterDepartureDate))
	assert.Panics(t, func() { DateApplicationString(models.CalendarAppl(42)) })
}

func TestR3ValidationResult_RoundTrip(t *testing.T) {
	res := roundTripResult(t)

	require.True(t, res.IsValid())
	assert.Equal(t, dr("2016-06-04", "2016-06-24"), res.DateRange())
	assert.Equal(t, dr("2016-06-04", "2016-06-10"), res.DateRangeForOnd(0))
	assert.Equal(t, dr("2016-06-18", "2016-06-24"), res.DateRangeForOnd(1))

	assert.True(t, res.AddDateRange(dr("2016-06-05", "2016-06-13"), 0))
	assert.Equal(t, mustDate("2016-06-05"), res.DateRange().First)
	assert.Equal(t, mustDate("2016-06-24"), res.DateRange().Last)
}

func TestLegMapper_NilONDsAreDropped(t *testing.T) {
	exc := itin(airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 333))
	newItin := itin(airSeg(1, 1, dfw, lax, "2016-06-08", "AA", 333))
	onds := []*models.OriginDestination{nil, roundTripONDs()[0], nil}

	var res *R3ValidationResult
	require.NotPanics(t, func() {
		res = NewLegMapper(zap.NewNop(), nil).Build(context.Background(), exc, newItin, onds)
	})
	assert.Equal(t, 1, res.OndCount())
	assert.Equal(t, 0, res.OndIndexForSeg(exc.TravelSegs[0]))
	assert.Equal(t, dr("2016-06-04", "2016-06-10"), res.DateRangeForOnd(0))
	assert.Nil(t, onds[0], "caller slice must stay untouched")
}

func TestR3ValidationResult_DisjointInvalidatesAndSticks(t *testing.T) {
	res := roundTripResult(t)

	assert.False(t, res.AddDateRange(dr("2016-05-01", "2016-05-20"), 0))
	assert.False(t, res.IsValid())
	assert.False(t, res.DateRange().IsValid())

	assert.False(t, res.AddDateRange(dr("2016-06-18", "2016-06-24"), 1))
	assert.False(t, res.IsValid())
}

func TestR3ValidationResult_Intersection(t *testing.T) {
	res := roundTripResult(t)

	assert.Equal(t, dr("2016-06-08", "2016-06-10"), res.Intersection(dr("2016-06-08", "2016-06-30"), 0))
	assert.Equal(t, dr("2016-06-04", "2016-06-10"), res.DateRangeForOnd(0))
}

func TestR3ValidationResult_CloneIsIndependent(t *testing.T) {
	res := roundTripResult(t)
	clone := res.Clone()

	clone.AddDateRange(dr("2016-05-01", "2016-05-02"), 0)

	assert.False(t, clone.IsValid())
	assert.True(t, res.IsValid())
}

func TestR3ValidationResult_OutOfBoundsPanics(t *testing.T) {
	res := roundTripResult(t)

	assert.Panics(t, func() { res.AddDateRange(dr("2016-06-05", "2016-06-06"), 2) })
	assert.Panics(t, func() { res.DateRangeForOnd(-1) })
}

func TestLegMapper_SameCity(t *testing.T) {
	res := roundTripResult(t)

	assert.Equal(t, 0, res.OndIndexForSeg(&models.TravelSeg{LegID: 1}))
	assert.Equal(t, 1, res.OndIndexForSeg(&models.TravelSeg{LegID: 2}))
	assert.Equal(t, InvalidOndIndex, res.OndIndexForSeg(&models.TravelSeg{LegID: 7}))
}

type cityResolverStub map[models.LocCode]models.LocCode

func (s cityResolverStub) MultiTransportCity(_ context.Context, code models.LocCode) (models.LocCode, error) {
	if city, ok := s[code]; ok {
		return city, nil
	}
	return "", errors.New("unknown location")
}

func TestLegMapper_CityResolverAndCountryFallback(t *testing.T) {
	lhr := loc("LHR", "GB", "21")
	lgw := loc("LGW", "GB", "21")

	exc := itin(
		airSeg(1, 1, dfw, lhr, "2016-06-07", "AA", 50),
		airSeg(2, 2, man, dfw, "2016-06-21", "AA", 51),
	)
	newItin := itin(
		airSeg(1, 1, dfw, lgw, "2016-06-07", "AA", 52),
		airSeg(2, 2, lon, dfw, "2016-06-21", "AA", 53),
	)
	resolver := cityResolverStub{"LHR": "LON", "LGW": "LON", "DFW": "DFW"}

	res := NewLegMapper(zap.NewNop(), resolver).Build(context.Background(), exc, newItin, roundTripONDs())

	// LHR and LGW share the LON city; MAN only matches LON by country.
	assert.Equal(t, 0, res.OndIndexForSeg(exc.TravelSegs[0]))
	assert.Equal(t, 1, res.OndIndexForSeg(exc.TravelSegs[1]))
}

func TestLegMapper_ForceMatchIsTotal(t *testing.T) {
	exc := itin(
		airSeg(1, 1, par, nrt, "2016-06-07", "AF", 1),
		airSeg(2, 2, nrt, par, "2016-06-21", "AF", 2),
		airSeg(3, 3, par, nrt, "2016-07-01", "AF", 3),
	)
	newItin := itin(
		airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 1),
		airSeg(2, 2, lax, dfw, "2016-06-21", "AA", 2),
	)

	res := NewLegMapper(zap.NewNop(), nil).Build(context.Background(), exc, newItin, roundTripONDs())

	for _, seg := range exc.TravelSegs {
		assert.NotEqual(t, InvalidOndIndex, res.OndIndexForSeg(seg), "leg %d unmapped", seg.LegID)
	}
	assert.Equal(t, 0, res.OndIndexForSeg(exc.TravelSegs[0]))
	assert.Equal(t, 1, res.OndIndexForSeg(exc.TravelSegs[1]))
	assert.Equal(t, 1, res.OndIndexForSeg(exc.TravelSegs[2]))
}

func TestLegMapper_SkippedONDShiftsIndex(t *testing.T) {
	onds := []*models.OriginDestination{
		{TravelDate: mustDate("2016-06-07"), SkippedOND: 1},
		{TravelDate: mustDate("2016-06-21")},
	}
	exc := itin(
		airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 1),
		airSeg(2, 2, lon, par, "2016-06-21", "BA", 2),
	)
	newItin := itin(
		airSeg(1, 1, dfw, lax, "2016-06-07", "AA", 1),
		airSeg(2, 2, lax, lon, "2016-06-14", "AA", 9),
		airSeg(3, 3, lon, par, "2016-06-21", "BA", 2),
	)

	res := NewLegMapper(zap.NewNop(), nil).Build(context.Background(), exc, newItin, onds)

	assert.Equal(t, 0, res.OndIndexForSeg(exc.TravelSegs[0]))
	assert.Equal(t, 1, res.OndIndexForSeg(exc.TravelSegs[1]))
}

func TestDays(t *testing.T) {
	var got []string
	for d := range Days(dr("2016-06-29", "2016-07-02")) {
		got = append(got, d.Format(time.DateOnly))
	}
	assert.Equal(t, []string{"2016-06-29", "2016-06-30", "2016-07-01", "2016-07-02"}, got)

	for range Days(models.DateRange{}) {
		t.Fatal("empty range must not yield")
	}
}
