package merger

import (
	"context"
	"testing"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/application/calendar"
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/reissue"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeMock struct {
	seqs    []models.ReissueSequence
	cxrAppl map[int][]models.CarrierApplicationInfo
}

func (m *storeMock) ReissueSequences(context.Context, models.Vendor, int, time.Time) ([]models.ReissueSequence, error) {
	return m.seqs, nil
}

func (m *storeMock) CarrierApplications(_ context.Context, _ models.Vendor, itemNo int) ([]models.CarrierApplicationInfo, error) {
	return m.cxrAppl[itemNo], nil
}

func (m *storeMock) GeoRuleItems(context.Context, models.Vendor, int) ([]models.GeoRuleItem, error) {
	return nil, nil
}

func (m *storeMock) TSIInfo(context.Context, int) (models.TSIInfo, error) {
	return models.TSIInfo{}, derr.ErrRuleNotFound
}

func (m *storeMock) DateOverrideRuleItems(context.Context, models.Vendor, int) ([]models.DateOverrideRuleItem, error) {
	return nil, nil
}

func (m *storeMock) VoluntaryChanges(context.Context, models.Vendor, int, time.Time) (models.VoluntaryChangesInfo, error) {
	return models.VoluntaryChangesInfo{}, derr.ErrRuleNotFound
}

func mustDate(v string) time.Time {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		panic(err)
	}
	return t
}

func seqWith(seqNo int, mutate func(*models.ReissueSequence)) models.ReissueSequence {
	seq := models.ReissueSequence{
		Vendor:             "ATP",
		ItemNo:             700,
		SeqNo:              seqNo,
		FlightNoInd:        models.Blank,
		PortionInd:         models.PortionNotApply,
		OutboundInd:        models.OutboundNotApply,
		StopoverConnectInd: models.StopConxNotApply,
		FirstBreakInd:      models.Blank,
		DateInd:            models.DateIndNotApply,
		CarrierRestInd:     models.CxrRestNotApply,
		AgencyLocRestInd:   models.AgencyNotApply,
	}
	if mutate != nil {
		mutate(&seq)
	}
	return seq
}

// journey builds DFW-ORD-LAX (connection at ORD) and LAX-DFW back.
func journey(t *testing.T) (*reissue.Scope, *models.PaxTypeFare) {
	t.Helper()
	loc := func(code string) models.Loc {
		return models.Loc{Code: models.LocCode(code), City: models.LocCode(code), Nation: "US"}
	}
	mk := func(order, leg int, from, to, date string) *models.TravelSeg {
		return &models.TravelSeg{
			Order: order, LegID: leg,
			Origin: loc(from), Destination: loc(to),
			BoardMultiCity: models.LocCode(from), OffMultiCity: models.LocCode(to),
			DepartureDT: mustDate(date), Carrier: "AA", FlightNumber: 100 + order, Unflown: true,
		}
	}

	s1, s2 := mk(1, 1, "DFW", "ORD", "2016-06-07"), mk(2, 1, "ORD", "LAX", "2016-06-07")
	s3 := mk(3, 2, "LAX", "DFW", "2016-06-21")
	s2.Stopover = true
	outFm := &models.FareMarket{TravelSegs: []*models.TravelSeg{s1, s2}, GoverningCarrier: "AA"}
	inFm := &models.FareMarket{TravelSegs: []*models.TravelSeg{s3}, GoverningCarrier: "AA"}
	exc := &models.Itin{TravelSegs: []*models.TravelSeg{s1, s2, s3}, FareMarkets: []*models.FareMarket{outFm, inFm}, ValidatingCarrier: "AA"}

	n1, n2, n3 := mk(1, 1, "DFW", "ORD", "2016-06-08"), mk(2, 1, "ORD", "LAX", "2016-06-08"), mk(3, 2, "LAX", "DFW", "2016-06-21")
	newItin := &models.Itin{
		TravelSegs:        []*models.TravelSeg{n1, n2, n3},
		FareMarkets:       []*models.FareMarket{{TravelSegs: []*models.TravelSeg{n1, n2}, GoverningCarrier: "AA"}, {TravelSegs: []*models.TravelSeg{n3}, GoverningCarrier: "AA"}},
		ValidatingCarrier: "AA",
	}

	trx := &models.ExchangeTrx{
		Type:         models.TrxReshop,
		ExchangeItin: exc,
		NewItin:      newItin,
		ONDs: []*models.OriginDestination{
			{TravelDate: mustDate("2016-06-07"), CalDaysBefore: 3, CalDaysAfter: 3},
			{TravelDate: mustDate("2016-06-21"), CalDaysBefore: 3, CalDaysAfter: 3},
		},
	}
	sc := &reissue.Scope{
		Trx:      trx,
		Calendar: calendar.NewLegMapper(nil, nil).Build(context.Background(), exc, newItin, trx.ONDs),
	}
	return sc, &models.PaxTypeFare{FareMarket: outFm, Vendor: "ATP", Carrier: "AA", FareCompNumber: 1}
}

func newMerger(store *storeMock) *Tab988Merger {
	return NewTab988Merger(nil, reissue.NewReissueTable(nil, store), store)
}

var rec3 = models.VoluntaryChangesInfo{Vendor: "ATP", ItemNo: 10, ReissueTblItemNo: 700}

func TestMergeFlightNumber(t *testing.T) {
	x := func(ind byte) models.ReissueSequence { return seqWith(1, func(s *models.ReissueSequence) { s.FlightNoInd = ind }) }

	assert.False(t, MergeFlightNumber([]models.ReissueSequence{x('X'), x('X'), x(' '), x('X')}))
	assert.True(t, MergeFlightNumber([]models.ReissueSequence{x('X'), x('X'), x('X'), x('X')}))
	assert.False(t, MergeFlightNumber(nil))
}

func TestMergePortion_IsIntersection(t *testing.T) {
	lists := []models.Set[int]{
		models.NewSet(1, 2, 3, 4),
		models.NewSet(2, 3, 4),
		models.NewSet(0, 2, 4, 9),
	}

	merged := MergePortion(lists)

	assert.Equal(t, []int{2, 4}, merged.Sorted())
	for _, l := range lists {
		for v := range merged {
			assert.True(t, l.Contains(v))
		}
	}
	assert.Empty(t, MergePortion(append(lists, models.NewSet[int]())))
}

func TestForcedConnections(t *testing.T) {
	_, ptf := journey(t)

	assert.Equal(t, []models.LocCode{"ORD"}, ForcedConnections(ptf.FareMarket, models.StopConxConnection).Sorted())
	assert.Empty(t, ForcedConnections(ptf.FareMarket, models.StopConxStopover))
	assert.Empty(t, ForcedConnections(ptf.FareMarket, models.StopConxNotApply))
}

func TestCollectForcedConnections(t *testing.T) {
	a := models.NewSet[models.LocCode]("ORD")
	b := models.NewSet[models.LocCode]("DEN")

	assert.Equal(t, []models.LocCode{"DEN", "ORD"}, CollectForcedConnections([]models.Set[models.LocCode]{a, b}).Sorted())
	assert.Empty(t, CollectForcedConnections([]models.Set[models.LocCode]{a, models.NewSet[models.LocCode](), b}))
}

func TestMergeFareByteCxrAppl(t *testing.T) {
	one := models.FareByteCxrAppl{
		Restricted:   models.NewSet[models.CarrierCode]("BA", "LH"),
		Applicable:   models.NewSet[models.CarrierCode]("AA"),
		GovCxrPrefer: true,
	}

	alone := MergeFareByteCxrAppl([]models.FareByteCxrAppl{one})
	twice := MergeFareByteCxrAppl([]models.FareByteCxrAppl{one, one})
	assert.True(t, alone.Restricted.Equal(twice.Restricted))
	assert.True(t, alone.Applicable.Equal(twice.Applicable))
	assert.Equal(t, alone.GovCxrPrefer, twice.GovCxrPrefer)

	other := models.FareByteCxrAppl{
		Restricted: models.NewSet[models.CarrierCode]("LH", "AF"),
		Applicable: models.NewSet[models.CarrierCode]("BA"),
	}
	merged := MergeFareByteCxrAppl([]models.FareByteCxrAppl{one, other})
	assert.Equal(t, []models.CarrierCode{"LH"}, merged.Restricted.Sorted())
	assert.Equal(t, []models.CarrierCode{"AA", "BA"}, merged.Applicable.Sorted())
	assert.False(t, merged.GovCxrPrefer)

	wildcard := models.FareByteCxrAppl{Restricted: models.NewSet(models.AnyCarrier)}
	merged = MergeFareByteCxrAppl([]models.FareByteCxrAppl{wildcard, other})
	assert.Equal(t, []models.CarrierCode{"AF", "LH"}, merged.Restricted.Sorted())
}

func TestMergeFareByteCxrAppl_AnyApplicableKeepsRestrictions(t *testing.T) {
	allButBA := models.FareByteCxrAppl{
		Restricted: models.NewSet[models.CarrierCode]("BA"),
		Applicable: models.NewSet(models.AnyCarrier),
	}

	alone := MergeFareByteCxrAppl([]models.FareByteCxrAppl{allButBA})
	assert.Equal(t, []models.CarrierCode{"BA"}, alone.Restricted.Sorted())
	assert.Equal(t, []models.CarrierCode{models.AnyCarrier}, alone.Applicable.Sorted())

	twice := MergeFareByteCxrAppl([]models.FareByteCxrAppl{allButBA, allButBA})
	assert.True(t, alone.Restricted.Equal(twice.Restricted))
	assert.True(t, alone.Applicable.Equal(twice.Applicable))

	baAllowed := models.FareByteCxrAppl{
		Restricted: models.NewSet[models.CarrierCode]("BA", "LH"),
		Applicable: models.NewSet[models.CarrierCode]("BA"),
	}
	merged := MergeFareByteCxrAppl([]models.FareByteCxrAppl{allButBA, baAllowed})
	assert.Empty(t, merged.Restricted.Sorted())
	assert.Equal(t, []models.CarrierCode{models.AnyCarrier, "BA"}, merged.Applicable.Sorted())
}

func TestMerge_GroupsByDateIndicator(t *testing.T) {
	sc, ptf := journey(t)
	store := &storeMock{seqs: []models.ReissueSequence{
		seqWith(1, func(s *models.ReissueSequence) {
			s.FlightNoInd = 'X'
			s.PortionInd = models.PortionFirstFlightComponent
			s.StopoverConnectInd = models.StopConxBoth
		}),
		seqWith(2, func(s *models.ReissueSequence) {
			s.FlightNoInd = 'X'
			s.PortionInd = models.PortionFirstFlightCoupon
			s.StopoverConnectInd = models.StopConxConnection
			s.FirstBreakInd = 'X'
		}),
		seqWith(3, func(s *models.ReissueSequence) { s.DateInd = models.DateIndLaterDepartureDate }),
	}}

	res, err := newMerger(store).Merge(context.Background(), sc, ptf, rec3, reissue.Options{})
	require.NoError(t, err)
	require.True(t, res.Matched())
	require.Len(t, res.Constraints, 2)

	whole := res.Constraints[0]
	assert.Equal(t, models.CalendarWholePeriod, whole.CalendarAppl)
	assert.Equal(t, []int{1, 2}, whole.SeqNos)
	assert.Equal(t, []int{1}, whole.PortionMerge.Sorted())
	assert.Equal(t, []models.LocCode{"ORD"}, whole.ForcedConnections.Sorted())
	assert.True(t, whole.FirstBreakStatus)
	assert.True(t, whole.FlightNumberRestriction)
	assert.True(t, whole.FareByteCxrAppl.GovCxrPrefer)
	assert.Equal(t, 0, whole.OndIndex)
	assert.Equal(t, models.NewDateRange(mustDate("2016-06-04"), mustDate("2016-06-10")), whole.CalendarRange)

	later := res.Constraints[1]
	assert.Equal(t, models.CalendarLaterDepartureDate, later.CalendarAppl)
	assert.Equal(t, []int{3}, later.SeqNos)
	assert.False(t, later.FlightNumberRestriction)
	assert.Equal(t, models.NewDateRange(mustDate("2016-06-08"), mustDate("2016-06-10")), later.CalendarRange)
}

func TestMerge_EmptyMatchIsNoConstraint(t *testing.T) {
	sc, ptf := journey(t)
	store := &storeMock{seqs: []models.ReissueSequence{
		seqWith(1, func(s *models.ReissueSequence) { s.ProcessingInd = models.TagCancelAndStartOver }),
	}}

	res, err := newMerger(store).Merge(context.Background(), sc, ptf, rec3, reissue.Options{})
	require.NoError(t, err)
	assert.False(t, res.Matched())
	assert.Empty(t, res.Constraints)
}

func TestMerge_PSSCarriers(t *testing.T) {
	sc, ptf := journey(t)
	sc.Trx.PSSCarriers = models.NewSet[models.CarrierCode]("BA")
	store := &storeMock{
		seqs: []models.ReissueSequence{
			seqWith(1, nil),
			seqWith(2, func(s *models.ReissueSequence) { s.FareCxrApplTblItemNo = 40 }),
		},
		cxrAppl: map[int][]models.CarrierApplicationInfo{40: {{Carrier: "BA", ApplInd: models.CarrierApplAllow}}},
	}

	res, err := newMerger(store).Merge(context.Background(), sc, ptf, rec3, reissue.Options{})
	require.NoError(t, err)
	require.Len(t, res.Sequences, 1)
	assert.Equal(t, 2, res.Sequences[0].SeqNo, "governing carrier AA is not in the PSS list")
	assert.Equal(t, []models.CarrierCode{"BA"}, res.Constraints[0].FareByteCxrAppl.Applicable.Sorted())
	assert.False(t, res.Constraints[0].FareByteCxrAppl.GovCxrPrefer)
}

func TestMerge_MissingFare(t *testing.T) {
	sc, _ := journey(t)

	_, err := newMerger(&storeMock{}).Merge(context.Background(), sc, nil, rec3, reissue.Options{})
	assert.ErrorIs(t, err, derr.ErrDataErrorDetected)
}
