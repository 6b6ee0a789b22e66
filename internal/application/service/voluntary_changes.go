package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/application/calendar"
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/merger"
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/reissue"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Request is one fare usage evaluated against one category 31 record 3.
type Request struct {
	Trx *models.ExchangeTrx
	// Calendar is the transaction's leg to OND mapping. It is built on demand for calendar
	// transactions and never mutated; every evaluation narrows a private clone.
	Calendar    *calendar.R3ValidationResult
	FareUsage   *models.FareUsage
	PricingUnit *models.PricingUnit
	Rec3        models.VoluntaryChangesInfo
	Diag        ports.DiagCollector
}

type Outcome struct {
	Result      models.Record3ReturnType
	Sequences   []models.ReissueSequence
	Constraints []models.R3SeqsConstraint
	// Calendar is the narrowed copy, nil outside calendar transactions.
	Calendar *calendar.R3ValidationResult
	// OverridingFc is the international fare component number taking over the record 3.
	OverridingFc int
}

type VoluntaryChanges struct {
	log         *zap.Logger
	store       ports.RuleStore
	legMapper   *calendar.LegMapper
	table       *reissue.ReissueTable
	merger      *merger.Tab988Merger
	allowedDays []int
}

func NewVoluntaryChanges(log *zap.Logger, store ports.RuleStore, resolver ports.CityResolver, allowedDays []int) *VoluntaryChanges {
	if log == nil {
		log = zap.NewNop()
	}

	table := reissue.NewReissueTable(log.Named("t988"), store)
	return &VoluntaryChanges{
		log:         log,
		store:       store,
		legMapper:   calendar.NewLegMapper(log.Named("calendar"), resolver),
		table:       table,
		merger:      merger.NewTab988Merger(log.Named("merger"), table, store),
		allowedDays: allowedDays,
	}
}

// BuildCalendar maps the exchanged legs to the transaction's ONDs. It returns nil for
// transactions without a calendar window.
func (s *VoluntaryChanges) BuildCalendar(ctx context.Context, trx *models.ExchangeTrx) *calendar.R3ValidationResult {
	if !calendar.IsEXSCalendar(trx) {
		return nil
	}
	return s.legMapper.Build(ctx, trx.ExchangeItin, trx.NewItin, trx.ONDs)
}

// Record3 loads the category 31 record 3 version in force on the transaction's application date.
func (s *VoluntaryChanges) Record3(ctx context.Context, trx *models.ExchangeTrx, vendor models.Vendor, itemNo int) (models.VoluntaryChangesInfo, error) {
	const op = "service.VoluntaryChanges.Record3"
	if trx == nil {
		return models.VoluntaryChangesInfo{}, fmt.Errorf("%s: %w", op, derr.ErrDataErrorDetected)
	}

	date := trx.OriginalTicketDate
	if date.IsZero() {
		date = trx.CurrentTicketDate
	}
	rec3, err := s.store.VoluntaryChanges(ctx, vendor, itemNo, date)
	if err != nil {
		return models.VoluntaryChangesInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	return rec3, nil
}

func (s *VoluntaryChanges) Validate(ctx context.Context, req Request) (Outcome, error) {
	const op = "service.VoluntaryChanges.Validate"
	tracer := otel.Tracer("exchange-rules/service")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	if req.Trx == nil || req.FareUsage == nil || req.FareUsage.PaxTypeFare == nil || req.FareUsage.PaxTypeFare.FareMarket == nil {
		span.SetStatus(otelcodes.Error, "missing fare usage")
		return Outcome{}, fmt.Errorf("%s: %w", op, derr.ErrDataErrorDetected)
	}

	trx, ptf, rec3 := req.Trx, req.FareUsage.PaxTypeFare, req.Rec3
	span.SetAttributes(
		attribute.String("rec3.vendor", string(rec3.Vendor)),
		attribute.Int("rec3.item_no", rec3.ItemNo),
		attribute.Int("fare.comp_number", ptf.FareCompNumber),
	)
	logger := s.log.With(
		zap.String("op", op),
		zap.String("vendor", string(rec3.Vendor)),
		zap.Int("item_no", rec3.ItemNo),
		zap.Int("fare_comp", ptf.FareCompNumber),
	)

	ev := &evaluation{
		svc:    s,
		req:    req,
		ptf:    ptf,
		fm:     ptf.FareMarket,
		fcInfo: trx.FareCompInfo(ptf.FareCompNumber),
		logger: logger,
	}

	if calendar.IsEXSCalendar(trx) {
		if !calendar.ValidateInputParams(trx, s.allowedDays) {
			logger.Warn("calendar span outside allowed days")
			span.SetStatus(otelcodes.Error, "invalid calendar span")
			return Outcome{}, fmt.Errorf("%s: calendar span: %w", op, derr.ErrInvalidRequest)
		}
		cal := req.Calendar
		if cal == nil {
			cal = s.BuildCalendar(ctx, trx)
		}
		ev.cal = cal.Clone()
	}

	out, err := ev.run(ctx)
	if err != nil {
		logger.Warn("record 3 validation failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "validation error")
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}

	span.SetAttributes(attribute.String("rec3.result", out.Result.String()))
	span.SetStatus(otelcodes.Ok, "ok")
	ports.Diag(req.Diag, "R3 ITEM %d FC %d: %s", rec3.ItemNo, ptf.FareCompNumber, out.Result)
	logger.Info("record 3 validated", zap.Stringer("result", out.Result), zap.Int("sequences", len(out.Sequences)))
	return out, nil
}

// evaluation is the state of one Validate call.
type evaluation struct {
	svc    *VoluntaryChanges
	req    Request
	ptf    *models.PaxTypeFare
	fm     *models.FareMarket
	fcInfo *models.FareCompInfo
	cal    *calendar.R3ValidationResult
	logger *zap.Logger
}

func (e *evaluation) fail(step string) (Outcome, error) {
	ports.Diag(e.req.Diag, "  %s: FAIL", step)
	e.logger.Debug("record 3 check failed", zap.String("check", step))
	return Outcome{Result: models.Record3Fail, Calendar: e.cal}, nil
}

func (e *evaluation) run(ctx context.Context) (Outcome, error) {
	trx, rec3 := e.req.Trx, e.req.Rec3

	if trx.Type == models.TrxExchangeMIP && !e.isInPreselectedRec3() && !trx.TestRequest {
		return e.fail("PRESELECTED R3")
	}

	if e.fcInfo != nil {
		if failed, known := e.fcInfo.FailedByPrevReissued(rec3.ItemNo); known && failed {
			return e.fail("PREVIOUS REISSUE")
		}
	}

	if step, ok, err := e.matchR3(ctx); err != nil || !ok {
		if err != nil {
			return Outcome{}, err
		}
		return e.fail(step)
	}

	out := Outcome{Result: models.Record3Pass, Calendar: e.cal}

	// An international override only softens the verdict; table 988 still has to match.
	if number, ok, err := e.shouldOverrideWithIntlFc(ctx); err != nil {
		return Outcome{}, err
	} else if ok {
		if e.fcInfo != nil {
			e.fcInfo.AddOverridingFc(number)
		}
		ports.Diag(e.req.Diag, "  OVERRIDDEN BY INTERNATIONAL FC %d", number)
		trace.SpanFromContext(ctx).AddEvent("rec3.intl_override", trace.WithAttributes(attribute.Int("fare.overriding_fc", number)))
		out.Result, out.OverridingFc = models.Record3SoftPass, number
	}

	if rec3.ReissueTblItemNo != 0 {
		sc := &reissue.Scope{Trx: trx, Calendar: e.cal, PricingUnit: e.req.PricingUnit, Diag: e.req.Diag}
		opts := reissue.Options{ApplDate: e.applDate(), Prevalidated: trx.Type == models.TrxExchangeMIP && e.isInPreselectedRec3()}

		if e.cal != nil || trx.Type == models.TrxReshop {
			res, err := e.svc.merger.Merge(ctx, sc, e.ptf, rec3, opts)
			if err != nil {
				return Outcome{}, err
			}
			out.Sequences, out.Constraints = res.Sequences, res.Constraints
		} else {
			seqs, err := e.svc.table.MatchedT988Seqs(ctx, sc, e.fm, rec3, opts)
			if err != nil {
				return Outcome{}, err
			}
			out.Sequences = seqs
		}
		if len(out.Sequences) == 0 {
			return e.fail("T988")
		}
	}

	if e.req.PricingUnit == nil {
		ports.Diag(e.req.Diag, "  NO PRICING UNIT: SOFTPASS")
		out.Result = models.Record3SoftPass
	}
	return out, nil
}

func (e *evaluation) applDate() time.Time {
	if !e.req.Trx.OriginalTicketDate.IsZero() {
		return e.req.Trx.OriginalTicketDate
	}
	return e.req.Trx.CurrentTicketDate
}

// isInPreselectedRec3 looks the record 3 up in the prevalidation cache. Under calendar the
// cached window must also hold the fare component departure.
func (e *evaluation) isInPreselectedRec3() bool {
	byItem, ok := e.req.Trx.PreselectedRec3[e.ptf.FareCompNumber]
	if !ok {
		return false
	}
	window, ok := byItem[e.req.Rec3.ItemNo]
	if !ok {
		return false
	}
	if e.cal == nil || !window.IsValid() || len(e.fm.TravelSegs) == 0 {
		return true
	}
	return window.StripHours().Contains(e.fm.TravelSegs[0].DepartureDate())
}

func (e *evaluation) matchR3(ctx context.Context) (string, bool, error) {
	checks := []struct {
		name  string
		match func() (bool, error)
	}{
		{"NUMBER OF REISSUES", func() (bool, error) { return e.chkNumOfReissue(), nil }},
		{"WAIVER", func() (bool, error) { return e.req.Rec3.WaiverTblItemNo == 0, nil }},
		{"PASSENGER TYPE", func() (bool, error) { return e.matchPsgType(), nil }},
		{"TICKET VALIDITY", func() (bool, error) { return e.matchTktValidity(), nil }},
		{"ADVANCE RESERVATION", func() (bool, error) { return e.matchAdvResTkt(), nil }},
		{"SAME AIRPORT", func() (bool, error) { return e.matchSameAirport(), nil }},
		{"TICKETING TIME LIMIT", func() (bool, error) { return e.matchTktTimeLimit(), nil }},
		{"OVERRIDE DATE TABLE", func() (bool, error) { return e.matchOverrideDateTable(ctx) }},
	}

	for _, check := range checks {
		ok, err := check.match()
		if err != nil {
			return check.name, false, err
		}
		if !ok {
			return check.name, false, nil
		}
		ports.Diag(e.req.Diag, "  %s: PASS", check.name)
	}
	return "", true, nil
}

func (e *evaluation) journeyStarted() bool {
	itin := e.req.Trx.ExchangeItin
	return itin != nil && len(itin.TravelSegs) > 0 && !itin.TravelSegs[0].Unflown
}

func (e *evaluation) fareSegs() []*models.TravelSeg {
	if len(e.req.FareUsage.TravelSegs) > 0 {
		return e.req.FareUsage.TravelSegs
	}
	return e.fm.TravelSegs
}

func (e *evaluation) chkNumOfReissue() bool {
	trx, rec3 := e.req.Trx, e.req.Rec3

	exceeded := rec3.ReissuesAllowed > 0 && trx.ReissueCount >= rec3.ReissuesAllowed
	if e.fcInfo != nil {
		e.fcInfo.SetFailByPrevReissued(rec3.ItemNo, exceeded)
	}
	if exceeded {
		return false
	}

	if !models.IsSet(rec3.ChangeInd) {
		return true
	}

	found := calendar.NewChangeFinder(e.cal, trx.NewItin).Find(e.fareSegs())
	var ok bool
	switch rec3.ChangeInd {
	case models.ChangeIndNotPermitted:
		ok = !found.Changed
	case models.ChangeIndP:
		ok = !found.Changed || !e.journeyStarted()
	case models.ChangeIndJ:
		ok = !found.Changed || e.journeyStarted()
	}
	if !ok || e.cal == nil {
		return ok
	}

	for _, obs := range found.Observations {
		if !e.cal.AddDateRange(obs.Range, obs.OndIndex) {
			return false
		}
	}
	return true
}

func (e *evaluation) matchPsgType() bool {
	psg := e.req.Rec3.PsgType
	return psg == "" || psg == e.ptf.PaxType
}

// matchTktValidity requires the new travel to commence within one year of the original ticket.
func (e *evaluation) matchTktValidity() bool {
	if !models.IsSet(e.req.Rec3.TktValidityInd) {
		return true
	}
	trx := e.req.Trx
	if trx.OriginalTicketDate.IsZero() || trx.NewItin == nil || len(trx.NewItin.TravelSegs) == 0 {
		return true
	}
	limit := models.StripHours(trx.OriginalTicketDate).AddDate(1, 0, 0)
	return !trx.NewItin.TravelSegs[0].DepartureDate().After(limit)
}

func (e *evaluation) matchAdvResTkt() bool {
	rec3 := e.req.Rec3
	if rec3.AdvResPeriod <= 0 || !models.IsSet(rec3.AdvResUnit) {
		return true
	}

	dep, ok := e.advResDeparture()
	if !ok {
		return true
	}

	var deadline time.Time
	switch rec3.AdvResUnit {
	case models.AdvResUnitHour:
		deadline = dep.Add(-time.Duration(rec3.AdvResPeriod) * time.Hour)
	case models.AdvResUnitDay:
		deadline = dep.AddDate(0, 0, -rec3.AdvResPeriod)
	case models.AdvResUnitMonth:
		deadline = dep.AddDate(0, -rec3.AdvResPeriod, 0)
	default:
		return false
	}
	return !e.req.Trx.CurrentTicketDate.After(deadline)
}

// advResDeparture is the new departure the advance reservation period counts back from.
func (e *evaluation) advResDeparture() (time.Time, bool) {
	newItin := e.req.Trx.NewItin
	if newItin == nil || len(newItin.TravelSegs) == 0 {
		return time.Time{}, false
	}
	if e.req.Rec3.AdvResTo != models.AdvResToFareComponent || len(e.fm.TravelSegs) == 0 {
		return newItin.TravelSegs[0].DepartureDT, true
	}
	board := e.fm.TravelSegs[0].BoardMultiCity
	for _, seg := range newItin.TravelSegs {
		if seg.BoardMultiCity == board {
			return seg.DepartureDT, true
		}
	}
	return time.Time{}, false
}

// matchSameAirport requires the new fare market to keep the original airports; the outcome is memoized per fare component.
func (e *evaluation) matchSameAirport() bool {
	if !models.IsSet(e.req.Rec3.SameAirportInd) {
		return true
	}
	if e.fcInfo != nil {
		switch e.fcInfo.SameAirportResult() {
		case models.TriPass:
			return true
		case models.TriFail:
			return false
		}
	}

	ok := e.sameAirports()
	if e.fcInfo != nil {
		result := models.TriFail
		if ok {
			result = models.TriPass
		}
		e.fcInfo.SetSameAirportResult(result)
	}
	return ok
}

func (e *evaluation) sameAirports() bool {
	newItin := e.req.Trx.NewItin
	if newItin == nil || len(e.fm.TravelSegs) == 0 {
		return true
	}
	orig, dest := e.fm.Origin(), e.fm.Destination()
	for _, candidate := range newItin.FareMarkets {
		segs := candidate.TravelSegs
		if len(segs) == 0 || segs[0].BoardMultiCity != e.fm.TravelSegs[0].BoardMultiCity {
			continue
		}
		if segs[len(segs)-1].OffMultiCity != e.fm.TravelSegs[len(e.fm.TravelSegs)-1].OffMultiCity {
			continue
		}
		return candidate.Origin().Code == orig.Code && candidate.Destination().Code == dest.Code
	}
	return true
}

func (e *evaluation) matchTktTimeLimit() bool {
	if !models.IsSet(e.req.Rec3.TktTimeLimitInd) || e.ptf.LastTicketDate.IsZero() {
		return true
	}
	return !e.req.Trx.CurrentTicketDate.After(e.ptf.LastTicketDate)
}

// matchOverrideDateTable checks the original travel once, or every day of the OND window
// under calendar, narrowing the window to the span of passing days.
func (e *evaluation) matchOverrideDateTable(ctx context.Context) (bool, error) {
	rec3 := e.req.Rec3
	if rec3.OverrideDateTblItemNo == 0 {
		return true, nil
	}

	items, err := e.svc.store.DateOverrideRuleItems(ctx, rec3.Vendor, rec3.OverrideDateTblItemNo)
	if err != nil && !errors.Is(err, derr.ErrRuleNotFound) {
		return false, fmt.Errorf("override date table %d: %w", rec3.OverrideDateTblItemNo, err)
	}
	if len(items) == 0 || len(e.fm.TravelSegs) == 0 {
		return false, nil
	}

	tktDate := e.req.Trx.OriginalTicketDate
	first := e.fm.TravelSegs[0]
	ondIndex := calendar.InvalidOndIndex
	if e.cal != nil {
		ondIndex = e.cal.OndIndexForSeg(first)
	}
	if ondIndex == calendar.InvalidOndIndex {
		return OverrideDateMatches(items, first.DepartureDate(), tktDate, tktDate), nil
	}

	var passing models.DateRange
	for day := range calendar.Days(e.cal.DateRangeForOnd(ondIndex)) {
		if !OverrideDateMatches(items, day, tktDate, tktDate) {
			continue
		}
		if passing.First.IsZero() {
			passing.First = day
		}
		passing.Last = day
	}
	if !passing.IsValid() {
		return false, nil
	}
	return e.cal.AddDateRange(passing, ondIndex), nil
}

// OverrideDateMatches reports whether any override row covers the travel, ticketing and
// reservation dates. Zero bounds are open.
func OverrideDateMatches(items []models.DateOverrideRuleItem, tvlDate, tktDate, resDate time.Time) bool {
	within := func(d, eff, disc time.Time) bool {
		if d.IsZero() {
			return true
		}
		d = models.StripHours(d)
		if !eff.IsZero() && d.Before(models.StripHours(eff)) {
			return false
		}
		return disc.IsZero() || !d.After(models.StripHours(disc))
	}

	for _, item := range items {
		if within(tvlDate, item.TvlEffDate, item.TvlDiscDate) &&
			within(tktDate, item.TktEffDate, item.TktDiscDate) &&
			within(resDate, item.ResEffDate, item.ResDiscDate) {
			return true
		}
	}
	return false
}
