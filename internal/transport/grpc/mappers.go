package grpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/application/calendar"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// evaluationInput is a decoded request: the transaction plus the fare usage under evaluation.
type evaluationInput struct {
	trx    *models.ExchangeTrx
	target *models.FareUsage
	pu     *models.PricingUnit
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", derr.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func toDomain(req validateRequestDTO) (evaluationInput, error) {
	trxType, err := toTrxType(req.Trx.Type)
	if err != nil {
		return evaluationInput{}, err
	}
	excItin, err := toItin(req.Trx.ExchangeItin)
	if err != nil {
		return evaluationInput{}, fmt.Errorf("exchange itin: %w", err)
	}
	newItin, err := toItin(req.Trx.NewItin)
	if err != nil {
		return evaluationInput{}, fmt.Errorf("new itin: %w", err)
	}

	trx := &models.ExchangeTrx{
		Type:         trxType,
		ExchangeItin: excItin,
		NewItin:      newItin,
		Agent: models.Agent{
			TvlAgencyPCC:     req.Trx.Agent.PCC,
			MainTvlAgencyPCC: req.Trx.Agent.MainPCC,
			TvlAgencyIATA:    req.Trx.Agent.IATA,
			HomeAgencyIATA:   req.Trx.Agent.HomeAgencyIATA,
		},
		TestRequest:        req.Trx.TestRequest,
		OriginalTicketDate: req.Trx.OriginalTicketDate,
		CurrentTicketDate:  req.Trx.CurrentTicketDate,
		ReissueCount:       req.Trx.ReissueCount,
		PSSCarriers:        models.NewSet[models.CarrierCode](),
		PreselectedRec3:    make(map[int]map[int]models.DateRange),
	}
	for _, c := range req.Trx.PSSCarriers {
		trx.PSSCarriers.Add(models.CarrierCode(strings.ToUpper(strings.TrimSpace(c))))
	}

	for i, o := range req.Trx.ONDs {
		date, err := parseDay(o.TravelDate)
		if err != nil || date.IsZero() {
			return evaluationInput{}, invalid("ond %d: travel_date %q", i, o.TravelDate)
		}
		trx.ONDs = append(trx.ONDs, &models.OriginDestination{
			TravelDate:    date,
			CalDaysBefore: o.DaysBefore,
			CalDaysAfter:  o.DaysAfter,
			SkippedOND:    o.Skipped,
		})
	}

	for _, p := range req.Trx.Preselected {
		from, err := parseDay(p.From)
		if err != nil {
			return evaluationInput{}, invalid("preselected from %q", p.From)
		}
		to, err := parseDay(p.To)
		if err != nil {
			return evaluationInput{}, invalid("preselected to %q", p.To)
		}
		if trx.PreselectedRec3[p.FareComp] == nil {
			trx.PreselectedRec3[p.FareComp] = make(map[int]models.DateRange)
		}
		trx.PreselectedRec3[p.FareComp][p.ItemNo] = models.NewDateRange(from, to)
	}

	in := evaluationInput{trx: trx}
	usages := make([]*models.FareUsage, 0, len(req.Fares))
	for _, f := range req.Fares {
		if f.FareMarket < 0 || f.FareMarket >= len(excItin.FareMarkets) {
			return evaluationInput{}, invalid("fare %d: fare_market %d out of range", f.FareCompNumber, f.FareMarket)
		}
		fm := excItin.FareMarkets[f.FareMarket]
		fu := &models.FareUsage{
			PaxTypeFare: &models.PaxTypeFare{
				FareMarket:     fm,
				Vendor:         models.Vendor(f.Vendor),
				Carrier:        models.CarrierCode(f.Carrier),
				PaxType:        f.PaxType,
				FareClass:      f.FareClass,
				FareCompNumber: f.FareCompNumber,
			},
			TravelSegs: fm.TravelSegs,
		}
		usages = append(usages, fu)
		trx.FareCompInfos = append(trx.FareCompInfos, &models.FareCompInfo{Number: f.FareCompNumber, FareMarket: fm})
		if f.FareCompNumber == req.FareComp {
			in.target = fu
		}
	}
	if in.target == nil {
		return evaluationInput{}, invalid("fare_comp %d not among fares", req.FareComp)
	}

	if req.PricingUnit {
		in.pu = &models.PricingUnit{FareUsages: usages}
		for _, fu := range usages {
			in.pu.TravelSegs = append(in.pu.TravelSegs, fu.TravelSegs...)
		}
	}
	return in, nil
}

func toTrxType(raw string) (models.TrxType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "PORT_EXCHANGE":
		return models.TrxPortExchange, nil
	case "MIP":
		return models.TrxExchangeMIP, nil
	case "RESHOP":
		return models.TrxReshop, nil
	default:
		return 0, invalid("unknown transaction type %q", raw)
	}
}

func toChangeStatus(raw string) (models.ChangeStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "UNCHANGED":
		return models.ChangeUnchanged, nil
	case "CHANGED":
		return models.ChangeChanged, nil
	case "INVENTORY_CHANGED":
		return models.ChangeInventoryChanged, nil
	case "CONFIRM_ONLY":
		return models.ChangeConfirmOnly, nil
	default:
		return 0, invalid("unknown change status %q", raw)
	}
}

func toLoc(l locDTO) models.Loc {
	code := models.LocCode(strings.ToUpper(strings.TrimSpace(l.Code)))
	city := models.LocCode(strings.ToUpper(strings.TrimSpace(l.City)))
	if city == "" {
		city = code
	}
	return models.Loc{Code: code, City: city, Nation: l.Nation, SubArea: l.SubArea, Area: l.Area}
}

func toItin(dto itinDTO) (*models.Itin, error) {
	itin := &models.Itin{ValidatingCarrier: models.CarrierCode(dto.ValidatingCarrier)}

	for i, s := range dto.Segments {
		status, err := toChangeStatus(s.ChangeStatus)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		segType := models.SegmentAir
		if s.Surface {
			segType = models.SegmentSurface
		}
		origin, dest := toLoc(s.Origin), toLoc(s.Destination)
		itin.TravelSegs = append(itin.TravelSegs, &models.TravelSeg{
			Order:          i + 1,
			LegID:          s.LegID,
			Type:           segType,
			Origin:         origin,
			Destination:    dest,
			BoardMultiCity: origin.City,
			OffMultiCity:   dest.City,
			DepartureDT:    s.Departure,
			Carrier:        models.CarrierCode(s.Carrier),
			FlightNumber:   s.FlightNumber,
			ChangeStatus:   status,
			Unflown:        s.Unflown,
			Stopover:       s.Stopover,
		})
	}

	for i, fm := range dto.FareMarkets {
		market := &models.FareMarket{
			GoverningCarrier: models.CarrierCode(fm.GoverningCarrier),
			International:    fm.International,
		}
		for _, pos := range fm.Segments {
			if pos < 1 || pos > len(itin.TravelSegs) {
				return nil, invalid("fare market %d: segment %d out of range", i, pos)
			}
			market.TravelSegs = append(market.TravelSegs, itin.TravelSegs[pos-1])
		}
		itin.FareMarkets = append(itin.FareMarkets, market)
	}
	return itin, nil
}

func parseDay(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, strings.TrimSpace(raw))
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func toDateRangeDTO(r models.DateRange) dateRangeDTO {
	if !r.IsValid() {
		return dateRangeDTO{}
	}
	return dateRangeDTO{First: formatDay(r.First), Last: formatDay(r.Last)}
}

func toItemResult(vendor models.Vendor, itemNo int, result models.Record3ReturnType, seqs []models.ReissueSequence, overridingFc int) itemResultDTO {
	out := itemResultDTO{
		Vendor:       string(vendor),
		ItemNo:       itemNo,
		Result:       result.String(),
		Sequences:    make([]int, 0, len(seqs)),
		OverridingFc: overridingFc,
	}
	for _, s := range seqs {
		out.Sequences = append(out.Sequences, s.SeqNo)
	}
	return out
}

func toConstraintDTO(c models.R3SeqsConstraint) constraintDTO {
	forced := make([]string, 0, len(c.ForcedConnections))
	for _, loc := range c.ForcedConnections.Sorted() {
		forced = append(forced, string(loc))
	}
	return constraintDTO{
		OndIndex:           c.OndIndex,
		SeqNos:             append([]int{}, c.SeqNos...),
		CalendarAppl:       calendar.DateApplicationString(c.CalendarAppl),
		CalendarRange:      toDateRangeDTO(c.CalendarRange),
		Portion:            c.PortionMerge.Sorted(),
		OutboundPortion:    c.OutboundPortion.Sorted(),
		ForcedConnections:  forced,
		FirstBreak:         c.FirstBreakStatus,
		FlightNumber:       c.FlightNumberRestriction,
		RestrictedCarriers: carrierStrings(c.FareByteCxrAppl.Restricted),
		ApplicableCarriers: carrierStrings(c.FareByteCxrAppl.Applicable),
		GovCxrPrefer:       c.FareByteCxrAppl.GovCxrPrefer,
	}
}

func carrierStrings(s models.Set[models.CarrierCode]) []string {
	out := make([]string, 0, len(s))
	for _, c := range s.Sorted() {
		out = append(out, string(c))
	}
	return out
}

func toCalendarDTO(cal *calendar.R3ValidationResult) []dateRangeDTO {
	if cal == nil {
		return nil
	}
	out := make([]dateRangeDTO, 0, cal.OndCount())
	for i := range cal.OndCount() {
		out = append(out, toDateRangeDTO(cal.DateRangeForOnd(i)))
	}
	return out
}
