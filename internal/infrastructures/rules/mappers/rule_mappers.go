package mappers

import (
	"fmt"
	"strings"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/rules/dto"
)

const dateLayout = "2006-01-02"

// Indicator turns a column value into an indicator byte. Empty columns are Blank.
func Indicator(raw string) byte {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Blank
	}
	return raw[0]
}

// ParseDate reads an optional YYYY-MM-DD column. Empty values are the zero time.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// EffectiveOn reports whether date falls within [eff, disc]. Empty bounds are open; a zero date matches.
func EffectiveOn(eff, disc string, date time.Time) (bool, error) {
	if date.IsZero() {
		return true, nil
	}
	from, err := ParseDate(eff)
	if err != nil {
		return false, err
	}
	to, err := ParseDate(disc)
	if err != nil {
		return false, err
	}
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !from.IsZero() && day.Before(from) {
		return false, nil
	}
	if !to.IsZero() && day.After(to) {
		return false, nil
	}
	return true, nil
}

func ToReissueSequence(row dto.ReissueSequenceRow) models.ReissueSequence {
	return models.ReissueSequence{
		Vendor:               models.Vendor(row.Vendor),
		ItemNo:               row.ItemNo,
		SeqNo:                row.SeqNo,
		ProcessingInd:        models.ProcessingTag(row.ProcessingInd),
		FlightNoInd:          Indicator(row.FlightNoInd),
		PortionInd:           models.PortionInd(Indicator(row.PortionInd)),
		TvlGeoTblItemNoFrom:  row.TvlGeoTblItemNoFrom,
		TvlGeoTblItemNoTo:    row.TvlGeoTblItemNoTo,
		OutboundInd:          models.OutboundInd(Indicator(row.OutboundInd)),
		StopoverConnectInd:   models.StopoverConnectInd(Indicator(row.StopoverConnectInd)),
		FirstBreakInd:        Indicator(row.FirstBreakInd),
		DateInd:              models.DateInd(Indicator(row.DateInd)),
		CarrierRestInd:       models.CarrierRestInd(Indicator(row.CarrierRestInd)),
		CarrierApplTblItemNo: row.CarrierApplTblItemNo,
		FareCxrApplTblItemNo: row.FareCxrApplTblItemNo,
		AgencyLocRestInd:     models.AgencyRestInd(Indicator(row.AgencyLocRestInd)),
		AgencyLocCode:        strings.TrimSpace(row.AgencyLocCode),
	}
}

// ToReissueSequences keeps the rows effective on date, in table order.
func ToReissueSequences(rows []dto.ReissueSequenceRow, date time.Time) ([]models.ReissueSequence, error) {
	out := make([]models.ReissueSequence, 0, len(rows))
	for _, row := range rows {
		ok, err := EffectiveOn(row.EffDate, row.DiscDate, date)
		if err != nil {
			return nil, fmt.Errorf("sequence %d/%d: %w", row.ItemNo, row.SeqNo, err)
		}
		if ok {
			out = append(out, ToReissueSequence(row))
		}
	}
	return out, nil
}

func ToCarrierApplication(row dto.CarrierApplicationRow) models.CarrierApplicationInfo {
	return models.CarrierApplicationInfo{
		Vendor:  models.Vendor(row.Vendor),
		ItemNo:  row.ItemNo,
		Carrier: models.CarrierCode(strings.TrimSpace(row.Carrier)),
		ApplInd: models.CarrierApplInd(Indicator(row.ApplInd)),
	}
}

func ToGeoRuleItem(row dto.GeoRuleItemRow) models.GeoRuleItem {
	return models.GeoRuleItem{
		Vendor: models.Vendor(row.Vendor),
		ItemNo: row.ItemNo,
		TSI:    row.TSI,
		Loc1:   models.LocKey{Type: models.LocType(Indicator(row.Loc1Type)), Code: strings.TrimSpace(row.Loc1)},
		Loc2:   models.LocKey{Type: models.LocType(Indicator(row.Loc2Type)), Code: strings.TrimSpace(row.Loc2)},
	}
}

func ToTSIInfo(row dto.TSIRow) models.TSIInfo {
	return models.TSIInfo{
		TSI:         row.TSI,
		Scope:       geoScope(row.Scope),
		Type:        tsiType(row.Type),
		Description: row.Description,
	}
}

func geoScope(raw string) models.GeoScope {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "J", "JOURNEY":
		return models.GeoScopeJourney
	case "S", "SUB JOURNEY", "SUB_JOURNEY":
		return models.GeoScopeSubJourney
	case "F", "FARE COMPONENT", "FARE_COMPONENT":
		return models.GeoScopeFareComponent
	default:
		return models.GeoScopeNone
	}
}

func tsiType(raw string) models.TSIType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "D", "DEPARTURE":
		return models.TSIDeparture
	case "A", "ARRIVAL":
		return models.TSIArrival
	case "O", "ORIGIN":
		return models.TSIOrigin
	case "E", "DESTINATION":
		return models.TSIDestination
	case "S", "STOPOVER":
		return models.TSIStopover
	case "C", "CONNECTION":
		return models.TSIConnection
	default:
		return models.TSIAny
	}
}

func ToDateOverrideItem(row dto.DateOverrideRow) (models.DateOverrideRuleItem, error) {
	item := models.DateOverrideRuleItem{Vendor: models.Vendor(row.Vendor), ItemNo: row.ItemNo}
	fields := []struct {
		raw string
		dst *time.Time
	}{
		{row.TvlEffDate, &item.TvlEffDate},
		{row.TvlDiscDate, &item.TvlDiscDate},
		{row.TktEffDate, &item.TktEffDate},
		{row.TktDiscDate, &item.TktDiscDate},
		{row.ResEffDate, &item.ResEffDate},
		{row.ResDiscDate, &item.ResDiscDate},
	}
	for _, f := range fields {
		t, err := ParseDate(f.raw)
		if err != nil {
			return models.DateOverrideRuleItem{}, fmt.Errorf("override item %d: %w", row.ItemNo, err)
		}
		*f.dst = t
	}
	return item, nil
}

func ToVoluntaryChanges(row dto.VoluntaryChangesRow) models.VoluntaryChangesInfo {
	return models.VoluntaryChangesInfo{
		Vendor:                models.Vendor(row.Vendor),
		ItemNo:                row.ItemNo,
		WaiverTblItemNo:       row.WaiverTblItemNo,
		PsgType:               strings.TrimSpace(row.PsgType),
		TktValidityInd:        Indicator(row.TktValidityInd),
		OverrideDateTblItemNo: row.OverrideDateTblItemNo,
		AdvResPeriod:          row.AdvResPeriod,
		AdvResUnit:            models.AdvResUnit(Indicator(row.AdvResUnit)),
		AdvResTo:              models.AdvResTo(Indicator(row.AdvResTo)),
		SameAirportInd:        Indicator(row.SameAirportInd),
		TktTimeLimitInd:       Indicator(row.TktTimeLimitInd),
		ChangeInd:             models.ChangeInd(Indicator(row.ChangeInd)),
		ReissuesAllowed:       row.ReissuesAllowed,
		CarrierApplTblItemNo:  row.CarrierApplTblItemNo,
		DomesticIntlComb:      Indicator(row.DomesticIntlComb),
		ReissueTblItemNo:      row.ReissueTblItemNo,
	}
}
