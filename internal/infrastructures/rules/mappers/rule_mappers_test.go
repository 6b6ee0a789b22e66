package mappers

import (
	"testing"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/rules/dto"
)

func TestIndicator_EmptyIsBlank(t *testing.T) {
	if got := Indicator(""); got != models.Blank {
		t.Fatalf("expected blank, got %q", got)
	}
	if got := Indicator("  "); got != models.Blank {
		t.Fatalf("expected blank for spaces, got %q", got)
	}
	if got := Indicator("X"); got != 'X' {
		t.Fatalf("expected X, got %q", got)
	}
}

func TestToReissueSequences_FiltersByEffectiveDate(t *testing.T) {
	rows := []dto.ReissueSequenceRow{
		{Vendor: "ATP", ItemNo: 7, SeqNo: 1, EffDate: "2026-01-01", DiscDate: "2026-03-31"},
		{Vendor: "ATP", ItemNo: 7, SeqNo: 2, EffDate: "2026-04-01"},
		{Vendor: "ATP", ItemNo: 7, SeqNo: 3},
	}
	ticketed := time.Date(2026, 5, 2, 18, 30, 0, 0, time.FixedZone("EDT", -4*3600))

	got, err := ToReissueSequences(rows, ticketed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].SeqNo != 2 || got[1].SeqNo != 3 {
		t.Fatalf("unexpected sequences: %+v", got)
	}
}

func TestToReissueSequences_DiscDateIsInclusive(t *testing.T) {
	rows := []dto.ReissueSequenceRow{{SeqNo: 1, DiscDate: "2026-03-31"}}

	got, err := ToReissueSequences(rows, time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected sequence on its discontinue date, got %+v", got)
	}
}

func TestToReissueSequences_BadDate(t *testing.T) {
	rows := []dto.ReissueSequenceRow{{SeqNo: 1, EffDate: "01/01/2026"}}
	if _, err := ToReissueSequences(rows, time.Now()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestToReissueSequence_Indicators(t *testing.T) {
	got := ToReissueSequence(dto.ReissueSequenceRow{
		ProcessingInd:  11,
		PortionInd:     "2",
		DateInd:        "L",
		CarrierRestInd: "",
		AgencyLocCode:  " 9XYZ ",
	})

	if got.ProcessingInd != models.TagCancelAndStartOver {
		t.Fatalf("unexpected tag: %d", got.ProcessingInd)
	}
	if got.PortionInd != models.PortionFirstFlightComponent || got.DateInd != models.DateIndLaterDepartureDate {
		t.Fatalf("unexpected indicators: %+v", got)
	}
	if got.CarrierRestInd != models.CxrRestNotApply {
		t.Fatalf("expected blank carrier restriction, got %q", got.CarrierRestInd)
	}
	if got.AgencyLocCode != "9XYZ" {
		t.Fatalf("unexpected agency code: %q", got.AgencyLocCode)
	}
}

func TestToTSIInfo_ScopeAndType(t *testing.T) {
	got := ToTSIInfo(dto.TSIRow{TSI: 18, Scope: "J", Type: "O"})
	if got.Scope != models.GeoScopeJourney || got.Type != models.TSIOrigin {
		t.Fatalf("unexpected tsi: %+v", got)
	}
	got = ToTSIInfo(dto.TSIRow{TSI: 1, Scope: "fare component", Type: ""})
	if got.Scope != models.GeoScopeFareComponent || got.Type != models.TSIAny {
		t.Fatalf("unexpected tsi: %+v", got)
	}
}

func TestToDateOverrideItem_OpenBounds(t *testing.T) {
	got, err := ToDateOverrideItem(dto.DateOverrideRow{ItemNo: 3, TvlEffDate: "2026-06-01", TvlDiscDate: "2026-06-30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.TktEffDate.IsZero() || !got.ResDiscDate.IsZero() {
		t.Fatalf("expected open ticketing and reservation bounds: %+v", got)
	}
	if got.TvlEffDate != time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected travel effective date: %v", got.TvlEffDate)
	}
}

func TestToGeoRuleItem(t *testing.T) {
	got := ToGeoRuleItem(dto.GeoRuleItemRow{ItemNo: 5, TSI: 18, Loc1Type: "C", Loc1: "DFW"})
	if got.Loc1 != (models.LocKey{Type: models.LocTypeCity, Code: "DFW"}) {
		t.Fatalf("unexpected loc1: %+v", got.Loc1)
	}
	if !got.Loc2.IsEmpty() {
		t.Fatalf("expected empty loc2: %+v", got.Loc2)
	}
}
