package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

func writeExtract(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

const sequencesCSV = `vendor,item_no,seq_no,processing_ind,flight_no_ind,portion_ind,geo_from,geo_to,outbound_ind,stop_conx_ind,first_break_ind,date_ind,cxr_rest_ind,cxr_appl_tbl,fare_cxr_appl_tbl,agency_ind,agency_code,eff_date,disc_date
ATP,7,1,1,X,1,0,0,,,,S,,0,0,,,2026-01-01,2026-03-31
ATP,7,2,4,,,0,0,O,C,,L,V,0,0,T,9XYZ,2026-04-01,
ATP,8,1,11,,,0,0,,,,,,0,0,,,,
`

const record3CSV = `vendor,item_no,waiver_tbl,psg_type,tkt_validity_ind,override_date_tbl,adv_res_period,adv_res_unit,adv_res_to,same_airport_ind,tkt_time_limit_ind,change_ind,reissues_allowed,cxr_appl_tbl,dom_intl_comb,reissue_tbl,eff_date,disc_date
ATP,100,0,ADT,,0,0,,,,,N,2,0,,7,2026-01-01,2026-04-30
ATP,100,0,ADT,,0,0,,,,,,0,0,,7,2026-05-01,
`

func TestLoad_IndexesAndFiltersByDate(t *testing.T) {
	dir := writeExtract(t, map[string]string{
		FileReissueSequences: sequencesCSV,
		FileVoluntaryChanges: record3CSV,
		FileTSIInfo:          "tsi,scope,type,description\n18,J,O,JOURNEY ORIGIN\n",
		FileCarrierAppls:     "vendor,item_no,carrier,appl_ind\nATP,5,AA,\nATP,5,$$,X\n",
		FileGeoRuleItems:     "vendor,item_no,tsi,loc1_type,loc1,loc2_type,loc2\nATP,9,18,C,DFW,,\n",
		FileDateOverrides:    "vendor,item_no,tvl_eff,tvl_disc,tkt_eff,tkt_disc,res_eff,res_disc\nATP,3,2026-06-01,2026-06-30,,,,\n",
		FileMultiCities:      "loc,city\nJFK,NYC\n",
	})
	ctx := context.Background()

	store, err := Load(ctx, nil, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	seqs, err := store.ReissueSequences(ctx, "ATP", 7, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("sequences: %v", err)
	}
	if len(seqs) != 1 || seqs[0].SeqNo != 2 {
		t.Fatalf("unexpected sequences: %+v", seqs)
	}
	if seqs[0].OutboundInd != models.OutboundOrigToStopover || seqs[0].AgencyLocRestInd != models.AgencyTravelAgency {
		t.Fatalf("unexpected indicators: %+v", seqs[0])
	}

	r3, err := store.VoluntaryChanges(ctx, "ATP", 100, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("record 3: %v", err)
	}
	if r3.ChangeInd != models.ChangeIndNotPermitted || r3.ReissuesAllowed != 2 {
		t.Fatalf("unexpected record 3: %+v", r3)
	}

	tsi, err := store.TSIInfo(ctx, 18)
	if err != nil || tsi.Type != models.TSIOrigin || tsi.Scope != models.GeoScopeJourney {
		t.Fatalf("unexpected tsi: %+v %v", tsi, err)
	}

	cxrs, _ := store.CarrierApplications(ctx, "ATP", 5)
	if len(cxrs) != 2 || cxrs[1].ApplInd != models.CarrierApplForbid {
		t.Fatalf("unexpected carriers: %+v", cxrs)
	}

	geo, _ := store.GeoRuleItems(ctx, "ATP", 9)
	if len(geo) != 1 || geo[0].Loc1.Code != "DFW" {
		t.Fatalf("unexpected geo items: %+v", geo)
	}

	ovr, _ := store.DateOverrideRuleItems(ctx, "ATP", 3)
	if len(ovr) != 1 || ovr[0].TvlEffDate.Day() != 1 || !ovr[0].TktEffDate.IsZero() {
		t.Fatalf("unexpected overrides: %+v", ovr)
	}

	city, _ := store.MultiTransportCity(ctx, "JFK")
	if city != "NYC" {
		t.Fatalf("unexpected city: %q", city)
	}
}

func TestLoad_MissingFilesAreEmptyTables(t *testing.T) {
	dir := writeExtract(t, map[string]string{FileTSIInfo: ""})
	ctx := context.Background()

	store, err := Load(ctx, nil, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	seqs, err := store.ReissueSequences(ctx, "ATP", 7, time.Now())
	if err != nil || len(seqs) != 0 {
		t.Fatalf("expected empty sequences, got %+v %v", seqs, err)
	}
	if _, err := store.TSIInfo(ctx, 18); !errors.Is(err, derr.ErrRuleNotFound) {
		t.Fatalf("expected rule not found, got %v", err)
	}
	if _, err := store.VoluntaryChanges(ctx, "ATP", 100, time.Now()); !errors.Is(err, derr.ErrRuleNotFound) {
		t.Fatalf("expected rule not found, got %v", err)
	}
	if city, err := store.MultiTransportCity(ctx, "JFK"); err != nil || city != "" {
		t.Fatalf("expected no city, got %q %v", city, err)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	dir := writeExtract(t, map[string]string{
		FileTSIInfo: "tsi,scope,type,description\nnot-a-number,J,O,X\n",
	})

	if _, err := Load(context.Background(), nil, dir); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStore_ReturnedSlicesAreCopies(t *testing.T) {
	dir := writeExtract(t, map[string]string{
		FileCarrierAppls: "vendor,item_no,carrier,appl_ind\nATP,5,AA,\n",
	})
	ctx := context.Background()
	store, err := Load(ctx, nil, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	first, _ := store.CarrierApplications(ctx, "ATP", 5)
	first[0].Carrier = "ZZ"
	second, _ := store.CarrierApplications(ctx, "ATP", 5)
	if second[0].Carrier != "AA" {
		t.Fatalf("store mutated through returned slice: %+v", second)
	}
}
