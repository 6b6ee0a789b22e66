package reissue

import (
	"context"
	"errors"
	"fmt"

	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// CarrierAllowed applies table 990 semantics to cxr: an explicit row decides, otherwise
// the $$ row decides, otherwise the carrier is not allowed.
func CarrierAllowed(rows []models.CarrierApplicationInfo, cxr models.CarrierCode) bool {
	wildcard, hasWildcard := models.CarrierApplForbid, false
	for _, row := range rows {
		if row.Carrier == cxr {
			return row.ApplInd != models.CarrierApplForbid
		}
		if row.Carrier == models.AnyCarrier {
			wildcard, hasWildcard = row.ApplInd, true
		}
	}
	return hasWildcard && wildcard != models.CarrierApplForbid
}

func (t *ReissueTable) matchCarrierRestrictions(ctx context.Context, sc *Scope, fm *models.FareMarket, seq models.ReissueSequence) (bool, error) {
	const op = "reissue.ReissueTable.matchCarrierRestrictions"

	excItin, newItin := sc.Trx.ExchangeItin, sc.Trx.NewItin
	if newItin == nil {
		return !models.IsSet(seq.CarrierRestInd) && seq.CarrierApplTblItemNo == 0, nil
	}

	switch seq.CarrierRestInd {
	case models.CxrRestValidating:
		if excItin == nil || newItin.ValidatingCarrier != excItin.ValidatingCarrier {
			return false, nil
		}
	case models.CxrRestGoverning:
		newFm := matchingNewFareMarket(newItin, fm)
		if newFm == nil || newFm.GoverningCarrier != fm.GoverningCarrier {
			return false, nil
		}
	}

	if seq.CarrierApplTblItemNo == 0 {
		return true, nil
	}

	rows, err := t.store.CarrierApplications(ctx, seq.Vendor, seq.CarrierApplTblItemNo)
	if err != nil && !errors.Is(err, derr.ErrRuleNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return CarrierAllowed(rows, newItin.ValidatingCarrier), nil
}

// matchingNewFareMarket finds the new itinerary fare market covering the same city pair as fm.
func matchingNewFareMarket(newItin *models.Itin, fm *models.FareMarket) *models.FareMarket {
	if len(fm.TravelSegs) == 0 {
		return nil
	}
	board := fm.TravelSegs[0].BoardMultiCity
	off := fm.TravelSegs[len(fm.TravelSegs)-1].OffMultiCity

	for _, candidate := range newItin.FareMarkets {
		segs := candidate.TravelSegs
		if len(segs) == 0 {
			continue
		}
		if segs[0].BoardMultiCity == board && segs[len(segs)-1].OffMultiCity == off {
			return candidate
		}
	}
	return nil
}
