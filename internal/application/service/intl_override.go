package service

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/ozzus/fan-avia/exchange-rules/internal/application/reissue"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// Outward yields the indexes of an n element sequence by growing distance from k,
// left neighbour first: k-1, k+1, k-2, k+2 and so on.
func Outward(n, k int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for d := 1; k-d >= 0 || k+d < n; d++ {
			if k-d >= 0 && !yield(k-d) {
				return
			}
			if k+d < n && !yield(k+d) {
				return
			}
		}
	}
}

// shouldOverrideWithIntlFc looks for the nearest international fare component of the pricing
// unit that may take over a domestic component's record 3.
func (e *evaluation) shouldOverrideWithIntlFc(ctx context.Context) (int, bool, error) {
	rec3, pu := e.req.Rec3, e.req.PricingUnit
	if !models.IsSet(rec3.DomesticIntlComb) || e.fm.International || pu == nil {
		return 0, false, nil
	}

	k := -1
	for i, fu := range pu.FareUsages {
		if fu == e.req.FareUsage {
			k = i
			break
		}
	}
	if k < 0 {
		return 0, false, nil
	}

	var rows []models.CarrierApplicationInfo
	if rec3.CarrierApplTblItemNo != 0 {
		var err error
		rows, err = e.svc.store.CarrierApplications(ctx, rec3.Vendor, rec3.CarrierApplTblItemNo)
		if err != nil && !errors.Is(err, derr.ErrRuleNotFound) {
			return 0, false, fmt.Errorf("carrier table %d: %w", rec3.CarrierApplTblItemNo, err)
		}
	}

	for i := range Outward(len(pu.FareUsages), k) {
		ptf := pu.FareUsages[i].PaxTypeFare
		if ptf == nil || ptf.FareMarket == nil || !ptf.FareMarket.International {
			continue
		}
		if rec3.CarrierApplTblItemNo != 0 && !reissue.CarrierAllowed(rows, ptf.Carrier) {
			continue
		}
		return ptf.FareCompNumber, true, nil
	}
	return 0, false, nil
}
