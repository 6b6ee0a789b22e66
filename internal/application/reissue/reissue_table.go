package reissue

import (
	"context"
	"errors"
	"fmt"
	"time"

	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
	"go.uber.org/zap"
)

// ReissueTable matches table 988 sequences of a category 31 record 3.
type ReissueTable struct {
	log   *zap.Logger
	store ports.RuleStore
}

func NewReissueTable(log *zap.Logger, store ports.RuleStore) *ReissueTable {
	if log == nil {
		log = zap.NewNop()
	}

	return &ReissueTable{
		log:   log,
		store: store,
	}
}

// Options tune one MatchedT988Seqs call.
type Options struct {
	// Skipped predicates are treated as passed.
	Skipped models.Set[Validation]
	// OverridenApplied marks a record 3 taken over from an international fare component,
	// which waives the cross fare component change check of tag 7.
	OverridenApplied bool
	// Prevalidated sequences already passed the ticketing level checks (agency and carrier).
	Prevalidated bool
	ApplDate     time.Time
}

func (o Options) skips(v Validation) bool {
	if o.Prevalidated && (v == ValidateAgency || v == ValidateCarrierRestrictions) {
		return true
	}
	return o.Skipped != nil && o.Skipped.Contains(v)
}

// MatchedT988Seqs returns the sequences of rec3's reissue table passing every applicable predicate.
func (t *ReissueTable) MatchedT988Seqs(ctx context.Context, sc *Scope, fm *models.FareMarket, rec3 models.VoluntaryChangesInfo, opts Options) ([]models.ReissueSequence, error) {
	const op = "reissue.ReissueTable.MatchedT988Seqs"
	logger := t.log.With(
		zap.String("op", op),
		zap.String("vendor", string(rec3.Vendor)),
		zap.Int("item_no", rec3.ReissueTblItemNo),
	)

	if sc == nil || sc.Trx == nil || fm == nil {
		return nil, fmt.Errorf("%s: %w", op, derr.ErrDataErrorDetected)
	}

	seqs, err := t.store.ReissueSequences(ctx, rec3.Vendor, rec3.ReissueTblItemNo, opts.ApplDate)
	if err != nil && !errors.Is(err, derr.ErrRuleNotFound) {
		logger.Warn("failed to load reissue sequences", zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ports.Diag(sc.Diag, "T988 ITEM %d: %d SEQUENCES", rec3.ReissueTblItemNo, len(seqs))

	matched := make([]models.ReissueSequence, 0, len(seqs))
	for _, seq := range seqs {
		ok, err := t.MatchSequence(ctx, sc, fm, seq, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: seq %d: %w", op, seq.SeqNo, err)
		}
		if ok {
			matched = append(matched, seq)
		}
	}

	logger.Debug("reissue sequences matched", zap.Int("candidates", len(seqs)), zap.Int("matched", len(matched)))
	return matched, nil
}

// MatchSequence evaluates every applicable predicate of one sequence in table order.
func (t *ReissueTable) MatchSequence(ctx context.Context, sc *Scope, fm *models.FareMarket, seq models.ReissueSequence, opts Options) (bool, error) {
	checks := []struct {
		v     Validation
		match func() (bool, error)
	}{
		{ValidateCancelAndStartOver, func() (bool, error) {
			return seq.ProcessingInd != models.TagCancelAndStartOver, nil
		}},
		{ValidateFlightNo, func() (bool, error) {
			return matchFlightNo(sc, fm, seq), nil
		}},
		{ValidatePortion, func() (bool, error) {
			locked, ok, err := t.LockedSegments(ctx, sc, fm, seq)
			return ok && !anyChanged(locked), err
		}},
		{ValidateOutboundPortion, func() (bool, error) {
			return !anyChanged(OutboundSegments(sc, seq.OutboundInd)), nil
		}},
		{ValidateCarrierRestrictions, func() (bool, error) {
			return t.matchCarrierRestrictions(ctx, sc, fm, seq)
		}},
		{ValidateTag7, func() (bool, error) {
			return matchTag7Definition(sc, fm, seq, opts.OverridenApplied), nil
		}},
		{ValidateAgency, func() (bool, error) {
			return MatchAgency(sc.Trx.Agent, seq), nil
		}},
		{ValidateDepartureDate, func() (bool, error) {
			return matchDepartureDate(sc, fm, seq), nil
		}},
	}

	for _, check := range checks {
		if opts.skips(check.v) {
			continue
		}
		ok, err := check.match()
		if err != nil {
			return false, err
		}
		t.trace(sc, seq, check.v, ok)
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (t *ReissueTable) trace(sc *Scope, seq models.ReissueSequence, v Validation, ok bool) {
	verdict := "PASS"
	if !ok {
		verdict = "FAIL"
	}
	ports.Diag(sc.Diag, "  SEQ %d %-20s %s", seq.SeqNo, v, verdict)
	t.log.Debug("t988 predicate",
		zap.Int("item_no", seq.ItemNo),
		zap.Int("seq_no", seq.SeqNo),
		zap.Stringer("predicate", v),
		zap.Bool("pass", ok),
	)
}

func matchFlightNo(sc *Scope, fm *models.FareMarket, seq models.ReissueSequence) bool {
	if !models.IsSet(seq.FlightNoInd) {
		return true
	}
	for _, seg := range fm.TravelSegs {
		if !seg.IsAir() {
			continue
		}
		for _, n := range sc.newSegs() {
			if !n.IsAir() || n.BoardMultiCity != seg.BoardMultiCity || n.OffMultiCity != seg.OffMultiCity {
				continue
			}
			if n.Carrier != seg.Carrier || n.FlightNumber != seg.FlightNumber {
				return false
			}
		}
	}
	return true
}

func matchTag7Definition(sc *Scope, fm *models.FareMarket, seq models.ReissueSequence, overridenApplied bool) bool {
	if seq.ProcessingInd != models.TagReissueDownToLowerFare {
		return true
	}

	journey := sc.journey()
	if len(journey) == 0 || !journey[0].Unflown {
		return false
	}
	for _, seg := range journey {
		switch seg.ChangeStatus {
		case models.ChangeInventoryChanged, models.ChangeConfirmOnly:
			return false
		}
		if !overridenApplied && seg.IsChanged() && !fm.Contains(seg) {
			return false
		}
	}
	return true
}

// MatchAgency compares the agency restriction of seq with the ticketing agent.
// Agents without a travel agency PCC are carrier agents and always pass.
func MatchAgency(agent models.Agent, seq models.ReissueSequence) bool {
	if !models.IsSet(seq.AgencyLocRestInd) || agent.TvlAgencyPCC == "" {
		return true
	}

	switch seq.AgencyLocRestInd {
	case models.AgencyTravelAgency:
		return seq.AgencyLocCode == agent.TvlAgencyPCC
	case models.AgencyHomeAgency:
		return seq.AgencyLocCode == agent.MainTvlAgencyPCC
	case models.AgencyIATA:
		return seq.AgencyLocCode == agent.TvlAgencyIATA
	case models.AgencyHomeIATA:
		return seq.AgencyLocCode == agent.HomeAgencyIATA
	default:
		return false
	}
}
