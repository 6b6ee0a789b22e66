package merger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ozzus/fan-avia/exchange-rules/internal/application/calendar"
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/reissue"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Result holds the constraints built from the matched sequences, one per date group.
type Result struct {
	Sequences   []models.ReissueSequence
	Constraints []models.R3SeqsConstraint
}

func (r Result) Matched() bool {
	return len(r.Sequences) > 0
}

// Tab988Merger folds every matching table 988 sequence of a record 3 into R3SeqsConstraint values.
type Tab988Merger struct {
	log   *zap.Logger
	table *reissue.ReissueTable
	store ports.RuleStore
}

func NewTab988Merger(log *zap.Logger, table *reissue.ReissueTable, store ports.RuleStore) *Tab988Merger {
	if log == nil {
		log = zap.NewNop()
	}

	return &Tab988Merger{
		log:   log,
		table: table,
		store: store,
	}
}

// mergedValidations are resolved by the merge itself instead of filtering sequences.
var mergedValidations = []reissue.Validation{
	reissue.ValidatePortion,
	reissue.ValidateFlightNo,
	reissue.ValidateOutboundPortion,
	reissue.ValidateDepartureDate,
}

func (m *Tab988Merger) Merge(ctx context.Context, sc *reissue.Scope, ptf *models.PaxTypeFare, rec3 models.VoluntaryChangesInfo, opts reissue.Options) (Result, error) {
	const op = "merger.Tab988Merger.Merge"
	tracer := otel.Tracer("exchange-rules/merger")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	if ptf == nil || ptf.FareMarket == nil {
		return Result{}, fmt.Errorf("%s: %w", op, derr.ErrDataErrorDetected)
	}
	fm := ptf.FareMarket

	logger := m.log.With(
		zap.String("op", op),
		zap.String("vendor", string(rec3.Vendor)),
		zap.Int("item_no", rec3.ItemNo),
		zap.Int("fare_comp", ptf.FareCompNumber),
	)
	span.SetAttributes(
		attribute.Int("rec3.item_no", rec3.ItemNo),
		attribute.Int("rec3.t988_item_no", rec3.ReissueTblItemNo),
	)

	skipped := models.NewSet(mergedValidations...)
	if opts.Skipped != nil {
		skipped = skipped.Union(opts.Skipped)
	}
	opts.Skipped = skipped

	seqs, err := m.table.MatchedT988Seqs(ctx, sc, fm, rec3, opts)
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	matched, locked, err := m.matchTbl988Seqs(ctx, sc, fm, seqs)
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(matched) == 0 {
		logger.Debug("no table 988 sequence left to merge", zap.Int("candidates", len(seqs)))
		return Result{}, nil
	}

	res := Result{Sequences: matched}
	for _, group := range groupByDateInd(matched) {
		constraint, err := m.mergeGroup(ctx, sc, fm, group, locked)
		if err != nil {
			span.RecordError(err)
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		res.Constraints = append(res.Constraints, constraint)
		ports.Diag(sc.Diag, "T988 MERGED %s SEQS %v", calendar.DateApplicationString(constraint.CalendarAppl), constraint.SeqNos)
	}

	span.SetAttributes(attribute.Int("t988.matched", len(matched)), attribute.Int("t988.constraints", len(res.Constraints)))
	logger.Info("table 988 sequences merged", zap.Int("matched", len(matched)), zap.Int("constraints", len(res.Constraints)))
	return res, nil
}

// matchTbl988Seqs drops sequences failing the departure date window, the PSS carrier
// cross check of shopping transactions, or the geography resolution.
func (m *Tab988Merger) matchTbl988Seqs(ctx context.Context, sc *reissue.Scope, fm *models.FareMarket, seqs []models.ReissueSequence) ([]models.ReissueSequence, map[int][]*models.TravelSeg, error) {
	matched := make([]models.ReissueSequence, 0, len(seqs))
	locked := make(map[int][]*models.TravelSeg, len(seqs))

	for _, seq := range seqs {
		if _, _, ok := reissue.DepartureWindow(sc, fm, seq.DateInd); !ok {
			ports.Diag(sc.Diag, "  SEQ %d DEPARTURE DATE WINDOW EMPTY", seq.SeqNo)
			continue
		}

		if sc.Trx.Type == models.TrxReshop {
			ok, err := m.matchCxrsFromPSS(ctx, sc, fm, seq)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				ports.Diag(sc.Diag, "  SEQ %d NO PSS CARRIER APPLICABLE", seq.SeqNo)
				continue
			}
		}

		segs, ok, err := m.table.LockedSegments(ctx, sc, fm, seq)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			ports.Diag(sc.Diag, "  SEQ %d PORTION BAD DATA", seq.SeqNo)
			continue
		}

		locked[seq.SeqNo] = segs
		matched = append(matched, seq)
	}
	return matched, locked, nil
}

// matchCxrsFromPSS requires one carrier of the shopping PSS list to be applicable to the
// new fares. Without a fare carrier table only the governing carrier is applicable.
func (m *Tab988Merger) matchCxrsFromPSS(ctx context.Context, sc *reissue.Scope, fm *models.FareMarket, seq models.ReissueSequence) (bool, error) {
	pss := sc.Trx.PSSCarriers
	if len(pss) == 0 {
		return true, nil
	}
	if seq.FareCxrApplTblItemNo == 0 {
		return pss.Contains(fm.GoverningCarrier), nil
	}

	rows, err := m.fareCarrierRows(ctx, seq)
	if err != nil {
		return false, err
	}
	for cxr := range pss {
		if reissue.CarrierAllowed(rows, cxr) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Tab988Merger) fareCarrierRows(ctx context.Context, seq models.ReissueSequence) ([]models.CarrierApplicationInfo, error) {
	rows, err := m.store.CarrierApplications(ctx, seq.Vendor, seq.FareCxrApplTblItemNo)
	if err != nil && !errors.Is(err, derr.ErrRuleNotFound) {
		return nil, fmt.Errorf("fare carrier table %d: %w", seq.FareCxrApplTblItemNo, err)
	}
	return rows, nil
}

func (m *Tab988Merger) fareByteCxrAppl(ctx context.Context, fm *models.FareMarket, seq models.ReissueSequence) (models.FareByteCxrAppl, error) {
	appl := models.FareByteCxrAppl{
		Restricted: models.NewSet[models.CarrierCode](),
		Applicable: models.NewSet[models.CarrierCode](),
	}
	if seq.FareCxrApplTblItemNo == 0 {
		appl.GovCxrPrefer = true
		if fm.GoverningCarrier != "" {
			appl.Applicable.Add(fm.GoverningCarrier)
		}
		return appl, nil
	}

	rows, err := m.fareCarrierRows(ctx, seq)
	if err != nil {
		return models.FareByteCxrAppl{}, err
	}
	for _, row := range rows {
		if row.ApplInd == models.CarrierApplForbid {
			appl.Restricted.Add(row.Carrier)
		} else {
			appl.Applicable.Add(row.Carrier)
		}
	}
	return appl, nil
}

func (m *Tab988Merger) mergeGroup(ctx context.Context, sc *reissue.Scope, fm *models.FareMarket, group []models.ReissueSequence, locked map[int][]*models.TravelSeg) (models.R3SeqsConstraint, error) {
	portions := make([]models.Set[int], 0, len(group))
	outbound := make([]models.Set[int], 0, len(group))
	connections := make([]models.Set[models.LocCode], 0, len(group))
	cxrAppls := make([]models.FareByteCxrAppl, 0, len(group))
	seqNos := make([]int, 0, len(group))

	for _, seq := range group {
		portions = append(portions, segOrders(locked[seq.SeqNo]))
		outbound = append(outbound, segOrders(reissue.OutboundSegments(sc, seq.OutboundInd)))
		connections = append(connections, ForcedConnections(fm, seq.StopoverConnectInd))

		appl, err := m.fareByteCxrAppl(ctx, fm, seq)
		if err != nil {
			return models.R3SeqsConstraint{}, err
		}
		cxrAppls = append(cxrAppls, appl)
		seqNos = append(seqNos, seq.SeqNo)
	}

	constraint := models.R3SeqsConstraint{
		OndIndex:                calendar.InvalidOndIndex,
		PortionMerge:            MergePortion(portions),
		ForcedConnections:       CollectForcedConnections(connections),
		FirstBreakStatus:        CollectFirstBreakRest(group),
		FlightNumberRestriction: MergeFlightNumber(group),
		FareByteCxrAppl:         MergeFareByteCxrAppl(cxrAppls),
		OutboundPortion:         MergePortion(outbound),
		CalendarAppl:            calendarAppl(group[0].DateInd),
		SeqNos:                  seqNos,
	}

	if sc.Calendar != nil && len(fm.TravelSegs) > 0 {
		idx := sc.Calendar.OndIndexForSeg(fm.TravelSegs[0])
		if idx != calendar.InvalidOndIndex {
			constraint.OndIndex = idx
			constraint.CalendarRange = sc.Calendar.DateRangeForOnd(idx)
			if _, window, ok := reissue.DepartureWindow(sc, fm, group[0].DateInd); ok && window.IsValid() {
				constraint.CalendarRange = window
			}
		}
	}
	return constraint, nil
}

// groupByDateInd partitions sequences by date indicator, keeping first appearance order.
func groupByDateInd(seqs []models.ReissueSequence) [][]models.ReissueSequence {
	index := make(map[models.DateInd]int)
	var groups [][]models.ReissueSequence
	for _, seq := range seqs {
		ind := seq.DateInd
		if !models.IsSet(ind) {
			ind = models.DateIndNotApply
		}
		i, ok := index[ind]
		if !ok {
			i = len(groups)
			index[ind] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], seq)
	}
	return groups
}
