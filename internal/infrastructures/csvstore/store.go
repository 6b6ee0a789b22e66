package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/rules/dto"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/rules/mappers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Extract file names inside the rules directory.
const (
	FileReissueSequences = "reissue_sequences.csv"
	FileCarrierAppls     = "carrier_applications.csv"
	FileGeoRuleItems     = "geo_rule_items.csv"
	FileTSIInfo          = "tsi_info.csv"
	FileDateOverrides    = "date_override_items.csv"
	FileVoluntaryChanges = "voluntary_changes.csv"
	FileMultiCities      = "multi_transport_cities.csv"
)

type itemKey struct {
	vendor models.Vendor
	itemNo int
}

// Store serves rule lookups from an in-memory snapshot of a CSV extract.
// It is read only after Load and safe for concurrent use.
type Store struct {
	sequences map[itemKey][]dto.ReissueSequenceRow
	carriers  map[itemKey][]models.CarrierApplicationInfo
	geo       map[itemKey][]models.GeoRuleItem
	tsi       map[int]models.TSIInfo
	overrides map[itemKey][]models.DateOverrideRuleItem
	r3        map[itemKey][]dto.VoluntaryChangesRow
	cities    map[models.LocCode]models.LocCode
}

// Load decodes every extract file in dir concurrently. A missing file loads as an empty table.
func Load(ctx context.Context, log *zap.Logger, dir string) (*Store, error) {
	const op = "csvstore.Load"
	if log == nil {
		log = zap.NewNop()
	}
	logger := log.With(zap.String("op", op), zap.String("dir", dir))

	var (
		seqRows  []dto.ReissueSequenceRow
		cxrRows  []dto.CarrierApplicationRow
		geoRows  []dto.GeoRuleItemRow
		tsiRows  []dto.TSIRow
		ovrRows  []dto.DateOverrideRow
		r3Rows   []dto.VoluntaryChangesRow
		cityRows []dto.MultiCityRow
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return decodeFile(ctx, logger, filepath.Join(dir, FileReissueSequences), &seqRows) })
	g.Go(func() error { return decodeFile(ctx, logger, filepath.Join(dir, FileCarrierAppls), &cxrRows) })
	g.Go(func() error { return decodeFile(ctx, logger, filepath.Join(dir, FileGeoRuleItems), &geoRows) })
	g.Go(func() error { return decodeFile(ctx, logger, filepath.Join(dir, FileTSIInfo), &tsiRows) })
	g.Go(func() error { return decodeFile(ctx, logger, filepath.Join(dir, FileDateOverrides), &ovrRows) })
	g.Go(func() error { return decodeFile(ctx, logger, filepath.Join(dir, FileVoluntaryChanges), &r3Rows) })
	g.Go(func() error { return decodeFile(ctx, logger, filepath.Join(dir, FileMultiCities), &cityRows) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Store{
		sequences: make(map[itemKey][]dto.ReissueSequenceRow),
		carriers:  make(map[itemKey][]models.CarrierApplicationInfo),
		geo:       make(map[itemKey][]models.GeoRuleItem),
		tsi:       make(map[int]models.TSIInfo, len(tsiRows)),
		overrides: make(map[itemKey][]models.DateOverrideRuleItem),
		r3:        make(map[itemKey][]dto.VoluntaryChangesRow),
		cities:    make(map[models.LocCode]models.LocCode, len(cityRows)),
	}

	for _, row := range seqRows {
		k := itemKey{models.Vendor(row.Vendor), row.ItemNo}
		s.sequences[k] = append(s.sequences[k], row)
	}
	for _, row := range cxrRows {
		k := itemKey{models.Vendor(row.Vendor), row.ItemNo}
		s.carriers[k] = append(s.carriers[k], mappers.ToCarrierApplication(row))
	}
	for _, row := range geoRows {
		k := itemKey{models.Vendor(row.Vendor), row.ItemNo}
		s.geo[k] = append(s.geo[k], mappers.ToGeoRuleItem(row))
	}
	for _, row := range tsiRows {
		s.tsi[row.TSI] = mappers.ToTSIInfo(row)
	}
	for _, row := range ovrRows {
		item, err := mappers.ToDateOverrideItem(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		k := itemKey{item.Vendor, item.ItemNo}
		s.overrides[k] = append(s.overrides[k], item)
	}
	for _, row := range r3Rows {
		k := itemKey{models.Vendor(row.Vendor), row.ItemNo}
		s.r3[k] = append(s.r3[k], row)
	}
	for _, row := range cityRows {
		s.cities[models.LocCode(row.Loc)] = models.LocCode(row.City)
	}

	logger.Info("rule extract loaded",
		zap.Int("reissue_sequences", len(seqRows)),
		zap.Int("record3", len(r3Rows)),
		zap.Int("tsi", len(tsiRows)),
	)
	return s, nil
}

func decodeFile[T any](ctx context.Context, log *zap.Logger, path string, dst *[]T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("rule extract file missing", zap.String("file", filepath.Base(path)))
			return nil
		}
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	decoder, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("create csv decoder for %s: %w", filepath.Base(path), err)
	}
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) ReissueSequences(_ context.Context, vendor models.Vendor, itemNo int, date time.Time) ([]models.ReissueSequence, error) {
	return mappers.ToReissueSequences(s.sequences[itemKey{vendor, itemNo}], date)
}

func (s *Store) CarrierApplications(_ context.Context, vendor models.Vendor, itemNo int) ([]models.CarrierApplicationInfo, error) {
	return append([]models.CarrierApplicationInfo{}, s.carriers[itemKey{vendor, itemNo}]...), nil
}

func (s *Store) GeoRuleItems(_ context.Context, vendor models.Vendor, itemNo int) ([]models.GeoRuleItem, error) {
	return append([]models.GeoRuleItem{}, s.geo[itemKey{vendor, itemNo}]...), nil
}

func (s *Store) TSIInfo(_ context.Context, tsi int) (models.TSIInfo, error) {
	info, ok := s.tsi[tsi]
	if !ok {
		return models.TSIInfo{}, derr.ErrRuleNotFound
	}
	return info, nil
}

func (s *Store) DateOverrideRuleItems(_ context.Context, vendor models.Vendor, itemNo int) ([]models.DateOverrideRuleItem, error) {
	return append([]models.DateOverrideRuleItem{}, s.overrides[itemKey{vendor, itemNo}]...), nil
}

// VoluntaryChanges returns the first record 3 version in file order effective on date.
func (s *Store) VoluntaryChanges(_ context.Context, vendor models.Vendor, itemNo int, date time.Time) (models.VoluntaryChangesInfo, error) {
	for _, row := range s.r3[itemKey{vendor, itemNo}] {
		ok, err := mappers.EffectiveOn(row.EffDate, row.DiscDate, date)
		if err != nil {
			return models.VoluntaryChangesInfo{}, fmt.Errorf("record 3 %d: %w", itemNo, err)
		}
		if ok {
			return mappers.ToVoluntaryChanges(row), nil
		}
	}
	return models.VoluntaryChangesInfo{}, derr.ErrRuleNotFound
}

func (s *Store) MultiTransportCity(_ context.Context, loc models.LocCode) (models.LocCode, error) {
	return s.cities[loc], nil
}
