package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/rules/dto"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/rules/mappers"
)

type Repository struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Repository, error) {
	poolCfg, err := buildPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{db: pool}, nil
}

// Rule tables sit behind pgbouncer in transaction mode, so statements are never prepared.
func buildPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.StatementCacheCapacity = 0
	poolCfg.ConnConfig.DescriptionCacheCapacity = 0

	return poolCfg, nil
}

func (r *Repository) Close() {
	r.db.Close()
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, derr.ErrStoreUnavailable, err)
}

func (r *Repository) ReissueSequences(ctx context.Context, vendor models.Vendor, itemNo int, date time.Time) ([]models.ReissueSequence, error) {
	const query = `
		SELECT
			vendor,
			item_no,
			seq_no,
			processing_ind,
			COALESCE(flight_no_ind, ''),
			COALESCE(portion_ind, ''),
			COALESCE(geo_from, 0),
			COALESCE(geo_to, 0),
			COALESCE(outbound_ind, ''),
			COALESCE(stop_conx_ind, ''),
			COALESCE(first_break_ind, ''),
			COALESCE(date_ind, ''),
			COALESCE(cxr_rest_ind, ''),
			COALESCE(cxr_appl_tbl, 0),
			COALESCE(fare_cxr_appl_tbl, 0),
			COALESCE(agency_ind, ''),
			COALESCE(agency_code, ''),
			COALESCE(to_char(eff_date, 'YYYY-MM-DD'), ''),
			COALESCE(to_char(disc_date, 'YYYY-MM-DD'), '')
		FROM reissue_sequences
		WHERE vendor = $1 AND item_no = $2
		ORDER BY seq_no ASC
	`

	rows, err := r.db.Query(ctx, query, string(vendor), itemNo)
	if err != nil {
		return nil, unavailable("query reissue sequences", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByPos[dto.ReissueSequenceRow])
	if err != nil {
		return nil, unavailable("scan reissue sequences", err)
	}

	return mappers.ToReissueSequences(collected, date)
}

func (r *Repository) CarrierApplications(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.CarrierApplicationInfo, error) {
	const query = `
		SELECT vendor, item_no, carrier, COALESCE(appl_ind, '')
		FROM carrier_applications
		WHERE vendor = $1 AND item_no = $2
		ORDER BY seq_no ASC
	`

	rows, err := r.db.Query(ctx, query, string(vendor), itemNo)
	if err != nil {
		return nil, unavailable("query carrier applications", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByPos[dto.CarrierApplicationRow])
	if err != nil {
		return nil, unavailable("scan carrier applications", err)
	}

	result := make([]models.CarrierApplicationInfo, 0, len(collected))
	for _, row := range collected {
		result = append(result, mappers.ToCarrierApplication(row))
	}
	return result, nil
}

func (r *Repository) GeoRuleItems(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.GeoRuleItem, error) {
	const query = `
		SELECT
			vendor,
			item_no,
			tsi,
			COALESCE(loc1_type, ''),
			COALESCE(loc1, ''),
			COALESCE(loc2_type, ''),
			COALESCE(loc2, '')
		FROM geo_rule_items
		WHERE vendor = $1 AND item_no = $2
	`

	rows, err := r.db.Query(ctx, query, string(vendor), itemNo)
	if err != nil {
		return nil, unavailable("query geo rule items", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByPos[dto.GeoRuleItemRow])
	if err != nil {
		return nil, unavailable("scan geo rule items", err)
	}

	result := make([]models.GeoRuleItem, 0, len(collected))
	for _, row := range collected {
		result = append(result, mappers.ToGeoRuleItem(row))
	}
	return result, nil
}

func (r *Repository) TSIInfo(ctx context.Context, tsi int) (models.TSIInfo, error) {
	const query = `
		SELECT tsi, scope, type, COALESCE(description, '')
		FROM tsi_info
		WHERE tsi = $1
	`

	var row dto.TSIRow
	err := r.db.QueryRow(ctx, query, tsi).Scan(&row.TSI, &row.Scope, &row.Type, &row.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TSIInfo{}, derr.ErrRuleNotFound
		}
		return models.TSIInfo{}, unavailable("query tsi", err)
	}

	return mappers.ToTSIInfo(row), nil
}

func (r *Repository) DateOverrideRuleItems(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.DateOverrideRuleItem, error) {
	const query = `
		SELECT
			vendor,
			item_no,
			COALESCE(to_char(tvl_eff, 'YYYY-MM-DD'), ''),
			COALESCE(to_char(tvl_disc, 'YYYY-MM-DD'), ''),
			COALESCE(to_char(tkt_eff, 'YYYY-MM-DD'), ''),
			COALESCE(to_char(tkt_disc, 'YYYY-MM-DD'), ''),
			COALESCE(to_char(res_eff, 'YYYY-MM-DD'), ''),
			COALESCE(to_char(res_disc, 'YYYY-MM-DD'), '')
		FROM date_override_items
		WHERE vendor = $1 AND item_no = $2
	`

	rows, err := r.db.Query(ctx, query, string(vendor), itemNo)
	if err != nil {
		return nil, unavailable("query date override items", err)
	}
	defer rows.Close()

	result := make([]models.DateOverrideRuleItem, 0)
	for rows.Next() {
		var row dto.DateOverrideRow
		if err := rows.Scan(
			&row.Vendor,
			&row.ItemNo,
			&row.TvlEffDate,
			&row.TvlDiscDate,
			&row.TktEffDate,
			&row.TktDiscDate,
			&row.ResEffDate,
			&row.ResDiscDate,
		); err != nil {
			return nil, unavailable("scan date override item", err)
		}
		item, err := mappers.ToDateOverrideItem(row)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate date override items", err)
	}

	return result, nil
}

// VoluntaryChanges returns the latest record 3 version effective on date.
func (r *Repository) VoluntaryChanges(ctx context.Context, vendor models.Vendor, itemNo int, date time.Time) (models.VoluntaryChangesInfo, error) {
	const query = `
		SELECT
			vendor,
			item_no,
			COALESCE(waiver_tbl, 0),
			COALESCE(psg_type, ''),
			COALESCE(tkt_validity_ind, ''),
			COALESCE(override_date_tbl, 0),
			COALESCE(adv_res_period, 0),
			COALESCE(adv_res_unit, ''),
			COALESCE(adv_res_to, ''),
			COALESCE(same_airport_ind, ''),
			COALESCE(tkt_time_limit_ind, ''),
			COALESCE(change_ind, ''),
			COALESCE(reissues_allowed, 0),
			COALESCE(cxr_appl_tbl, 0),
			COALESCE(dom_intl_comb, ''),
			COALESCE(reissue_tbl, 0),
			COALESCE(to_char(eff_date, 'YYYY-MM-DD'), ''),
			COALESCE(to_char(disc_date, 'YYYY-MM-DD'), '')
		FROM voluntary_changes
		WHERE vendor = $1 AND item_no = $2
		ORDER BY eff_date DESC NULLS LAST
	`

	rows, err := r.db.Query(ctx, query, string(vendor), itemNo)
	if err != nil {
		return models.VoluntaryChangesInfo{}, unavailable("query voluntary changes", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByPos[dto.VoluntaryChangesRow])
	if err != nil {
		return models.VoluntaryChangesInfo{}, unavailable("scan voluntary changes", err)
	}

	for _, row := range collected {
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

// MultiTransportCity returns an empty code when the airport has no city mapping.
func (r *Repository) MultiTransportCity(ctx context.Context, loc models.LocCode) (models.LocCode, error) {
	const query = `SELECT city FROM multi_transport_cities WHERE loc = $1`

	var city string
	err := r.db.QueryRow(ctx, query, string(loc)).Scan(&city)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", unavailable("query multi transport city", err)
	}
	return models.LocCode(city), nil
}
