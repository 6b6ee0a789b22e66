package ports

import (
	"context"
	"time"

	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
)

// RuleStore is the synchronous rule lookup service. List queries return an empty slice when no rows match.
type RuleStore interface {
	ReissueSequences(ctx context.Context, vendor models.Vendor, itemNo int, date time.Time) ([]models.ReissueSequence, error)
	CarrierApplications(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.CarrierApplicationInfo, error)
	GeoRuleItems(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.GeoRuleItem, error)
	TSIInfo(ctx context.Context, tsi int) (models.TSIInfo, error)
	DateOverrideRuleItems(ctx context.Context, vendor models.Vendor, itemNo int) ([]models.DateOverrideRuleItem, error)
	VoluntaryChanges(ctx context.Context, vendor models.Vendor, itemNo int, date time.Time) (models.VoluntaryChangesInfo, error)
}

// CityResolver maps an airport to its multi-transport city.
type CityResolver interface {
	MultiTransportCity(ctx context.Context, loc models.LocCode) (models.LocCode, error)
}

type RuleCache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
