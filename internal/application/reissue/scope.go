package reissue

import (
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/calendar"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
)

// Validation names one table 988 predicate.
type Validation uint8

const (
	ValidateCancelAndStartOver Validation = iota
	ValidateFlightNo
	ValidatePortion
	ValidateOutboundPortion
	ValidateCarrierRestrictions
	ValidateTag7
	ValidateAgency
	ValidateDepartureDate
)

func (v Validation) String() string {
	switch v {
	case ValidateCancelAndStartOver:
		return "CANCEL AND START OVER"
	case ValidateFlightNo:
		return "FLIGHT NUMBER"
	case ValidatePortion:
		return "PORTION"
	case ValidateOutboundPortion:
		return "OUTBOUND PORTION"
	case ValidateCarrierRestrictions:
		return "CARRIER RESTRICTIONS"
	case ValidateTag7:
		return "TAG 7 DEFINITION"
	case ValidateAgency:
		return "AGENCY RESTRICTIONS"
	case ValidateDepartureDate:
		return "DEPARTURE DATE"
	default:
		return "UNKNOWN"
	}
}

// Scope is the transaction context a sequence is validated against.
// A non-nil Calendar switches date checks to the OND window mode.
type Scope struct {
	Trx         *models.ExchangeTrx
	Calendar    *calendar.R3ValidationResult
	PricingUnit *models.PricingUnit
	Diag        ports.DiagCollector
}

func (s *Scope) journey() []*models.TravelSeg {
	if s.Trx == nil || s.Trx.ExchangeItin == nil {
		return nil
	}
	return s.Trx.ExchangeItin.TravelSegs
}

func (s *Scope) newSegs() []*models.TravelSeg {
	if s.Trx == nil || s.Trx.NewItin == nil {
		return nil
	}
	return s.Trx.NewItin.TravelSegs
}

// firstFareComponent returns the segments of the first fare component of the exchanged journey.
func (s *Scope) firstFareComponent() []*models.TravelSeg {
	if s.Trx == nil || s.Trx.ExchangeItin == nil {
		return nil
	}
	itin := s.Trx.ExchangeItin
	if len(itin.TravelSegs) == 0 {
		return nil
	}
	if fm := itin.FareMarketOf(itin.TravelSegs[0]); fm != nil {
		return fm.TravelSegs
	}
	return itin.TravelSegs[:1]
}

func (s *Scope) segsFor(scope models.GeoScope, fm *models.FareMarket) []*models.TravelSeg {
	switch scope {
	case models.GeoScopeFareComponent:
		return fm.TravelSegs
	case models.GeoScopeSubJourney:
		if s.PricingUnit != nil && len(s.PricingUnit.TravelSegs) > 0 {
			return s.PricingUnit.TravelSegs
		}
		return fm.TravelSegs
	default:
		return s.journey()
	}
}
