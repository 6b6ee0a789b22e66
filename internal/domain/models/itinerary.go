package models

import (
	"sync"
	"time"
)

type LocCode string

type CarrierCode string

type Vendor string

// AnyCarrier is the table 990 wildcard for every carrier not listed explicitly.
const AnyCarrier CarrierCode = "$$"

type Loc struct {
	Code    LocCode
	City    LocCode
	Nation  string
	SubArea string
	Area    string
}

type SegmentType uint8

const (
	SegmentAir SegmentType = iota
	SegmentSurface
)

type ChangeStatus uint8

const (
	ChangeUnchanged ChangeStatus = iota
	ChangeChanged
	ChangeInventoryChanged
	ChangeConfirmOnly
)

type TravelSeg struct {
	// Order is the 1-based position of the segment in its itinerary.
	Order          int
	LegID          int
	Type           SegmentType
	Origin         Loc
	Destination    Loc
	BoardMultiCity LocCode
	OffMultiCity   LocCode
	DepartureDT    time.Time
	Carrier        CarrierCode
	FlightNumber   int
	ChangeStatus   ChangeStatus
	Unflown        bool
	// Stopover marks a stopover at the segment's destination.
	Stopover bool
}

func (s *TravelSeg) IsAir() bool {
	return s.Type == SegmentAir
}

func (s *TravelSeg) IsChanged() bool {
	return s.ChangeStatus == ChangeChanged
}

func (s *TravelSeg) DepartureDate() time.Time {
	return StripHours(s.DepartureDT)
}

type FareMarket struct {
	TravelSegs       []*TravelSeg
	GoverningCarrier CarrierCode
	International    bool
}

func (fm *FareMarket) Origin() Loc {
	if len(fm.TravelSegs) == 0 {
		return Loc{}
	}
	return fm.TravelSegs[0].Origin
}

func (fm *FareMarket) Destination() Loc {
	if len(fm.TravelSegs) == 0 {
		return Loc{}
	}
	return fm.TravelSegs[len(fm.TravelSegs)-1].Destination
}

func (fm *FareMarket) Contains(seg *TravelSeg) bool {
	for _, s := range fm.TravelSegs {
		if s == seg {
			return true
		}
	}
	return false
}

type Itin struct {
	TravelSegs        []*TravelSeg
	FareMarkets       []*FareMarket
	ValidatingCarrier CarrierCode
}

// FareMarketOf returns the fare market holding seg, or nil.
func (it *Itin) FareMarketOf(seg *TravelSeg) *FareMarket {
	for _, fm := range it.FareMarkets {
		if fm.Contains(seg) {
			return fm
		}
	}
	return nil
}

type PaxTypeFare struct {
	FareMarket     *FareMarket
	Vendor         Vendor
	Carrier        CarrierCode
	PaxType        string
	FareClass      string
	FareCompNumber int
	LastTicketDate time.Time
}

type FareUsage struct {
	PaxTypeFare *PaxTypeFare
	TravelSegs  []*TravelSeg
}

type PricingUnit struct {
	FareUsages []*FareUsage
	TravelSegs []*TravelSeg
}

type OriginDestination struct {
	TravelDate    time.Time
	CalDaysBefore int
	CalDaysAfter  int
	SkippedOND    int
}

type Agent struct {
	TvlAgencyPCC     string
	MainTvlAgencyPCC string
	TvlAgencyIATA    string
	HomeAgencyIATA   string
}

type TriState uint8

const (
	TriUnknown TriState = iota
	TriPass
	TriFail
)

// FareCompInfo carries the memoized per fare component results written during rule validation.
type FareCompInfo struct {
	Number     int
	FareMarket *FareMarket

	mu                 sync.Mutex
	sameAirportResult  TriState
	overridingFcs      []int
	failByPrevReissued map[int]bool
}

func (fc *FareCompInfo) SameAirportResult() TriState {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.sameAirportResult
}

func (fc *FareCompInfo) SetSameAirportResult(r TriState) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.sameAirportResult = r
}

func (fc *FareCompInfo) AddOverridingFc(number int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, n := range fc.overridingFcs {
		if n == number {
			return
		}
	}
	fc.overridingFcs = append(fc.overridingFcs, number)
}

func (fc *FareCompInfo) OverridingFcs() []int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]int, len(fc.overridingFcs))
	copy(out, fc.overridingFcs)
	return out
}

// FailedByPrevReissued reports the memo for a record 3 item; known is false when never evaluated.
func (fc *FareCompInfo) FailedByPrevReissued(itemNo int) (failed, known bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	failed, known = fc.failByPrevReissued[itemNo]
	return failed, known
}

func (fc *FareCompInfo) SetFailByPrevReissued(itemNo int, failed bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.failByPrevReissued == nil {
		fc.failByPrevReissued = make(map[int]bool)
	}
	fc.failByPrevReissued[itemNo] = failed
}

type TrxType uint8

const (
	TrxPortExchange TrxType = iota
	TrxExchangeMIP
	TrxReshop
)

// ExchangeTrx is the transaction-scoped state of one exchange pricing or shopping request.
type ExchangeTrx struct {
	Type               TrxType
	ExchangeItin       *Itin
	NewItin            *Itin
	ONDs               []*OriginDestination
	Agent              Agent
	TestRequest        bool
	OriginalTicketDate time.Time
	CurrentTicketDate  time.Time
	ReissueCount       int
	PSSCarriers        Set[CarrierCode]
	// PreselectedRec3 maps fare component number to record 3 item numbers that passed prevalidation.
	PreselectedRec3 map[int]map[int]DateRange
	FareCompInfos   []*FareCompInfo
}

func (t *ExchangeTrx) FareCompInfo(number int) *FareCompInfo {
	for _, fc := range t.FareCompInfos {
		if fc.Number == number {
			return fc
		}
	}
	return nil
}
