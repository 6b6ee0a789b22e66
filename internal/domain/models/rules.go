package models

import "time"

// Indicator bytes use ' ' for "not apply", matching the rule tables.
const Blank byte = ' '

type GeoScope uint8

const (
	GeoScopeNone GeoScope = iota
	GeoScopeJourney
	GeoScopeSubJourney
	GeoScopeFareComponent
)

func (s GeoScope) String() string {
	switch s {
	case GeoScopeJourney:
		return "JOURNEY"
	case GeoScopeSubJourney:
		return "SUB JOURNEY"
	case GeoScopeFareComponent:
		return "FARE COMPONENT"
	default:
		return "NONE"
	}
}

type TSIType uint8

const (
	TSIAny TSIType = iota
	TSIDeparture
	TSIArrival
	TSIOrigin
	TSIDestination
	TSIStopover
	TSIConnection
)

// TSIInfo is the decoded travel segment indicator definition.
type TSIInfo struct {
	TSI         int
	Scope       GeoScope
	Type        TSIType
	Description string
}

type LocType byte

const (
	LocTypeNone    LocType = ' '
	LocTypeAirport LocType = 'P'
	LocTypeCity    LocType = 'C'
	LocTypeNation  LocType = 'N'
	LocTypeSubArea LocType = 'S'
	LocTypeArea    LocType = 'A'
)

type LocKey struct {
	Type LocType
	Code string
}

func (k LocKey) IsEmpty() bool {
	return k.Code == "" || k.Type == LocTypeNone || k.Type == 0
}

// GeoRuleItem is one table 995 row.
type GeoRuleItem struct {
	Vendor Vendor
	ItemNo int
	TSI    int
	Loc1   LocKey
	Loc2   LocKey
}

type CarrierApplInd byte

const (
	CarrierApplAllow  CarrierApplInd = ' '
	CarrierApplForbid CarrierApplInd = 'X'
)

// CarrierApplicationInfo is one table 990 row.
type CarrierApplicationInfo struct {
	Vendor  Vendor
	ItemNo  int
	Carrier CarrierCode
	ApplInd CarrierApplInd
}

// DateOverrideRuleItem is one override date table row. Zero dates are open bounds.
type DateOverrideRuleItem struct {
	Vendor      Vendor
	ItemNo      int
	TvlEffDate  time.Time
	TvlDiscDate time.Time
	TktEffDate  time.Time
	TktDiscDate time.Time
	ResEffDate  time.Time
	ResDiscDate time.Time
}

type ProcessingTag int

const (
	TagNone                       ProcessingTag = 0
	TagKeepTheFares               ProcessingTag = 1
	TagGuaranteedAirFare          ProcessingTag = 2
	TagKeepFaresForTravelledFC    ProcessingTag = 3
	TagKeepFaresForUnchangedFC    ProcessingTag = 4
	TagNoGuaranteedFares          ProcessingTag = 5
	TagTravelCommencementAirFares ProcessingTag = 6
	TagReissueDownToLowerFare     ProcessingTag = 7
	TagCancelAndStartOver         ProcessingTag = 11
)

type PortionInd byte

const (
	PortionNotApply             PortionInd = ' '
	PortionFirstFlightCoupon    PortionInd = '1'
	PortionFirstFlightComponent PortionInd = '2'
)

type OutboundInd byte

const (
	OutboundNotApply           OutboundInd = ' '
	OutboundOrigToStopover     OutboundInd = 'O'
	OutboundFirstFareComponent OutboundInd = 'F'
)

type StopoverConnectInd byte

const (
	StopConxNotApply   StopoverConnectInd = ' '
	StopConxConnection StopoverConnectInd = 'C'
	StopConxStopover   StopoverConnectInd = 'S'
	StopConxBoth       StopoverConnectInd = 'B'
)

type DateInd byte

const (
	DateIndNotApply           DateInd = ' '
	DateIndSameDepartureDate  DateInd = 'S'
	DateIndLaterDepartureDate DateInd = 'L'
)

type CarrierRestInd byte

const (
	CxrRestNotApply   CarrierRestInd = ' '
	CxrRestValidating CarrierRestInd = 'V'
	CxrRestGoverning  CarrierRestInd = 'G'
)

type AgencyRestInd byte

const (
	AgencyNotApply     AgencyRestInd = ' '
	AgencyTravelAgency AgencyRestInd = 'T'
	AgencyHomeAgency   AgencyRestInd = 'U'
	AgencyIATA         AgencyRestInd = 'I'
	AgencyHomeIATA     AgencyRestInd = 'H'
)

// ReissueSequence is one table 988 row.
type ReissueSequence struct {
	Vendor               Vendor
	ItemNo               int
	SeqNo                int
	ProcessingInd        ProcessingTag
	FlightNoInd          byte
	PortionInd           PortionInd
	TvlGeoTblItemNoFrom  int
	TvlGeoTblItemNoTo    int
	OutboundInd          OutboundInd
	StopoverConnectInd   StopoverConnectInd
	FirstBreakInd        byte
	DateInd              DateInd
	CarrierRestInd       CarrierRestInd
	CarrierApplTblItemNo int
	FareCxrApplTblItemNo int
	AgencyLocRestInd     AgencyRestInd
	AgencyLocCode        string
}

type ChangeInd byte

const (
	ChangeIndNoRestriction ChangeInd = ' '
	ChangeIndNotPermitted  ChangeInd = 'N'
	// ChangeIndP permits changes only before departure of the journey.
	ChangeIndP ChangeInd = 'P'
	// ChangeIndJ permits changes only after departure of the journey.
	ChangeIndJ ChangeInd = 'J'
)

type AdvResUnit byte

const (
	AdvResUnitNone  AdvResUnit = ' '
	AdvResUnitHour  AdvResUnit = 'H'
	AdvResUnitDay   AdvResUnit = 'D'
	AdvResUnitMonth AdvResUnit = 'M'
)

type AdvResTo byte

const (
	AdvResToJourney       AdvResTo = 'J'
	AdvResToFareComponent AdvResTo = 'F'
)

// VoluntaryChangesInfo is the category 31 record 3.
type VoluntaryChangesInfo struct {
	Vendor                Vendor
	ItemNo                int
	WaiverTblItemNo       int
	PsgType               string
	TktValidityInd        byte
	OverrideDateTblItemNo int
	AdvResPeriod          int
	AdvResUnit            AdvResUnit
	AdvResTo              AdvResTo
	SameAirportInd        byte
	TktTimeLimitInd       byte
	ChangeInd             ChangeInd
	// ReissuesAllowed limits the number of previous reissues; zero means unlimited.
	ReissuesAllowed      int
	CarrierApplTblItemNo int
	DomesticIntlComb     byte
	ReissueTblItemNo     int
}

// IsSet reports whether an indicator byte carries a value.
func IsSet[T ~byte](ind T) bool {
	return ind != 0 && byte(ind) != Blank
}
