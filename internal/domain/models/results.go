package models

type Record3ReturnType uint8

const (
	Record3Fail Record3ReturnType = iota
	Record3Pass
	Record3SoftPass
)

func (r Record3ReturnType) String() string {
	switch r {
	case Record3Pass:
		return "PASS"
	case Record3SoftPass:
		return "SOFTPASS"
	default:
		return "FAIL"
	}
}

type CalendarAppl uint8

const (
	CalendarWholePeriod CalendarAppl = iota
	CalendarSameDepartureDate
	CalendarLaterDepartureDate
)

// FareByteCxrAppl is the merged carrier applicability of the new fares.
type FareByteCxrAppl struct {
	Restricted Set[CarrierCode]
	Applicable Set[CarrierCode]
	// GovCxrPrefer requires new fares to be published by the governing carrier.
	GovCxrPrefer bool
}

// R3SeqsConstraint is the merged table 988 restriction set for one OND and one date group.
type R3SeqsConstraint struct {
	OndIndex                int
	PortionMerge            Set[int]
	ForcedConnections       Set[LocCode]
	FirstBreakStatus        bool
	FlightNumberRestriction bool
	FareByteCxrAppl         FareByteCxrAppl
	OutboundPortion         Set[int]
	CalendarAppl            CalendarAppl
	CalendarRange           DateRange
	SeqNos                  []int
}
