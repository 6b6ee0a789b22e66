package grpc

import "time"

// Wire payloads travel as google.protobuf.Struct; these types are their JSON shape.

type locDTO struct {
	Code    string `json:"code"`
	City    string `json:"city,omitempty"`
	Nation  string `json:"nation,omitempty"`
	SubArea string `json:"sub_area,omitempty"`
	Area    string `json:"area,omitempty"`
}

type segmentDTO struct {
	LegID        int       `json:"leg_id"`
	Surface      bool      `json:"surface,omitempty"`
	Origin       locDTO    `json:"origin"`
	Destination  locDTO    `json:"destination"`
	Departure    time.Time `json:"departure"`
	Carrier      string    `json:"carrier"`
	FlightNumber int       `json:"flight_number"`
	ChangeStatus string    `json:"change_status,omitempty"`
	Unflown      bool      `json:"unflown"`
	Stopover     bool      `json:"stopover,omitempty"`
}

type fareMarketDTO struct {
	// Segments are 1-based positions in the owning itinerary.
	Segments         []int  `json:"segments"`
	GoverningCarrier string `json:"governing_carrier"`
	International    bool   `json:"international,omitempty"`
}

type itinDTO struct {
	Segments          []segmentDTO    `json:"segments"`
	FareMarkets       []fareMarketDTO `json:"fare_markets"`
	ValidatingCarrier string          `json:"validating_carrier"`
}

type ondDTO struct {
	TravelDate string `json:"travel_date"`
	DaysBefore int    `json:"days_before,omitempty"`
	DaysAfter  int    `json:"days_after,omitempty"`
	Skipped    int    `json:"skipped,omitempty"`
}

type agentDTO struct {
	PCC            string `json:"pcc,omitempty"`
	MainPCC        string `json:"main_pcc,omitempty"`
	IATA           string `json:"iata,omitempty"`
	HomeAgencyIATA string `json:"home_iata,omitempty"`
}

type preselectedDTO struct {
	FareComp int    `json:"fare_comp"`
	ItemNo   int    `json:"item_no"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

type trxDTO struct {
	Type               string           `json:"type"`
	ExchangeItin       itinDTO          `json:"exchange_itin"`
	NewItin            itinDTO          `json:"new_itin"`
	ONDs               []ondDTO         `json:"onds,omitempty"`
	Agent              agentDTO         `json:"agent"`
	TestRequest        bool             `json:"test_request,omitempty"`
	OriginalTicketDate time.Time        `json:"original_ticket_date"`
	CurrentTicketDate  time.Time        `json:"current_ticket_date"`
	ReissueCount       int              `json:"reissue_count,omitempty"`
	PSSCarriers        []string         `json:"pss_carriers,omitempty"`
	Preselected        []preselectedDTO `json:"preselected,omitempty"`
}

type fareDTO struct {
	// FareMarket indexes the exchange itinerary's fare markets.
	FareMarket     int    `json:"fare_market"`
	FareCompNumber int    `json:"fare_comp"`
	Vendor         string `json:"vendor"`
	Carrier        string `json:"carrier"`
	PaxType        string `json:"pax_type"`
	FareClass      string `json:"fare_class,omitempty"`
}

type rec3KeyDTO struct {
	Vendor string `json:"vendor"`
	ItemNo int    `json:"item_no"`
}

type validateRequestDTO struct {
	Trx   trxDTO    `json:"trx"`
	Fares []fareDTO `json:"fares"`
	// PricingUnit groups all fares into one pricing unit when set.
	PricingUnit bool         `json:"pricing_unit"`
	FareComp    int          `json:"fare_comp"`
	Items       []rec3KeyDTO `json:"items"`
	Diag        bool         `json:"diag,omitempty"`
}

type itemResultDTO struct {
	Vendor       string `json:"vendor"`
	ItemNo       int    `json:"item_no"`
	Result       string `json:"result"`
	Sequences    []int  `json:"sequences"`
	OverridingFc int    `json:"overriding_fc,omitempty"`
}

type validateResponseDTO struct {
	FareComp    int             `json:"fare_comp"`
	Results     []itemResultDTO `json:"results"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
}

type dateRangeDTO struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

type constraintDTO struct {
	OndIndex           int          `json:"ond_index"`
	SeqNos             []int        `json:"seq_nos"`
	CalendarAppl       string       `json:"calendar_appl"`
	CalendarRange      dateRangeDTO `json:"calendar_range"`
	Portion            []int        `json:"portion"`
	OutboundPortion    []int        `json:"outbound_portion"`
	ForcedConnections  []string     `json:"forced_connections"`
	FirstBreak         bool         `json:"first_break"`
	FlightNumber       bool         `json:"flight_number"`
	RestrictedCarriers []string     `json:"restricted_carriers"`
	ApplicableCarriers []string     `json:"applicable_carriers"`
	GovCxrPrefer       bool         `json:"gov_cxr_prefer"`
}

type mergeResponseDTO struct {
	FareComp    int             `json:"fare_comp"`
	Result      string          `json:"result"`
	Constraints []constraintDTO `json:"constraints"`
	Calendar    []dateRangeDTO  `json:"calendar,omitempty"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
}
