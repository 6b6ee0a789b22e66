package dto

// Rows mirror the rule extract columns. Indicator bytes travel as one character strings
// and dates as YYYY-MM-DD, empty meaning open.

type ReissueSequenceRow struct {
	Vendor               string `csv:"vendor"`
	ItemNo               int    `csv:"item_no"`
	SeqNo                int    `csv:"seq_no"`
	ProcessingInd        int    `csv:"processing_ind"`
	FlightNoInd          string `csv:"flight_no_ind"`
	PortionInd           string `csv:"portion_ind"`
	TvlGeoTblItemNoFrom  int    `csv:"geo_from"`
	TvlGeoTblItemNoTo    int    `csv:"geo_to"`
	OutboundInd          string `csv:"outbound_ind"`
	StopoverConnectInd   string `csv:"stop_conx_ind"`
	FirstBreakInd        string `csv:"first_break_ind"`
	DateInd              string `csv:"date_ind"`
	CarrierRestInd       string `csv:"cxr_rest_ind"`
	CarrierApplTblItemNo int    `csv:"cxr_appl_tbl"`
	FareCxrApplTblItemNo int    `csv:"fare_cxr_appl_tbl"`
	AgencyLocRestInd     string `csv:"agency_ind"`
	AgencyLocCode        string `csv:"agency_code"`
	EffDate              string `csv:"eff_date"`
	DiscDate             string `csv:"disc_date"`
}

type CarrierApplicationRow struct {
	Vendor  string `csv:"vendor"`
	ItemNo  int    `csv:"item_no"`
	Carrier string `csv:"carrier"`
	ApplInd string `csv:"appl_ind"`
}

type GeoRuleItemRow struct {
	Vendor   string `csv:"vendor"`
	ItemNo   int    `csv:"item_no"`
	TSI      int    `csv:"tsi"`
	Loc1Type string `csv:"loc1_type"`
	Loc1     string `csv:"loc1"`
	Loc2Type string `csv:"loc2_type"`
	Loc2     string `csv:"loc2"`
}

type TSIRow struct {
	TSI         int    `csv:"tsi"`
	Scope       string `csv:"scope"`
	Type        string `csv:"type"`
	Description string `csv:"description"`
}

type DateOverrideRow struct {
	Vendor      string `csv:"vendor"`
	ItemNo      int    `csv:"item_no"`
	TvlEffDate  string `csv:"tvl_eff"`
	TvlDiscDate string `csv:"tvl_disc"`
	TktEffDate  string `csv:"tkt_eff"`
	TktDiscDate string `csv:"tkt_disc"`
	ResEffDate  string `csv:"res_eff"`
	ResDiscDate string `csv:"res_disc"`
}

type VoluntaryChangesRow struct {
	Vendor                string `csv:"vendor"`
	ItemNo                int    `csv:"item_no"`
	WaiverTblItemNo       int    `csv:"waiver_tbl"`
	PsgType               string `csv:"psg_type"`
	TktValidityInd        string `csv:"tkt_validity_ind"`
	OverrideDateTblItemNo int    `csv:"override_date_tbl"`
	AdvResPeriod          int    `csv:"adv_res_period"`
	AdvResUnit            string `csv:"adv_res_unit"`
	AdvResTo              string `csv:"adv_res_to"`
	SameAirportInd        string `csv:"same_airport_ind"`
	TktTimeLimitInd       string `csv:"tkt_time_limit_ind"`
	ChangeInd             string `csv:"change_ind"`
	ReissuesAllowed       int    `csv:"reissues_allowed"`
	CarrierApplTblItemNo  int    `csv:"cxr_appl_tbl"`
	DomesticIntlComb      string `csv:"dom_intl_comb"`
	ReissueTblItemNo      int    `csv:"reissue_tbl"`
	EffDate               string `csv:"eff_date"`
	DiscDate              string `csv:"disc_date"`
}

type MultiCityRow struct {
	Loc  string `csv:"loc"`
	City string `csv:"city"`
}
