package domain

// Chunk is one raw batch of search results emitted by the provider
// during a single session. The payload is loosely typed; every field
// access during conversion must tolerate missing or oddly-shaped values.
type Chunk = map[string]any

// FlightSegment is one flown leg of an itinerary. Immutable once built.
type FlightSegment struct {
	Departure        string `json:"departure"`
	Arrival          string `json:"arrival"`
	DepartureDate    string `json:"departure_date"`
	ArrivalDate      string `json:"arrival_date"`
	Duration         int    `json:"duration"`
	Number           string `json:"number"`
	MarketingCarrier string `json:"marketing_carrier"`
	OperatingCarrier string `json:"operating_carrier"`
}

// FlightInfo groups the segments of an offer. Only the outbound leg is
// modeled; there is no return leg.
type FlightInfo struct {
	Forward []FlightSegment `json:"forward"`
}

// BaggageInfo describes one baggage allowance line. Weight is nil when
// the provider does not report it.
type BaggageInfo struct {
	Count  int  `json:"count"`
	Weight *int `json:"weight,omitempty"`
}

// Baggage holds the cabin and checked allowances of a fare.
type Baggage struct {
	Handbags BaggageInfo `json:"handbags"`
	Baggage  BaggageInfo `json:"baggage"`
}

// RuleInfo is a single fare rule flag pair.
type RuleInfo struct {
	Available    bool `json:"available"`
	IsFromConfig bool `json:"is_from_config"`
}

// Rules holds the change/return conditions of a fare.
type Rules struct {
	ReturnBeforeFlight RuleInfo `json:"return_before_flight"`
	ChangeBeforeFlight RuleInfo `json:"change_before_flight"`
}

// FareInfo describes one fare line: code, cabin class, baggage and
// rules.
type FareInfo struct {
	FareCode  string  `json:"fare_code"`
	TripClass string  `json:"trip_class"`
	Baggage   Baggage `json:"baggage"`
	Rules     Rules   `json:"rules"`
}

// Fare is one priced fare option within an offer. Prices maps a
// provider label to the price offered for this fare only.
type Fare struct {
	FareKey  string         `json:"fare_key"`
	FareInfo []FareInfo     `json:"fare_info"`
	Prices   map[string]int `json:"prices"`
}

// FlightOffer is one priced itinerary.
//
// MinPrice and MinProvider are the argmin over Prices; when Prices is
// empty they are zero and the empty string. IsVtrip is true iff the
// offer has more than one segment and at least one segment's marketing
// carrier differs from its own operating carrier.
type FlightOffer struct {
	IsVtrip     bool           `json:"is_vtrip"`
	Key         string         `json:"key"`
	FlightInfo  FlightInfo     `json:"flight_info"`
	Fares       []Fare         `json:"fares"`
	Prices      map[string]int `json:"prices"`
	Duration    int            `json:"duration"`
	MinPrice    int            `json:"min_price"`
	MinProvider string         `json:"min_provider"`
}

// ServiceResponse is the API-level search result. Result groups offers
// by route key (departure+arrival+date of the first segment). Success
// is true iff at least one route key has a non-empty offer list.
type ServiceResponse struct {
	Success bool                     `json:"success"`
	Pid     string                   `json:"pid"`
	Result  map[string][]FlightOffer `json:"result"`
}
