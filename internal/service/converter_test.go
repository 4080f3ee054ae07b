package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkazmin/flysearch-api/internal/domain"
)

func agentsTable() map[string]any {
	return map[string]any{
		"344": map[string]any{
			"label": map[string]any{"ru": map[string]any{"default": "OneTwoTrip"}},
		},
	}
}

func mowLedLeg() map[string]any {
	return map[string]any{
		"origin":                       "MOW",
		"destination":                  "LED",
		"local_departure_date_time":    "2025-12-17 15:30",
		"local_arrival_date_time":      "2025-12-17 19:26",
		"departure_unix_timestamp":     1765974600,
		"arrival_unix_timestamp":       1765988760,
		"operating_carrier_designator": map[string]any{"carrier": "SU"},
	}
}

func oneTwoTripProposal(price int) map[string]any {
	return map[string]any{
		"agent_id": 344,
		"price":    map[string]any{"value": price},
		"flight_terms": map[string]any{
			"0": map[string]any{
				"trip_class":                   "Y",
				"marketing_carrier_designator": map[string]any{"carrier": "SU", "number": "26"},
			},
		},
		"minimum_fare": map[string]any{
			"fare_key":             "1_0_0_0_1_23_0_0_0_1_0_0_0_0",
			"fare_code":            "Y_1PC23",
			"handbags":             map[string]any{"count": 1},
			"baggage":              map[string]any{"count": 1, "weight": 23},
			"return_before_flight": map[string]any{"available": true, "is_from_config": true},
			"change_before_flight": map[string]any{"available": false, "is_from_config": true},
		},
	}
}

func singleSegmentChunk() domain.Chunk {
	return domain.Chunk{
		"agents":      agentsTable(),
		"flight_legs": []any{mowLedLeg()},
		"tickets": []any{
			map[string]any{
				"signature": "MOW_LED_2025-12-17T15:30_SU_26",
				"segments":  []any{map[string]any{"flights": []any{0}}},
				"proposals": []any{oneTwoTripProposal(1592)},
			},
		},
	}
}

func TestConvertChunkEmptyInputs(t *testing.T) {
	converter := NewFlightOfferConverter()

	tests := []struct {
		name  string
		chunk domain.Chunk
	}{
		{"nil chunk", nil},
		{"empty chunk", domain.Chunk{}},
		{"no tickets key", domain.Chunk{"agents": map[string]any{}}},
		{"tickets not a list", domain.Chunk{"tickets": "oops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, converter.ConvertChunk(tt.chunk))
		})
	}
}

func TestConvertChunkSingleSegment(t *testing.T) {
	converter := NewFlightOfferConverter()

	offers := converter.ConvertChunk(singleSegmentChunk())
	require.Len(t, offers, 1)
	require.Len(t, offers["MOWLED20251217"], 1)

	offer := offers["MOWLED20251217"][0]
	assert.False(t, offer.IsVtrip)
	assert.Equal(t, "MOW_LED_2025-12-17T15:30_SU_26", offer.Key)
	assert.Equal(t, 1592, offer.MinPrice)
	assert.Equal(t, "OneTwoTrip", offer.MinProvider)
	assert.Equal(t, map[string]int{"OneTwoTrip": 1592}, offer.Prices)
	assert.Equal(t, 236, offer.Duration)

	require.Len(t, offer.FlightInfo.Forward, 1)
	seg := offer.FlightInfo.Forward[0]
	assert.Equal(t, "MOW", seg.Departure)
	assert.Equal(t, "LED", seg.Arrival)
	assert.Equal(t, "2025-12-17T15:30", seg.DepartureDate)
	assert.Equal(t, "2025-12-17T19:26", seg.ArrivalDate)
	assert.Equal(t, 236, seg.Duration)
	assert.Equal(t, "26", seg.Number)
	assert.Equal(t, "SU", seg.MarketingCarrier)
	assert.Equal(t, "SU", seg.OperatingCarrier)

	require.Len(t, offer.Fares, 1)
	fare := offer.Fares[0]
	assert.Equal(t, "1_0_0_0_1_23_0_0_0_1_0_0_0_0", fare.FareKey)
	assert.Equal(t, map[string]int{"OneTwoTrip": 1592}, fare.Prices)
	require.Len(t, fare.FareInfo, 1)
	info := fare.FareInfo[0]
	assert.Equal(t, "Y_1PC23", info.FareCode)
	assert.Equal(t, "Y", info.TripClass)
	assert.Equal(t, 1, info.Baggage.Handbags.Count)
	assert.Nil(t, info.Baggage.Handbags.Weight)
	require.NotNil(t, info.Baggage.Baggage.Weight)
	assert.Equal(t, 23, *info.Baggage.Baggage.Weight)
	assert.True(t, info.Rules.ReturnBeforeFlight.Available)
	assert.False(t, info.Rules.ChangeBeforeFlight.Available)
}

func TestConvertChunkVtrip(t *testing.T) {
	converter := NewFlightOfferConverter()

	secondLeg := map[string]any{
		"origin":                       "LED",
		"destination":                  "AER",
		"local_departure_date_time":    "2025-12-17 21:00",
		"local_arrival_date_time":      "2025-12-18 00:30",
		"departure_unix_timestamp":     1765994400,
		"arrival_unix_timestamp":       1766007000,
		"operating_carrier_designator": map[string]any{"carrier": "DP"},
	}
	proposal := oneTwoTripProposal(5430)
	proposal["flight_terms"] = map[string]any{
		"0": map[string]any{
			"trip_class":                   "Y",
			"marketing_carrier_designator": map[string]any{"carrier": "SU", "number": "26"},
		},
		"1": map[string]any{
			"trip_class":                   "Y",
			"marketing_carrier_designator": map[string]any{"carrier": "SU", "number": "2134"},
		},
	}
	chunk := domain.Chunk{
		"agents":      agentsTable(),
		"flight_legs": []any{mowLedLeg(), secondLeg},
		"tickets": []any{
			map[string]any{
				"signature": "two-legs",
				"segments":  []any{map[string]any{"flights": []any{0, 1}}},
				"proposals": []any{proposal},
			},
		},
	}

	offers := converter.ConvertChunk(chunk)
	require.Len(t, offers["MOWLED20251217"], 1)

	offer := offers["MOWLED20251217"][0]
	require.Len(t, offer.FlightInfo.Forward, 2)
	// Second segment markets SU but operates DP.
	assert.True(t, offer.IsVtrip)
	assert.Equal(t, 236+210, offer.Duration)
}

func TestConvertChunkMinPriceArgmin(t *testing.T) {
	converter := NewFlightOfferConverter()

	cheap := oneTwoTripProposal(1300)
	cheap["agent_id"] = "13"
	chunk := singleSegmentChunk()
	ticket := chunk["tickets"].([]any)[0].(map[string]any)
	ticket["proposals"] = []any{oneTwoTripProposal(1592), cheap}

	offers := converter.ConvertChunk(chunk)
	offer := offers["MOWLED20251217"][0]

	// Agent 13 has no label in the agents table, so its raw id is the key.
	assert.Equal(t, map[string]int{"OneTwoTrip": 1592, "13": 1300}, offer.Prices)
	assert.Equal(t, 1300, offer.MinPrice)
	assert.Equal(t, "13", offer.MinProvider)
	assert.Len(t, offer.Fares, 2)
}

func TestConvertChunkMinPriceTie(t *testing.T) {
	converter := NewFlightOfferConverter()

	other := oneTwoTripProposal(1592)
	other["agent_id"] = "13"
	chunk := singleSegmentChunk()
	ticket := chunk["tickets"].([]any)[0].(map[string]any)
	ticket["proposals"] = []any{oneTwoTripProposal(1592), other}

	offer := converter.ConvertChunk(chunk)["MOWLED20251217"][0]
	assert.Equal(t, 1592, offer.MinPrice)
	// Ties resolve to the lexicographically smallest provider.
	assert.Equal(t, "13", offer.MinProvider)
}

func TestConvertChunkDropsUnresolvableTickets(t *testing.T) {
	converter := NewFlightOfferConverter()

	tests := []struct {
		name   string
		mutate func(ticket map[string]any)
	}{
		{"no proposals", func(ticket map[string]any) {
			ticket["proposals"] = []any{}
		}},
		{"no segments", func(ticket map[string]any) {
			ticket["segments"] = []any{}
		}},
		{"all leg indices out of range", func(ticket map[string]any) {
			ticket["segments"] = []any{map[string]any{"flights": []any{7}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := singleSegmentChunk()
			tt.mutate(chunk["tickets"].([]any)[0].(map[string]any))
			assert.Empty(t, converter.ConvertChunk(chunk))
		})
	}
}

func TestConvertChunkSkipsOutOfRangeLegButKeepsTicket(t *testing.T) {
	converter := NewFlightOfferConverter()

	chunk := singleSegmentChunk()
	ticket := chunk["tickets"].([]any)[0].(map[string]any)
	// One bad index, one good: the bad one is skipped, the ticket survives.
	ticket["segments"] = []any{map[string]any{"flights": []any{9, 0}}}

	offers := converter.ConvertChunk(chunk)
	require.Len(t, offers["MOWLED20251217"], 1)
	assert.Len(t, offers["MOWLED20251217"][0].FlightInfo.Forward, 1)
}

func TestConvertChunkMissingFlightTerms(t *testing.T) {
	converter := NewFlightOfferConverter()

	chunk := singleSegmentChunk()
	ticket := chunk["tickets"].([]any)[0].(map[string]any)
	proposal := ticket["proposals"].([]any)[0].(map[string]any)
	delete(proposal, "flight_terms")

	offers := converter.ConvertChunk(chunk)
	require.Len(t, offers["MOWLED20251217"], 1)
	seg := offers["MOWLED20251217"][0].FlightInfo.Forward[0]
	// Missing terms yield empty fields, never an error.
	assert.Equal(t, "", seg.Number)
	assert.Equal(t, "", seg.MarketingCarrier)
	assert.Equal(t, "SU", seg.OperatingCarrier)
}

func TestConvertChunkEpochTimestamps(t *testing.T) {
	converter := NewFlightOfferConverter()

	chunk := singleSegmentChunk()
	leg := chunk["flight_legs"].([]any)[0].(map[string]any)
	leg["local_departure_date_time"] = 1765974600
	leg["local_arrival_date_time"] = float64(1765988760)

	offers := converter.ConvertChunk(chunk)
	// Epoch departure date reshapes the route key as well.
	require.Len(t, offers["MOWLED20251217"], 1)
	seg := offers["MOWLED20251217"][0].FlightInfo.Forward[0]
	assert.Equal(t, "2025-12-17T12:30:00Z", seg.DepartureDate)
	assert.Equal(t, "2025-12-17T16:26:00Z", seg.ArrivalDate)
}

func TestConvertChunkMissingTimestampsZeroDuration(t *testing.T) {
	converter := NewFlightOfferConverter()

	chunk := singleSegmentChunk()
	leg := chunk["flight_legs"].([]any)[0].(map[string]any)
	delete(leg, "arrival_unix_timestamp")

	offers := converter.ConvertChunk(chunk)
	seg := offers["MOWLED20251217"][0].FlightInfo.Forward[0]
	assert.Equal(t, 0, seg.Duration)
}

func TestConvertChunkFareCodeFallback(t *testing.T) {
	converter := NewFlightOfferConverter()

	chunk := singleSegmentChunk()
	ticket := chunk["tickets"].([]any)[0].(map[string]any)
	minFare := ticket["proposals"].([]any)[0].(map[string]any)["minimum_fare"].(map[string]any)
	delete(minFare, "fare_code")
	minFare["code"] = "FALLBACK"

	offer := converter.ConvertChunk(chunk)["MOWLED20251217"][0]
	assert.Equal(t, "FALLBACK", offer.Fares[0].FareInfo[0].FareCode)
}

func TestConvertChunkTicketKeyFallbacks(t *testing.T) {
	converter := NewFlightOfferConverter()

	chunk := singleSegmentChunk()
	ticket := chunk["tickets"].([]any)[0].(map[string]any)
	delete(ticket, "signature")
	ticket["hashsum"] = "deadbeef"

	offer := converter.ConvertChunk(chunk)["MOWLED20251217"][0]
	assert.Equal(t, "deadbeef", offer.Key)
}
