package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkazmin/flysearch-api/internal/domain"
)

// FlightOfferConverter reshapes raw provider chunks into grouped domain
// offers. It is stateless and safe for concurrent use.
//
// Provider payloads are treated as hostile input: every lookup is
// defaultable. Tickets that cannot produce at least one segment and one
// fare are dropped silently; an unresolvable ticket is an absent
// ticket, not a malformed chunk.
type FlightOfferConverter struct{}

// NewFlightOfferConverter returns a converter ready for use.
func NewFlightOfferConverter() *FlightOfferConverter {
	return &FlightOfferConverter{}
}

// ConvertChunk converts one provider chunk into offers grouped by route
// key. A chunk without a recognizable ticket list yields an empty map.
func (c *FlightOfferConverter) ConvertChunk(chunk domain.Chunk) map[string][]domain.FlightOffer {
	offers := make(map[string][]domain.FlightOffer)
	if len(chunk) == 0 {
		return offers
	}
	if _, ok := chunk["tickets"]; !ok {
		return offers
	}

	agents := extractAgents(chunk)
	legs := asSlice(chunk["flight_legs"])

	for _, raw := range asSlice(chunk["tickets"]) {
		ticket := asMap(raw)
		offer, ok := c.buildOffer(ticket, agents, legs)
		if !ok {
			continue
		}
		key := buildRouteKey(offer)
		offers[key] = append(offers[key], offer)
	}
	return offers
}

func (c *FlightOfferConverter) buildOffer(
	ticket map[string]any,
	agents map[string]string,
	legs []any,
) (domain.FlightOffer, bool) {
	proposals := asSlice(ticket["proposals"])
	if len(proposals) == 0 {
		return domain.FlightOffer{}, false
	}

	segments := buildSegments(ticket, proposals, legs)
	if len(segments) == 0 {
		return domain.FlightOffer{}, false
	}

	fares := buildFares(proposals, agents)
	if len(fares) == 0 {
		return domain.FlightOffer{}, false
	}

	prices := collectPrices(proposals, agents)
	minProvider, minPrice := extractMinPrice(prices)

	duration := 0
	for _, seg := range segments {
		duration += seg.Duration
	}

	return domain.FlightOffer{
		IsVtrip:     isVtrip(segments),
		Key:         ticketKey(ticket),
		FlightInfo:  domain.FlightInfo{Forward: segments},
		Fares:       fares,
		Prices:      prices,
		Duration:    duration,
		MinPrice:    minPrice,
		MinProvider: minProvider,
	}, true
}

// buildSegments resolves each flight-leg reference of the ticket against
// the chunk's leg list. Out-of-range indices are skipped; carrier and
// flight-number fields come from the first proposal's per-index flight
// terms and default to empty strings when absent.
func buildSegments(ticket map[string]any, proposals []any, legs []any) []domain.FlightSegment {
	var segments []domain.FlightSegment
	terms := asMap(asMap(proposals[0])["flight_terms"])

	for _, rawSeg := range asSlice(ticket["segments"]) {
		for _, rawIdx := range asSlice(asMap(rawSeg)["flights"]) {
			idx, ok := asIndex(rawIdx)
			if !ok {
				continue
			}
			leg := safeIndex(legs, idx)
			if leg == nil {
				continue
			}
			term := asMap(terms[strconv.Itoa(idx)])
			marketing := asMap(term["marketing_carrier_designator"])
			operating := asMap(leg["operating_carrier_designator"])
			segments = append(segments, domain.FlightSegment{
				Departure:        asString(leg["origin"]),
				Arrival:          asString(leg["destination"]),
				DepartureDate:    formatDate(leg["local_departure_date_time"]),
				ArrivalDate:      formatDate(leg["local_arrival_date_time"]),
				Duration:         computeDuration(leg["departure_unix_timestamp"], leg["arrival_unix_timestamp"]),
				Number:           asString(marketing["number"]),
				MarketingCarrier: asString(marketing["carrier"]),
				OperatingCarrier: asString(operating["carrier"]),
			})
		}
	}
	return segments
}

// buildFares produces one Fare per proposal, priced under the label
// resolved through the chunk's agent table.
func buildFares(proposals []any, agents map[string]string) []domain.Fare {
	var fares []domain.Fare
	for _, raw := range asSlice(proposals) {
		proposal := asMap(raw)
		minFare := asMap(proposal["minimum_fare"])

		fareCode := asString(minFare["fare_code"])
		if fareCode == "" {
			fareCode = asString(minFare["code"])
		}

		info := domain.FareInfo{
			FareCode:  fareCode,
			TripClass: resolveTripClass(proposal),
			Baggage:   buildBaggage(minFare),
			Rules:     buildRules(minFare),
		}

		agentKey := resolveAgentKey(proposal, agents)
		fares = append(fares, domain.Fare{
			FareKey:  asString(minFare["fare_key"]),
			FareInfo: []domain.FareInfo{info},
			Prices:   map[string]int{agentKey: proposalPrice(proposal)},
		})
	}
	return fares
}

func collectPrices(proposals []any, agents map[string]string) map[string]int {
	prices := make(map[string]int)
	for _, raw := range proposals {
		proposal := asMap(raw)
		prices[resolveAgentKey(proposal, agents)] = proposalPrice(proposal)
	}
	return prices
}

// extractMinPrice returns the argmin over the price map. Ties resolve
// to the lexicographically smallest provider so results are stable.
func extractMinPrice(prices map[string]int) (string, int) {
	if len(prices) == 0 {
		return "", 0
	}
	providers := make([]string, 0, len(prices))
	for p := range prices {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	minProvider := providers[0]
	for _, p := range providers[1:] {
		if prices[p] < prices[minProvider] {
			minProvider = p
		}
	}
	return minProvider, prices[minProvider]
}

func proposalPrice(proposal map[string]any) int {
	return asInt(asMap(proposal["price"])["value"])
}

func resolveAgentKey(proposal map[string]any, agents map[string]string) string {
	id := rawString(proposal["agent_id"])
	if label, ok := agents[id]; ok {
		return label
	}
	return id
}

func ticketKey(ticket map[string]any) string {
	for _, field := range []string{"signature", "hashsum", "id"} {
		if v := asString(ticket[field]); v != "" {
			return v
		}
	}
	return ""
}

// isVtrip checks each segment's own marketing vs operating carrier
// pair; carriers are never compared across segments.
func isVtrip(segments []domain.FlightSegment) bool {
	if len(segments) <= 1 {
		return false
	}
	for _, seg := range segments {
		if seg.MarketingCarrier != seg.OperatingCarrier {
			return true
		}
	}
	return false
}

// resolveTripClass reads the trip class of the lowest-indexed flight
// term of the proposal.
func resolveTripClass(proposal map[string]any) string {
	terms := asMap(proposal["flight_terms"])
	if len(terms) == 0 {
		return ""
	}
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return asString(asMap(terms[keys[0]])["trip_class"])
}

func buildBaggage(minFare map[string]any) domain.Baggage {
	handbags := asMap(minFare["handbags"])
	baggage := asMap(minFare["baggage"])
	return domain.Baggage{
		Handbags: domain.BaggageInfo{
			Count:  asInt(handbags["count"]),
			Weight: intOrNil(handbags["weight"]),
		},
		Baggage: domain.BaggageInfo{
			Count:  asInt(baggage["count"]),
			Weight: intOrNil(baggage["weight"]),
		},
	}
}

func buildRules(minFare map[string]any) domain.Rules {
	return domain.Rules{
		ReturnBeforeFlight: buildRule(minFare["return_before_flight"]),
		ChangeBeforeFlight: buildRule(minFare["change_before_flight"]),
	}
}

func buildRule(v any) domain.RuleInfo {
	rule := asMap(v)
	if len(rule) == 0 {
		return domain.RuleInfo{Available: false, IsFromConfig: false}
	}
	return domain.RuleInfo{
		Available:    asBool(rule["available"]),
		IsFromConfig: asBool(rule["is_from_config"]),
	}
}

// computeDuration converts the leg's unix timestamp pair into whole
// minutes, truncated. Zero when either timestamp is absent or zero.
func computeDuration(departure, arrival any) int {
	dep, depOK := asInt64(departure)
	arr, arrOK := asInt64(arrival)
	if !depOK || !arrOK || dep == 0 || arr == 0 {
		return 0
	}
	return int((arr - dep) / 60)
}

// formatDate normalizes a provider timestamp: textual values get their
// separating space replaced with "T", epoch values become ISO-8601 UTC.
func formatDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(t, " ", "T")
	default:
		if ts, ok := asInt64(v); ok {
			if ts == 0 {
				return ""
			}
			return time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		return ""
	}
}

// buildRouteKey derives the grouping key from the FIRST segment only:
// departure code + arrival code + departure date with dashes stripped.
func buildRouteKey(offer domain.FlightOffer) string {
	if len(offer.FlightInfo.Forward) == 0 {
		return ""
	}
	first := offer.FlightInfo.Forward[0]
	date := first.DepartureDate
	if len(date) > 10 {
		date = date[:10]
	}
	date = strings.ReplaceAll(date, "-", "")
	return first.Departure + first.Arrival + date
}

// extractAgents builds the agent id -> human label table. Agents whose
// label cannot be resolved fall back to their raw id.
func extractAgents(chunk domain.Chunk) map[string]string {
	agents := make(map[string]string)
	for id, data := range asMap(chunk["agents"]) {
		label := asString(asMap(asMap(asMap(data)["label"])["ru"])["default"])
		if label == "" {
			label = id
		}
		agents[id] = label
	}
	return agents
}

// Loose-typing helpers. Provider chunks arrive as decoded JSON, so
// numbers are usually float64 but fixtures and upstream callers may
// hand over native ints or numeric strings.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// rawString renders scalar identifiers (agent ids come as numbers or
// strings) into their canonical string form.
func rawString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		if n, ok := asInt64(v); ok {
			return strconv.FormatInt(n, 10)
		}
		return ""
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	n, _ := asInt64(v)
	return int(n)
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func intOrNil(v any) *int {
	n, ok := asInt64(v)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

func asIndex(v any) (int, bool) {
	n, ok := asInt64(v)
	if !ok || n < 0 {
		return 0, false
	}
	return int(n), true
}

func safeIndex(items []any, idx int) map[string]any {
	if idx < 0 || idx >= len(items) {
		return nil
	}
	return asMap(items[idx])
}
