// Package rules implements the ordered validator rule chain for
// prediction-market events plus the immutable registries (chokepoints,
// logistics keyword categories, off-topic blocklist) the geographic
// and semantic rules consult. Registries are compiled-in, read-only
// tables, shipped as immutable static tables, with accessors that copy
// rather than expose the backing slices.
package rules

import (
	"math"
	"sort"
)

// Chokepoint is a named maritime strait/canal/port known to the system.
type Chokepoint struct {
	Name    string
	Lat     float64
	Lon     float64
	Aliases []string
}

// chokepointRegistry is the compiled-in table of known chokepoints.
var chokepointRegistry = []Chokepoint{
	{Name: "Suez Canal", Lat: 30.5852, Lon: 32.2654, Aliases: []string{"suez", "suez canal"}},
	{Name: "Strait of Malacca", Lat: 2.5, Lon: 101.5, Aliases: []string{"malacca", "strait of malacca"}},
	{Name: "Strait of Hormuz", Lat: 26.5, Lon: 56.3, Aliases: []string{"hormuz", "strait of hormuz"}},
	{Name: "Red Sea", Lat: 15.5, Lon: 42.5, Aliases: []string{"red sea", "bab el-mandeb", "bab al-mandeb"}},
	{Name: "Panama Canal", Lat: 9.08, Lon: -79.68, Aliases: []string{"panama", "panama canal"}},
	{Name: "Bosphorus Strait", Lat: 41.12, Lon: 29.07, Aliases: []string{"bosphorus", "bosporus"}},
	{Name: "Strait of Gibraltar", Lat: 35.95, Lon: -5.6, Aliases: []string{"gibraltar", "strait of gibraltar"}},
	{Name: "Cape of Good Hope", Lat: -34.35, Lon: 18.47, Aliases: []string{"cape of good hope"}},
	{Name: "Taiwan Strait", Lat: 24.5, Lon: 119.5, Aliases: []string{"taiwan strait"}},
	{Name: "Danish Straits", Lat: 55.7, Lon: 12.6, Aliases: []string{"danish straits", "oresund"}},
}

// Chokepoints returns a defensive copy of the chokepoint registry.
func Chokepoints() []Chokepoint {
	out := make([]Chokepoint, len(chokepointRegistry))
	copy(out, chokepointRegistry)
	return out
}

// HaversineKM computes great-circle distance between two lat/lon points
// in kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// LogisticsKeywordCategories maps a category name to its member
// keywords, used by both market-source keyword tagging and the
// enricher's relevance scoring. Sorted within each category for
// deterministic iteration.
var LogisticsKeywordCategories = map[string][]string{
	"conflict":       {"attack", "blockade", "conflict", "houthi", "militant", "missile", "strike", "war"},
	"sanctions":      {"embargo", "sanction", "sanctions", "tariff"},
	"labor":          {"lockdown", "picket", "strike", "union", "walkout"},
	"infrastructure": {"canal", "chokepoint", "congestion", "port", "shipping", "terminal"},
	"climate":        {"cyclone", "drought", "flood", "hurricane", "storm", "typhoon"},
	"regulatory":     {"ban", "regulation", "restriction", "rule"},
	"routes":         {"detour", "reroute", "route", "shipping lane", "waterway"},
	"geopolitical":   {"geopolitical", "sovereignty", "territorial"},
}

// LogisticsKeywordCategoriesSorted returns the category names in
// deterministic (alphabetical) order.
func LogisticsKeywordCategoriesSorted() []string {
	names := make([]string, 0, len(LogisticsKeywordCategories))
	for k := range LogisticsKeywordCategories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// OffTopicBlocklist is the sports/entertainment phrase list the semantic
// rule rejects on first sight.
var OffTopicBlocklist = []string{
	"super bowl", "world cup", "grammy", "oscar", "box office",
	"celebrity", "reality tv", "playoff", "championship game",
}
