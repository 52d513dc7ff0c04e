package geo

import (
	"sort"
	"strings"
)

// Gazetteer resolves free-text location names against the static place table.
type Gazetteer struct {
	places  map[string]Place  // key -> place
	aliases map[string]string // spelling variant -> key
	order   []string          // alias scan order (longest first, then lexical)
}

// NewGazetteer builds the gazetteer of major Vietnamese cities.
func NewGazetteer() *Gazetteer {
	g := &Gazetteer{
		places:  make(map[string]Place, len(vietnamPlaces)),
		aliases: make(map[string]string),
	}
	for _, p := range vietnamPlaces {
		g.places[p.Key] = p
	}
	for alias, key := range vietnamAliases {
		g.aliases[alias] = key
	}
	g.order = make([]string, 0, len(g.aliases))
	for alias := range g.aliases {
		g.order = append(g.order, alias)
	}
	// Longer aliases first so "sai gon" wins over "gon"-style substrings.
	sort.Slice(g.order, func(i, j int) bool {
		if len(g.order[i]) != len(g.order[j]) {
			return len(g.order[i]) > len(g.order[j])
		}
		return g.order[i] < g.order[j]
	})
	return g
}

// Resolve normalizes a free-text location name and returns its place.
func (g *Gazetteer) Resolve(name string) (Place, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return Place{}, false
	}
	if key, ok := g.aliases[lower]; ok {
		return g.places[key], true
	}
	// Partial match in either direction handles truncated captures like
	// "hà" from "tại hà nội" and over-captures like "hà nội nhé".
	for _, alias := range g.order {
		if strings.Contains(lower, alias) || strings.Contains(alias, lower) {
			return g.places[g.aliases[alias]], true
		}
	}
	return Place{}, false
}

// FindInText returns the first place whose alias occurs as a substring of
// the lowercased text, scanning longer aliases first.
func (g *Gazetteer) FindInText(lower string) (Place, bool) {
	for _, alias := range g.order {
		if strings.Contains(lower, alias) {
			return g.places[g.aliases[alias]], true
		}
	}
	return Place{}, false
}

// ByName returns the place with the given canonical name.
func (g *Gazetteer) ByName(name string) (Place, bool) {
	for _, p := range g.places {
		if p.Name == name {
			return p, true
		}
	}
	return Place{}, false
}

// Places returns all gazetteer entries in key order.
func (g *Gazetteer) Places() []Place {
	keys := make([]string, 0, len(g.places))
	for k := range g.places {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Place, len(keys))
	for i, k := range keys {
		out[i] = g.places[k]
	}
	return out
}

// BuildContext assembles the geographic context for a resolved location
// name: the primary place, places within NearbyThresholdKM sorted by
// distance, and their linear relevance decay. Returns false when the name
// does not resolve; not an error, the caller proceeds without geo boosts.
func (g *Gazetteer) BuildContext(name string) (Context, bool) {
	primary, ok := g.Resolve(name)
	if !ok {
		return Context{}, false
	}

	var nearby []NearbyPlace
	relevance := make(map[string]float64)
	for _, p := range g.places {
		if p.Key == primary.Key {
			continue
		}
		d := Distance(primary, p)
		if d <= NearbyThresholdKM {
			rel := 1 - d/NearbyThresholdKM
			if rel < 0 {
				rel = 0
			}
			nearby = append(nearby, NearbyPlace{Place: p, DistanceKM: d, Relevance: rel})
			relevance[p.Name] = rel
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKM < nearby[j].DistanceKM })

	return Context{
		Primary:       primary,
		Nearby:        nearby,
		Relevance:     relevance,
		CulturalTags:  primary.CulturalTags,
		EconomicLevel: primary.EconomicLevel,
	}, true
}

// vietnamPlaces is the static place table. Coordinates are (lon, lat).
var vietnamPlaces = []Place{
	{
		Name: "Hải Phòng", Key: "hai_phong", Lon: 106.6881, Lat: 20.8449,
		Region:        "Miền Bắc",
		CulturalTags:  []string{"cảng biển", "công nghiệp", "hải sản", "giao thương"},
		EconomicLevel: "medium_high",
	},
	{
		Name: "Hà Nội", Key: "ha_noi", Lon: 105.8342, Lat: 21.0285,
		Region:        "Miền Bắc",
		CulturalTags:  []string{"thủ đô", "lịch sử", "văn hóa", "chính trị", "giáo dục"},
		EconomicLevel: "high",
	},
	{
		Name: "Hồ Chí Minh", Key: "ho_chi_minh", Lon: 106.6297, Lat: 10.8231,
		Region:        "Miền Nam",
		CulturalTags:  []string{"kinh tế", "thương mại", "hiện đại", "năng động", "đa văn hóa"},
		EconomicLevel: "very_high",
	},
	{
		Name: "Đà Nẵng", Key: "da_nang", Lon: 108.2208, Lat: 16.0471,
		Region:        "Miền Trung",
		CulturalTags:  []string{"du lịch", "biển", "resort", "nghỉ dưỡng"},
		EconomicLevel: "high",
	},
	{
		Name: "Cần Thơ", Key: "can_tho", Lon: 105.7851, Lat: 10.0452,
		Region:        "Miền Nam",
		CulturalTags:  []string{"miệt vườn", "sông nước", "đặc sản", "miền tây"},
		EconomicLevel: "medium",
	},
	{
		Name: "Nha Trang", Key: "nha_trang", Lon: 109.1967, Lat: 12.2585,
		Region:        "Miền Trung",
		CulturalTags:  []string{"biển đẹp", "du lịch", "nghỉ dưỡng", "hải sản"},
		EconomicLevel: "medium_high",
	},
	{
		Name: "Vũng Tàu", Key: "vung_tau", Lon: 107.0843, Lat: 10.3460,
		Region:        "Miền Nam",
		CulturalTags:  []string{"biển", "dầu khí", "du lịch"},
		EconomicLevel: "medium_high",
	},
	{
		Name: "Huế", Key: "hue", Lon: 107.5909, Lat: 16.4637,
		Region:        "Miền Trung",
		CulturalTags:  []string{"cố đô", "di sản", "ẩm thực"},
		EconomicLevel: "medium",
	},
	{
		Name: "Đà Lạt", Key: "da_lat", Lon: 108.4419, Lat: 11.9404,
		Region:        "Miền Nam",
		CulturalTags:  []string{"cao nguyên", "nghỉ dưỡng", "hoa"},
		EconomicLevel: "medium",
	},
}

// vietnamAliases maps lowercased spelling variants to place keys.
var vietnamAliases = map[string]string{
	"hải phòng": "hai_phong", "hai phong": "hai_phong", "haiphong": "hai_phong",
	"hà nội": "ha_noi", "ha noi": "ha_noi", "hanoi": "ha_noi",
	"hồ chí minh": "ho_chi_minh", "ho chi minh": "ho_chi_minh",
	"hcm": "ho_chi_minh", "sài gòn": "ho_chi_minh", "sai gon": "ho_chi_minh",
	"saigon": "ho_chi_minh",
	"đà nẵng": "da_nang", "da nang": "da_nang", "danang": "da_nang",
	"cần thơ": "can_tho", "can tho": "can_tho",
	"nha trang": "nha_trang",
	"vũng tàu": "vung_tau", "vung tau": "vung_tau",
	"huế": "hue", "hue": "hue",
	"đà lạt": "da_lat", "da lat": "da_lat", "dalat": "da_lat",
}
