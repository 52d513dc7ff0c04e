// Package facet derives the structured facets of a voucher (location,
// service category, target audience, keywords, price bracket) from raw text
// using deterministic pattern matching. Extraction never fails: an unmatched
// category degrades to its default label.
package facet

import (
	"regexp"
	"strings"
)

// Default labels for unmatched facets.
const (
	LocationUnknown = "Unknown"
	ServiceGeneral  = "General"
	TargetGeneral   = "General"
)

// Bracket classifies a voucher price.
type Bracket string

// Price brackets, in ascending order of price.
const (
	BracketBudget   Bracket = "Budget"
	BracketMidRange Bracket = "Mid-range"
	BracketPremium  Bracket = "Premium"
	BracketLuxury   Bracket = "Luxury"
	BracketUnknown  Bracket = "Unknown"
)

// Facets is the structured view of one voucher, derived once at ingestion.
type Facets struct {
	Location       string
	ServiceType    string
	TargetAudience string
	Keywords       []string
	PriceBracket   Bracket
}

// locationPattern maps spelling variants (with/without diacritics,
// abbreviations) to a canonical city name. First match wins.
type locationPattern struct {
	re        *regexp.Regexp
	canonical string
}

var locationPatterns = []locationPattern{
	{regexp.MustCompile(`hải phòng|hai phong|haiphong`), "Hải Phòng"},
	{regexp.MustCompile(`hà nội|ha noi|hanoi`), "Hà Nội"},
	{regexp.MustCompile(`hồ chí minh|ho chi minh|hcm|sài gòn|sai gon|saigon`), "Hồ Chí Minh"},
	{regexp.MustCompile(`đà nẵng|da nang|danang`), "Đà Nẵng"},
	{regexp.MustCompile(`cần thơ|can tho`), "Cần Thơ"},
	{regexp.MustCompile(`nha trang`), "Nha Trang"},
	{regexp.MustCompile(`vũng tàu|vung tau`), "Vũng Tàu"},
	{regexp.MustCompile(`huế|\bhue\b`), "Huế"},
	{regexp.MustCompile(`đà lạt|da lat|dalat`), "Đà Lạt"},
}

// categoryPattern maps a keyword list to a category label. Declaration
// order is the precedence order.
type categoryPattern struct {
	label    string
	patterns []*regexp.Regexp
}

var servicePatterns = []categoryPattern{
	{"Restaurant", compileAll(`buffet`, `nhà hàng`, `ăn uống`, `quán ăn`, `quán cafe`, `cafe`, `thực đơn`, `menu`)},
	{"Hotel", compileAll(`khách sạn`, `resort`, `homestay`, `villa`)},
	{"Entertainment", compileAll(`giải trí`, `vui chơi`, `trò chơi`, `game`)},
	{"Shopping", compileAll(`mua sắm`, `siêu thị`, `cửa hàng`, `shop`)},
	{"Beauty", compileAll(`làm đẹp`, `spa`, `massage`, `salon`)},
	{"Travel", compileAll(`du lịch`, `tour`, `vé máy bay`)},
	{"Kids", compileAll(`trẻ em`, `đồ chơi`, `kingdom`, `playground`)},
}

var targetPatterns = []categoryPattern{
	{"Family", compileAll(`gia đình`, `trẻ em`, `family`, `kids`, `children`)},
	{"Couple", compileAll(`cặp đôi`, `couple`, `romantic`, `lãng mạn`)},
	{"Business", compileAll(`công ty`, `doanh nghiệp`, `business`, `meeting`)},
	{"Solo", compileAll(`cá nhân`, `individual`, `solo`)},
	{"Group", compileAll(`nhóm`, `group`, `team`, `tập thể`)},
}

// importantPhrases is the fixed keyword vocabulary. Discovery order is the
// declaration order; duplicates cannot occur.
var importantPhrases = []string{
	"buffet", "ăn uống", "trẻ em", "gia đình", "cao cấp", "sang trọng",
	"giảm giá", "khuyến mãi", "miễn phí", "tặng kèm", "combo",
	"cuối tuần", "lễ tết", "đặc biệt", "premium", "luxury",
}

// Price bracket thresholds in VND.
const (
	budgetMax   = 100_000
	midRangeMax = 500_000
	premiumMax  = 1_000_000
)

// Extract derives all facets from a voucher's name, text, and price.
// Pure function; it never returns an error.
func Extract(name, text string, price int64) Facets {
	lower := strings.ToLower(name + " " + text)
	return Facets{
		Location:       ExtractLocation(lower),
		ServiceType:    extractCategory(lower, servicePatterns, ServiceGeneral),
		TargetAudience: extractCategory(lower, targetPatterns, TargetGeneral),
		Keywords:       ExtractKeywords(lower),
		PriceBracket:   ClassifyPrice(price),
	}
}

// ExtractLocation scans lowercased text against the ordered city patterns.
// Returns the canonical city name, or LocationUnknown.
func ExtractLocation(lower string) string {
	for _, p := range locationPatterns {
		if p.re.MatchString(lower) {
			return p.canonical
		}
	}
	return LocationUnknown
}

// ExtractKeywords returns the important phrases present in lowercased text,
// in vocabulary order.
func ExtractKeywords(lower string) []string {
	var found []string
	for _, phrase := range importantPhrases {
		if strings.Contains(lower, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}

// ClassifyPrice maps a price in minor currency units to a bracket.
// Non-positive prices are Unknown.
func ClassifyPrice(price int64) Bracket {
	switch {
	case price <= 0:
		return BracketUnknown
	case price < budgetMax:
		return BracketBudget
	case price < midRangeMax:
		return BracketMidRange
	case price < premiumMax:
		return BracketPremium
	default:
		return BracketLuxury
	}
}

func extractCategory(lower string, table []categoryPattern, fallback string) string {
	for _, cat := range table {
		for _, re := range cat.patterns {
			if re.MatchString(lower) {
				return cat.label
			}
		}
	}
	return fallback
}

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}
