package facet

import "strings"

// Facet embedding prompts. These templates are a retrieval contract:
// changing them changes every stored facet vector and therefore ranking.

// LocationPrompt builds the synthetic sentence embedded for the location facet.
func LocationPrompt(location string) string {
	return "Địa điểm: " + location + ". Khu vực: " + location
}

// ServicePrompt builds the synthetic sentence embedded for the service facet.
// The keyword list rides along so keyword signal shares the service vector.
func ServicePrompt(serviceType string, keywords []string) string {
	return "Dịch vụ: " + serviceType + ". Keywords: " + strings.Join(keywords, ", ")
}

// TargetPrompt builds the synthetic sentence embedded for the target facet.
func TargetPrompt(audience string) string {
	return "Đối tượng: " + audience + ". Phù hợp cho: " + audience
}

// QueryHintPrefix returns the phrase prepended to a query before embedding
// when one facet dominates the detected intent. Empty for content queries.
func QueryHintPrefix(field string) string {
	switch field {
	case "location":
		return "Địa điểm khu vực: "
	case "service":
		return "Dịch vụ: "
	case "target":
		return "Đối tượng: "
	default:
		return ""
	}
}
