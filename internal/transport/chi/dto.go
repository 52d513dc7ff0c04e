package chi

import (
	"time"

	"github.com/kailas-cloud/vouchex/internal/domain/facet"
	"github.com/kailas-cloud/vouchex/internal/domain/geo"
	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
	answeruc "github.com/kailas-cloud/vouchex/internal/usecase/answer"
	searchuc "github.com/kailas-cloud/vouchex/internal/usecase/search"
)

// errorCode is the machine-readable error discriminator in error responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeVoucherNotFound   errorCode = "voucher_not_found"
	codeVectorDimMismatch errorCode = "vector_dim_mismatch"
	codeEmbeddingProvider errorCode = "embedding_provider_error"
	codeStoreError        errorCode = "store_error"
	codeAnswerDisabled    errorCode = "answer_disabled"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type filtersDTO struct {
	Location     string `json:"location,omitempty"`
	ServiceType  string `json:"service_type,omitempty"`
	PriceBracket string `json:"price_bracket,omitempty"`
}

func (f *filtersDTO) toDomain() domsearch.Filters {
	if f == nil {
		return domsearch.Filters{}
	}
	return domsearch.Filters{
		Location:     f.Location,
		ServiceType:  f.ServiceType,
		PriceBracket: facet.Bracket(f.PriceBracket),
	}
}

type searchRequest struct {
	Query   string      `json:"query"`
	TopK    int         `json:"top_k,omitempty"`
	Filters *filtersDTO `json:"filters,omitempty"`
}

type searchResultItem struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Excerpt      string             `json:"excerpt,omitempty"`
	Score        float64            `json:"score"`
	FacetScores  map[string]float64 `json:"facet_scores,omitempty"`
	Lexical      float64            `json:"lexical_score"`
	Location     string             `json:"location,omitempty"`
	Region       string             `json:"region,omitempty"`
	ServiceType  string             `json:"service_type,omitempty"`
	PriceBracket string             `json:"price_bracket,omitempty"`
	GeoFactor    float64            `json:"geo_factor"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
	Total   int                `json:"total"`
}

func searchResultToDTO(r domsearch.Result) searchResultItem {
	item := searchResultItem{
		ID:           r.ID,
		Name:         r.Name,
		Excerpt:      r.Excerpt,
		Score:        r.Score,
		Lexical:      r.Lexical,
		Location:     r.Location,
		Region:       r.Region,
		ServiceType:  r.ServiceType,
		PriceBracket: r.PriceBracket,
		GeoFactor:    r.GeoFactor,
	}
	if len(r.FacetScores) > 0 {
		item.FacetScores = make(map[string]float64, len(r.FacetScores))
		for f, s := range r.FacetScores {
			item.FacetScores[string(f)] = s
		}
	}
	return item
}

type answerResponse struct {
	Answer string             `json:"answer"`
	Hits   []searchResultItem `json:"hits"`
}

func answerToDTO(a answeruc.Answer) answerResponse {
	resp := answerResponse{Answer: a.Text, Hits: make([]searchResultItem, len(a.Hits))}
	for i, h := range a.Hits {
		resp.Hits[i] = searchResultToDTO(h)
	}
	return resp
}

type voucherRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	UsageInstructions string `json:"usage_instructions,omitempty"`
	TermsOfUse        string `json:"terms_of_use,omitempty"`
	Tags              string `json:"tags,omitempty"`
	Location          string `json:"location,omitempty"`
	Price             int64  `json:"price,omitempty"`
	Unit              string `json:"unit,omitempty"`
	Merchant          string `json:"merchant,omitempty"`
}

func (v voucherRequest) toRecord() domvoucher.Record {
	return domvoucher.Record{
		Name:              v.Name,
		Description:       v.Description,
		UsageInstructions: v.UsageInstructions,
		TermsOfUse:        v.TermsOfUse,
		Tags:              v.Tags,
		Location:          v.Location,
		Price:             v.Price,
		Unit:              v.Unit,
		Merchant:          v.Merchant,
	}
}

type facetsDTO struct {
	Location       string   `json:"location,omitempty"`
	ServiceType    string   `json:"service_type,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	PriceBracket   string   `json:"price_bracket"`
}

type voucherResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Merchant  string    `json:"merchant,omitempty"`
	Price     int64     `json:"price,omitempty"`
	Region    string    `json:"region,omitempty"`
	Facets    facetsDTO `json:"facets"`
	CreatedAt time.Time `json:"created_at"`
}

func voucherToDTO(v domvoucher.Voucher) voucherResponse {
	return voucherResponse{
		ID:       v.ID,
		Name:     v.Name,
		Merchant: v.Merchant,
		Price:    v.Price,
		Region:   v.Region,
		Facets: facetsDTO{
			Location:       v.Facets.Location,
			ServiceType:    v.Facets.ServiceType,
			TargetAudience: v.Facets.TargetAudience,
			Keywords:       v.Facets.Keywords,
			PriceBracket:   string(v.Facets.PriceBracket),
		},
		CreatedAt: v.CreatedAt,
	}
}

type indexResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

type batchRequest struct {
	Vouchers []voucherRequest `json:"vouchers"`
}

type batchResultItem struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status"`
	Error  *errorResponse `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchResultItem `json:"results"`
	OK      int               `json:"ok"`
	Failed  int               `json:"failed"`
}

type weightsDTO struct {
	Content  float64 `json:"content"`
	Location float64 `json:"location"`
	Service  float64 `json:"service"`
	Target   float64 `json:"target"`
	Combined float64 `json:"combined"`
}

type nearbyPlaceDTO struct {
	Name       string  `json:"name"`
	DistanceKM float64 `json:"distance_km"`
	Relevance  float64 `json:"relevance"`
}

type geoContextDTO struct {
	Primary string           `json:"primary"`
	Region  string           `json:"region"`
	Nearby  []nearbyPlaceDTO `json:"nearby,omitempty"`
}

type analyzeResponse struct {
	Query            string         `json:"query"`
	Intent           string         `json:"intent"`
	IntentConfidence float64        `json:"intent_confidence"`
	Location         string         `json:"location,omitempty"`
	ServiceSignals   []string       `json:"service_signals,omitempty"`
	TargetSignal     string         `json:"target_signal,omitempty"`
	TimeSignals      []string       `json:"time_signals,omitempty"`
	Keywords         []string       `json:"keywords,omitempty"`
	Confidence       float64        `json:"confidence"`
	Weights          weightsDTO     `json:"weights"`
	DominantField    string         `json:"dominant_field"`
	HintPrefix       string         `json:"hint_prefix,omitempty"`
	Geo              *geoContextDTO `json:"geo,omitempty"`
}

func explanationToDTO(e searchuc.Explanation) analyzeResponse {
	resp := analyzeResponse{
		Query:            e.Components.Query,
		Intent:           string(e.Components.Intent),
		IntentConfidence: e.Components.IntentConfidence,
		Location:         e.Components.Location,
		ServiceSignals:   e.Components.ServiceSignals,
		TargetSignal:     e.Components.TargetSignal,
		TimeSignals:      e.Components.TimeSignals,
		Keywords:         e.Components.Keywords,
		Confidence:       e.Components.Confidence,
		Weights: weightsDTO{
			Content:  e.Weights.Content,
			Location: e.Weights.Location,
			Service:  e.Weights.Service,
			Target:   e.Weights.Target,
			Combined: e.Weights.Combined,
		},
		DominantField: string(e.DominantField),
		HintPrefix:    e.HintPrefix,
	}
	if e.GeoContext != nil {
		resp.Geo = geoContextToDTO(*e.GeoContext)
	}
	return resp
}

func geoContextToDTO(g geo.Context) *geoContextDTO {
	dto := &geoContextDTO{Primary: g.Primary.Name, Region: g.Primary.Region}
	for _, n := range g.Nearby {
		dto.Nearby = append(dto.Nearby, nearbyPlaceDTO{
			Name:       n.Place.Name,
			DistanceKM: n.DistanceKM,
			Relevance:  n.Relevance,
		})
	}
	return dto
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
