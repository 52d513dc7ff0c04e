package voucher

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/vouchex/internal/domain/facet"
	domvoucher "github.com/kailas-cloud/vouchex/internal/domain/voucher"
)

// Hash field names. The vec_* fields hold little-endian float32 blobs and
// back the FT vector schema.
const (
	fieldName      = "name"
	fieldContent   = "content"
	fieldMerchant  = "merchant"
	fieldPrice     = "price"
	FieldCreatedAt = "created_at"

	fieldLocation = "location"
	fieldRegion   = "region"
	fieldService  = "service_type"
	fieldTarget   = "target_audience"
	fieldBracket  = "price_bracket"
	fieldKeywords = "keywords"

	FieldVecContent  = "vec_content"
	FieldVecLocation = "vec_location"
	FieldVecService  = "vec_service"
	FieldVecTarget   = "vec_target"
	FieldVecCombined = "vec_combined"
)

// VectorFieldFor maps an embedding field to its hash field name.
func VectorFieldFor(f domvoucher.Field) string {
	switch f {
	case domvoucher.FieldContent:
		return FieldVecContent
	case domvoucher.FieldLocation:
		return FieldVecLocation
	case domvoucher.FieldService:
		return FieldVecService
	case domvoucher.FieldTarget:
		return FieldVecTarget
	case domvoucher.FieldCombined:
		return FieldVecCombined
	default:
		return ""
	}
}

// buildHashFields converts a domain Voucher into a flat map for HSET.
func buildHashFields(v *domvoucher.Voucher) map[string]string {
	m := map[string]string{
		fieldName:      v.Name,
		fieldContent:   v.RawText,
		fieldMerchant:  v.Merchant,
		fieldPrice:     strconv.FormatInt(v.Price, 10),
		FieldCreatedAt: strconv.FormatInt(v.CreatedAt.Unix(), 10),
		fieldLocation:  v.Facets.Location,
		fieldRegion:    v.Region,
		fieldService:   v.Facets.ServiceType,
		fieldTarget:    v.Facets.TargetAudience,
		fieldBracket:   string(v.Facets.PriceBracket),
		fieldKeywords:  strings.Join(v.Facets.Keywords, ","),
	}
	if len(v.Vectors.Content) > 0 {
		m[FieldVecContent] = vectorToBytes(v.Vectors.Content)
	}
	if len(v.Vectors.Location) > 0 {
		m[FieldVecLocation] = vectorToBytes(v.Vectors.Location)
	}
	if len(v.Vectors.Service) > 0 {
		m[FieldVecService] = vectorToBytes(v.Vectors.Service)
	}
	if len(v.Vectors.Target) > 0 {
		m[FieldVecTarget] = vectorToBytes(v.Vectors.Target)
	}
	if len(v.Vectors.Combined) > 0 {
		m[FieldVecCombined] = vectorToBytes(v.Vectors.Combined)
	}
	return m
}

// parseHashFields converts a flat hash map back into a domain Voucher.
func parseHashFields(id string, m map[string]string) domvoucher.Voucher {
	price, _ := strconv.ParseInt(m[fieldPrice], 10, 64)
	createdUnix, _ := strconv.ParseInt(m[FieldCreatedAt], 10, 64)

	var keywords []string
	if m[fieldKeywords] != "" {
		keywords = strings.Split(m[fieldKeywords], ",")
	}

	return domvoucher.Voucher{
		ID:        id,
		Name:      m[fieldName],
		RawText:   m[fieldContent],
		Merchant:  m[fieldMerchant],
		Price:     price,
		CreatedAt: time.Unix(createdUnix, 0).UTC(),
		Facets: facet.Facets{
			Location:       m[fieldLocation],
			ServiceType:    m[fieldService],
			TargetAudience: m[fieldTarget],
			Keywords:       keywords,
			PriceBracket:   facet.Bracket(m[fieldBracket]),
		},
		Region: m[fieldRegion],
		Vectors: domvoucher.FieldVectors{
			Content:  bytesToVector(m[FieldVecContent]),
			Location: bytesToVector(m[FieldVecLocation]),
			Service:  bytesToVector(m[FieldVecService]),
			Target:   bytesToVector(m[FieldVecTarget]),
			Combined: bytesToVector(m[FieldVecCombined]),
		},
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
