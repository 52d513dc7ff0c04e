package query

import "regexp"

// Intent is the dominant facet a query emphasizes.
type Intent string

// Detected intents; IntentGeneral is the no-signal fallback.
const (
	IntentRestaurant    Intent = "restaurant"
	IntentHotel         Intent = "hotel"
	IntentEntertainment Intent = "entertainment"
	IntentShopping      Intent = "shopping"
	IntentBeauty        Intent = "beauty"
	IntentTravel        Intent = "travel"
	IntentKids          Intent = "kids"
	IntentGeneral       Intent = "general"
)

// intentEntry pairs an intent with its detection patterns. Slice order is
// the tie-break order: on equal scores the earlier intent wins.
type intentEntry struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// Patterns cover both diacritic and diacritic-free spellings.
var intentTable = []intentEntry{
	{IntentRestaurant, compile(
		`quán ăn|quan an|nhà hàng|nha hang|ăn uống|an uong|buffet|thức ăn|thuc an|món ăn|mon an|bữa ăn|bua an`,
		`restaurant|food|dining|meal|cafe|quán cafe|quan cafe`,
		`đói|\bdoi\b|thèm|muốn ăn|muon an`,
	)},
	{IntentHotel, compile(
		`khách sạn|khach san|resort|homestay|villa|nơi ở|noi o|nghỉ dưỡng|nghi duong`,
		`hotel|accommodation|lodge`,
		`ngủ lại|nghỉ qua đêm|ở lại|o lai`,
	)},
	{IntentEntertainment, compile(
		`giải trí|giai tri|vui chơi|vui choi|trò chơi|tro choi|game|sự kiện|su kien|show`,
		`entertainment|\bfun\b|\bplay\b|activity`,
		`thư giãn|thu gian`,
	)},
	{IntentShopping, compile(
		`mua sắm|mua sam|cửa hàng|cua hang|siêu thị|sieu thi|\bmall\b|shopping`,
		`\bshop\b|\bstore\b|\bbuy\b|purchase`,
		`tìm mua|tim mua`,
	)},
	{IntentBeauty, compile(
		`làm đẹp|lam dep|\bspa\b|massage|salon|\bnail\b|tóc|\btoc\b`,
		`beauty|wellness`,
		`chăm sóc|cham soc`,
	)},
	{IntentTravel, compile(
		`du lịch|du lich|\btour\b|vé máy bay|ve may bay`,
		`travel|sightseeing`,
	)},
	{IntentKids, compile(
		`trẻ em|tre em|trẻ con|tre con|em bé|em be|children|kids`,
		`đồ chơi|do choi|playground|khu vui chơi|khu vui choi`,
	)},
}

// Soft service requirement tags (kids-friendly, romantic, luxury, ...).
var serviceSignalTable = []struct {
	tag      string
	patterns []*regexp.Regexp
}{
	{"kids_friendly", compile(`trẻ em|trẻ con|\bbé\b|children|kids`, `khu vui chơi|playground`)},
	{"romantic", compile(`lãng mạn|romantic|cặp đôi|couple`, `hẹn hò|\bdate\b`)},
	{"group_dining", compile(`nhóm|\bgroup\b|\bteam\b|công ty`, `tiệc|party|tập thể`)},
	{"luxury", compile(`sang trọng|luxury|cao cấp|premium`, `\bvip\b|đẳng cấp`)},
	{"budget", compile(`\brẻ\b|cheap|budget|giá thấp`, `tiết kiệm|affordable|sinh viên`)},
	{"outdoor", compile(`ngoài trời|outdoor|sân vườn`)},
	{"indoor", compile(`trong nhà|indoor|máy lạnh|điều hòa`)},
}

// Target audience tags; first best score wins.
var targetSignalTable = []struct {
	tag      string
	patterns []*regexp.Regexp
}{
	{"family", compile(`gia đình|family|cả nhà`, `bố mẹ|parents`)},
	{"couple", compile(`cặp đôi|couple|hai người`, `chồng|vợ`)},
	{"friends", compile(`bạn bè|friends|hội bạn`)},
	{"business", compile(`công việc|business|meeting`, `họp|khách hàng|đối tác`)},
	{"solo", compile(`một mình|solo|cá nhân`)},
}

// Time-of-day / calendar tags.
var timeSignalTable = []struct {
	tag      string
	patterns []*regexp.Regexp
}{
	{"weekend", compile(`cuối tuần|weekend|thứ 7|chủ nhật|saturday|sunday`)},
	{"weekday", compile(`trong tuần|weekday|ngày thường`)},
	{"evening", compile(`buổi tối|\btối\b|evening|dinner|ăn tối`)},
	{"lunch", compile(`buổi trưa|\btrưa\b|lunch|ăn trưa`)},
	{"morning", compile(`buổi sáng|\bsáng\b|morning|breakfast|ăn sáng`)},
	{"holiday", compile(`nghỉ lễ|\blễ\b|holiday|festival|\btết\b`)},
}

// stopWords are dropped from the free keyword list.
var stopWords = map[string]struct{}{
	"tôi": {}, "tại": {}, "ở": {}, "trong": {}, "có": {}, "là": {},
	"và": {}, "với": {}, "cho": {}, "của": {}, "một": {}, "các": {},
	"này": {}, "đó": {}, "được": {}, "sẽ": {}, "đã": {}, "từ": {},
	"về": {}, "như": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {},
}

// locationPrepositions capture a place name after tại/ở/trong/gần.
var locationPrepositions = []*regexp.Regexp{
	regexp.MustCompile(`tại\s+(\p{L}+(?:\s+\p{L}+)?)`),
	regexp.MustCompile(`ở\s+(\p{L}+(?:\s+\p{L}+)?)`),
	regexp.MustCompile(`trong\s+(\p{L}+(?:\s+\p{L}+)?)`),
	regexp.MustCompile(`gần\s+(\p{L}+(?:\s+\p{L}+)?)`),
}

var wordRegex = regexp.MustCompile(`\p{L}+|\d+`)

func compile(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}
