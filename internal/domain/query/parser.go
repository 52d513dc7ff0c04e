// Package query analyzes free-text Vietnamese queries: detects the dominant
// intent, extracts a location, and collects service/target/time signals plus
// free keywords. Parsing is pure and never fails; a missing signal is an
// empty value, not an error.
package query

import (
	"strings"

	"github.com/kailas-cloud/vouchex/internal/domain/geo"
)

// Confidence defaults and weights.
const (
	generalConfidence = 0.5

	confWeightIntent   = 0.3
	confWeightLocation = 0.3
	confWeightService  = 0.2
	confWeightTarget   = 0.2

	maxKeywords   = 10
	minKeywordLen = 3
)

// Components is the parsed representation of one query. Created fresh per
// query, never persisted.
type Components struct {
	Query            string
	Intent           Intent
	IntentConfidence float64
	Location         string // canonical city name, "" when undetected
	ServiceSignals   []string
	TargetSignal     string
	TimeSignals      []string
	Keywords         []string
	Confidence       float64
}

// HasLocation reports whether a location was detected.
func (c Components) HasLocation() bool { return c.Location != "" }

// Parser extracts Components from raw query text.
type Parser struct {
	gaz *geo.Gazetteer
}

// NewParser creates a parser backed by the given gazetteer.
func NewParser(gaz *geo.Gazetteer) *Parser {
	return &Parser{gaz: gaz}
}

// Parse analyzes a query. Empty queries yield IntentGeneral with the
// default confidence and no signals.
func (p *Parser) Parse(text string) Components {
	lower := strings.ToLower(strings.TrimSpace(text))

	c := Components{Query: text}
	c.Intent, c.IntentConfidence = detectIntent(lower)

	var locConf float64
	c.Location, locConf = p.detectLocation(lower)

	var svcConf float64
	c.ServiceSignals, svcConf = detectServiceSignals(lower)

	var tgtConf float64
	c.TargetSignal, tgtConf = detectTargetSignal(lower)

	c.TimeSignals = detectTimeSignals(lower)
	c.Keywords = extractKeywords(lower)

	c.Confidence = confWeightIntent*c.IntentConfidence +
		confWeightLocation*locConf +
		confWeightService*svcConf +
		confWeightTarget*tgtConf
	if c.Confidence > 1 {
		c.Confidence = 1
	}

	return c
}

// detectIntent scores every intent by pattern hit count; the highest wins,
// ties broken by table order. Confidence = min(hits/wordCount, 1).
func detectIntent(lower string) (Intent, float64) {
	words := wordRegex.FindAllString(lower, -1)
	if len(words) == 0 {
		return IntentGeneral, generalConfidence
	}

	best := IntentGeneral
	bestScore := 0
	for _, entry := range intentTable {
		score := 0
		for _, re := range entry.patterns {
			score += len(re.FindAllString(lower, -1))
		}
		if score > bestScore {
			best = entry.intent
			bestScore = score
		}
	}

	if bestScore == 0 {
		return IntentGeneral, generalConfidence
	}
	conf := float64(bestScore) / float64(len(words))
	if conf > 1 {
		conf = 1
	}
	return best, conf
}

// detectLocation checks gazetteer aliases as literal substrings first, then
// falls back to preposition-triggered extraction normalized against the
// gazetteer. Unresolvable locations yield "".
func (p *Parser) detectLocation(lower string) (string, float64) {
	if place, ok := p.gaz.FindInText(lower); ok {
		return place.Name, 0.9
	}

	for _, re := range locationPrepositions {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if place, ok := p.gaz.Resolve(m[1]); ok {
			return place.Name, 0.6
		}
	}

	return "", 0
}

func detectServiceSignals(lower string) ([]string, float64) {
	var tags []string
	for _, entry := range serviceSignalTable {
		for _, re := range entry.patterns {
			if re.MatchString(lower) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}
	if len(tags) == 0 {
		return nil, 0
	}
	conf := float64(len(tags)) / 3
	if conf > 1 {
		conf = 1
	}
	return tags, conf
}

func detectTargetSignal(lower string) (string, float64) {
	best := ""
	bestScore := 0
	for _, entry := range targetSignalTable {
		score := 0
		for _, re := range entry.patterns {
			if re.MatchString(lower) {
				score++
			}
		}
		if score > bestScore {
			best = entry.tag
			bestScore = score
		}
	}
	if bestScore == 0 {
		return "", 0
	}
	conf := float64(bestScore) / 2
	if conf > 1 {
		conf = 1
	}
	return best, conf
}

func detectTimeSignals(lower string) []string {
	var tags []string
	for _, entry := range timeSignalTable {
		for _, re := range entry.patterns {
			if re.MatchString(lower) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}
	return tags
}

// extractKeywords drops stop words and short tokens, keeps first-seen order,
// de-duplicates, caps at maxKeywords.
func extractKeywords(lower string) []string {
	words := wordRegex.FindAllString(lower, -1)
	seen := make(map[string]struct{}, len(words))
	var out []string
	for _, w := range words {
		if len([]rune(w)) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}
