package service

import (
	"fmt"
	"regexp"
	"strings"
)

// Scanner categories. PII categories are masked by Redact; sensitive-word
// categories are scored by the classifier but never masked.
const (
	CategoryNationalID   = "national_id"
	CategoryMobile       = "mobile"
	CategoryLandline     = "landline"
	CategoryLicensePlate = "license_plate"
	CategoryBuildingUnit = "building_unit"
	CategoryFloorRoom    = "floor_room"
	CategoryAddress      = "address"
	CategoryPersonName   = "person_name"

	CategoryProfanity  = "profanity"
	CategoryInsult     = "insult"
	CategoryNoise      = "noise"
	CategoryAccusation = "accusation"
	CategoryThreat     = "threat"
)

// Hit is a single sensitive-content match
type Hit struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Match    string `json:"match"`
	Score    int    `json:"score"`
}

// ScanResult holds all matches found in a text
type ScanResult struct {
	Hits []Hit `json:"hits"`
}

// RedactResult holds the masked text and the audit trail of masked items
type RedactResult struct {
	RedactedText  string   `json:"redacted_text"`
	RedactedItems []string `json:"redacted_items"`
}

// piiPattern describes one maskable PII category
type piiPattern struct {
	category string
	label    string
	re       *regexp.Regexp
	score    int
}

// PII patterns, ordered by specificity: earlier patterns mask first so that
// e.g. a mobile number is never half-consumed by the landline pattern.
var piiPatterns = []piiPattern{
	{CategoryNationalID, "身分證字號", regexp.MustCompile(`[A-Z][12]\d{8}`), 5},
	{CategoryMobile, "手機號碼", regexp.MustCompile(`09\d{2}[-\s]?\d{3}[-\s]?\d{3}`), 5},
	{CategoryLandline, "市話號碼", regexp.MustCompile(`\(0\d{1,2}\)\s?\d{3,4}[-\s]?\d{4}|0\d{1,2}-\d{3,4}[-\s]?\d{4}`), 4},
	{CategoryLicensePlate, "車牌號碼", regexp.MustCompile(`[A-Z]{2,3}-\d{3,4}|\d{3,4}-[A-Z]{2,3}`), 3},
	{CategoryAddress, "住址", regexp.MustCompile(`\p{Han}{1,3}[市縣]\p{Han}{1,5}(?:路|街|大道)(?:\d+段)?\d+(?:巷\d+)?(?:弄\d+)?號`), 4},
	{CategoryBuildingUnit, "棟戶資訊", regexp.MustCompile(`[A-Za-z甲乙丙丁戊][棟座]\d{1,4}(?:號|室)?`), 3},
	{CategoryFloorRoom, "樓層房號", regexp.MustCompile(`\d{1,2}樓(?:之\d{1,2})?|\d{1,4}室`), 2},
}

// Common Taiwanese surnames used for in-text name detection
var nameRe = regexp.MustCompile(`(?:陳|林|黃|張|李|王|吳|劉|蔡|楊|許|鄭|謝|郭|洪|邱|曾|廖|賴|徐|周|葉|蘇|莊|呂|江|何|蕭|羅|潘|簡|朱|鍾|游|彭|詹|胡|施|沈|余|盧|梁|趙|顏|柯|翁|魏|孫|戴)\p{Han}{1,2}`)

// Stoplist of common two-character words that start with a surname character
// and would otherwise false-positive as names ("大家", "小心" style).
var nameStoplist = map[string]bool{
	"謝謝": true, "許多": true, "何時": true, "何況": true, "周圍": true,
	"周邊": true, "曾經": true, "張貼": true, "黃色": true, "林立": true,
	"王八": true, "吳郭魚": true, "郭魚": true, "江湖": true, "葉子": true,
	"羅列": true, "朱紅": true, "沈重": true, "余地": true, "施工": true,
	"施壓": true, "胡亂": true, "胡說": true, "游泳": true, "彭湃": true,
}

// sensitiveWords per category, scored once per category regardless of how
// many words of that category appear. Slice keeps scan output deterministic.
var sensitiveWords = []struct {
	category string
	label    string
	words    []string
	score    int
}{
	{CategoryProfanity, "粗俗用語", []string{"幹", "靠北", "靠杯", "他媽的", "媽的", "王八蛋", "混蛋"}, 3},
	{CategoryInsult, "辱罵字眼", []string{"白癡", "智障", "腦殘", "廢物", "垃圾人", "不要臉", "無恥"}, 3},
	{CategoryNoise, "噪音抱怨", []string{"很吵", "太吵", "吵死", "吵鬧", "噪音", "半夜吵"}, 2},
	{CategoryAccusation, "指控字眼", []string{"詐騙", "騙子", "小偷", "偷竊", "盜用"}, 2},
	{CategoryThreat, "威脅字眼", []string{"給我小心", "走著瞧", "等著瞧", "報復", "找你算帳"}, 3},
}

// locationCategories counts as "location info" for the combination bonus
var locationCategories = map[string]bool{
	CategoryAddress:      true,
	CategoryBuildingUnit: true,
	CategoryFloorRoom:    true,
}

// Scan finds all sensitive-content matches in the text. Pure function, no I/O.
func Scan(text string) ScanResult {
	var hits []Hit

	masked := text
	for _, p := range piiPatterns {
		for _, m := range p.re.FindAllString(masked, -1) {
			hits = append(hits, Hit{Category: p.category, Label: p.label, Match: m, Score: p.score})
		}
		// Mask before the next pattern runs so overlapping patterns
		// (mobile vs landline) do not double-report.
		masked = p.re.ReplaceAllString(masked, "")
	}

	for _, m := range nameRe.FindAllString(masked, -1) {
		if nameStoplist[m] {
			continue
		}
		hits = append(hits, Hit{Category: CategoryPersonName, Label: "姓名", Match: m, Score: 2})
	}

	for _, sw := range sensitiveWords {
		for _, w := range sw.words {
			if strings.Contains(text, w) {
				hits = append(hits, Hit{Category: sw.category, Label: sw.label, Match: w, Score: sw.score})
			}
		}
	}

	return ScanResult{Hits: hits}
}

// ScoreHits computes the deterministic risk score for a set of hits.
// Sensitive-word categories count once each; a standalone personal name only
// scores when no address-type hit already pins down the household; location
// info plus a sensitive word adds the defamation-pattern bonus.
func ScoreHits(hits []Hit) int {
	score := 0
	seenWordCategory := map[string]bool{}
	hasLocation := false
	hasSensitiveWord := false
	nameScore := 0

	for _, h := range hits {
		if locationCategories[h.Category] {
			hasLocation = true
		}
		switch h.Category {
		case CategoryPersonName:
			if h.Score > nameScore {
				nameScore = h.Score
			}
		case CategoryProfanity, CategoryInsult, CategoryNoise, CategoryAccusation, CategoryThreat:
			hasSensitiveWord = true
			if !seenWordCategory[h.Category] {
				seenWordCategory[h.Category] = true
				score += h.Score
			}
		default:
			score += h.Score
		}
	}

	if nameScore > 0 && !hasLocation {
		score += nameScore
	}
	if hasLocation && hasSensitiveWord {
		score += 3
	}

	return score
}

// Redact masks all PII matches in the text with a category placeholder and
// records each masked item as "<label>: <match>" for the audit trail.
// Idempotent: the placeholder text never re-matches any pattern.
func Redact(text string) RedactResult {
	result := RedactResult{RedactedText: text}

	for _, p := range piiPatterns {
		matches := p.re.FindAllString(result.RedactedText, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			result.RedactedItems = append(result.RedactedItems, fmt.Sprintf("%s: %s", p.label, m))
		}
		result.RedactedText = p.re.ReplaceAllString(result.RedactedText, fmt.Sprintf("***%s已遮蔽***", p.label))
	}

	masked := result.RedactedText
	var nameMatches []string
	for _, m := range nameRe.FindAllString(masked, -1) {
		if nameStoplist[m] {
			continue
		}
		nameMatches = append(nameMatches, m)
	}
	for _, m := range nameMatches {
		result.RedactedItems = append(result.RedactedItems, fmt.Sprintf("姓名: %s", m))
		result.RedactedText = strings.ReplaceAll(result.RedactedText, m, "***姓名已遮蔽***")
	}

	return result
}
