package extract

import (
	"regexp"
	"strings"
)

var (
	reDateish  = regexp.MustCompile(`\b\d{1,2}[/\s-]\w+[/\s-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	reLabelish = regexp.MustCompile(`(?i)\b(patient|clinician|history|examination|assessment|plan|medications?)\b\s*[:\-]`)
	reUnitish  = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(mmol/L|g/L|mg/dL|mg|ml)\b`)
)

// ocrConfidence scores OCR output by how much it resembles a clinical
// document: date-ish tokens, labeled lines, and dosed quantities each add to
// a small base. Purely heuristic; used only to flag output for review.
func ocrConfidence(txt string) float32 {
	score := float32(0.2)
	if reDateish.MatchString(txt) {
		score += 0.2
	}
	if reLabelish.MatchString(txt) {
		score += 0.25
	}
	if reUnitish.MatchString(txt) {
		score += 0.15
	}
	if len(strings.TrimSpace(txt)) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Below this, OCR output gets a review warning attached.
const lowConfidenceThreshold = 0.5
