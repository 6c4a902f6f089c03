package fields

import (
	"regexp"
	"strings"

	"github.com/medst/docingest/internal/normalize"
)

// Pattern tables for GP-style consultation reports. Compiled once at init
// and never mutated.
var (
	reClinicLine    = regexp.MustCompile(`(?im)^(.*?(?:Practice|Clinic).*)$`)
	reClinicContact = regexp.MustCompile(`(?im)^(.+\b(?:VIC|NSW|QLD|SA|WA|TAS|NT|ACT)\b.*?)(?:\s*\|\s*(\(0[0-9]\)\s*[0-9]{4}\s*[0-9]{3,4}))?$`)
	rePatientBlock  = regexp.MustCompile(`Patient:\s*([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)+)\s*\|\s*DOB:\s*([0-9]{1,2}\s+\w+\s+[0-9]{4})`)
	reVisitDate     = regexp.MustCompile(`(?i)(?:Date of visit|Visit Date)[:\-]\s*([0-9]{1,2}\s+\w+\s+[0-9]{4}|[0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{1,2}/[0-9]{1,2}/[0-9]{4})`)
	reClinicianLine = regexp.MustCompile(`Clinician:\s*(Dr\.?\s+[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)\s*\(([^)]+)\)`)
	reSignatureLine = regexp.MustCompile(`Signature:\s*(.+)`)
	reLabResult     = regexp.MustCompile(`(?i)([A-Za-z ][A-Za-z ]+)[:\-]\s*([0-9.]+)\s*(mmol/L|g/L|mg/dL|%|°C)`)
	reMedsLine      = regexp.MustCompile(`(?i)Medications?:\s*(.+)`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// sectionRules pairs each section with its label pattern. A section runs from
// the end of its label to the next capitalized-label line or end of text.
var sectionRules = []struct {
	name string
	re   *regexp.Regexp
}{
	{"presenting_complaint", sectionLabelRe(`presenting complaint`)},
	{"history", sectionLabelRe(`history`)},
	{"examination", sectionLabelRe(`examination`)},
	{"assessment", sectionLabelRe(`assessment`)},
	{"plan", sectionLabelRe(`plan`)},
	{"tests", sectionLabelRe(`tests`)},
	{"follow_up", sectionLabelRe(`follow-up`)},
	{"medications", sectionLabelRe(`medications?`)},
}

// reSectionBoundary ends a section at the next line starting with a
// capitalized label, with or without a colon. Case-sensitive on purpose.
var reSectionBoundary = regexp.MustCompile(`\n[A-Z][A-Za-z ]+:|\n[A-Z][A-Za-z ]+\n`)

func sectionLabelRe(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|\n)\s*(?:` + label + `)[:\-]\s*`)
}

// Extract applies the rule cascade to normalized text. Total: never fails,
// unmatched rules just leave their keys absent.
func Extract(text string) StructuredFields {
	var f StructuredFields

	// Header clinic line
	if m := reClinicLine.FindStringSubmatch(text); m != nil {
		f.ProviderClinic = ptr(strings.TrimSpace(m[1]))
	}

	// Header contact line (address | phone)
	if m := reClinicContact.FindStringSubmatch(text); m != nil {
		f.ClinicAddress = ptr(strings.TrimSpace(m[1]))
		if phone := strings.TrimSpace(m[2]); phone != "" {
			f.ClinicPhone = &phone
		}
	}

	// Patient block (name | DOB)
	if m := rePatientBlock.FindStringSubmatch(text); m != nil {
		f.PatientName = ptr(strings.TrimSpace(m[1]))
		f.PatientDOB = ptr(normalize.Date(m[2]))
	}

	// Visit date. When unmatched the key stays present-but-null, unlike every
	// other scalar; the source behavior is asymmetric here and tests pin it.
	if m := reVisitDate.FindStringSubmatch(text); m != nil {
		f.VisitDate = ptr(normalize.Date(m[1]))
	}

	// Clinician line and specialty
	if m := reClinicianLine.FindStringSubmatch(text); m != nil {
		f.ProviderName = ptr(strings.TrimSpace(m[1]))
		f.ProviderSpecialty = ptr(strings.TrimSpace(m[2]))
	}

	if m := reSignatureLine.FindStringSubmatch(text); m != nil {
		f.Signature = ptr(strings.TrimSpace(m[1]))
	}

	f.Sections = collectSections(text)

	// Diagnosis: the assessment section doubles as the primary diagnosis
	// summary. Heuristic proxy, not diagnosis-code extraction.
	if f.Sections.Assessment != nil && *f.Sections.Assessment != "" {
		f.Diagnosis = []string{*f.Sections.Assessment}
	}

	f.Medications = collectMedications(f.Sections.Medications, text)

	if labs := collectLabResults(text); len(labs) > 0 {
		f.LabResults = labs
	}

	return f
}

func collectSections(text string) Sections {
	var s Sections
	for _, rule := range sectionRules {
		s.set(rule.name, extractSection(rule.re, text))
	}
	return s
}

// extractSection captures text between a section label and the next
// capitalized-label line (or end of text), collapsing internal whitespace
// runs to single spaces.
func extractSection(labelRe *regexp.Regexp, text string) *string {
	loc := labelRe.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	rest := text[loc[1]:]
	if b := reSectionBoundary.FindStringIndex(rest); b != nil {
		rest = rest[:b[0]]
	}
	content := strings.TrimSpace(reWhitespace.ReplaceAllString(rest, " "))
	return &content
}

func (s *Sections) set(name string, v *string) {
	switch name {
	case "presenting_complaint":
		s.PresentingComplaint = v
	case "history":
		s.History = v
	case "examination":
		s.Examination = v
	case "assessment":
		s.Assessment = v
	case "plan":
		s.Plan = v
	case "tests":
		s.Tests = v
	case "follow_up":
		s.FollowUp = v
	case "medications":
		s.Medications = v
	}
}

// collectMedications merges section-derived entries with a global scan of
// every Medications: line (medications are often buried inline, e.g.
// "Plan: ... Medications: Paracetamol ..."), then de-duplicates
// case-insensitively while preserving first-seen order.
func collectMedications(section *string, text string) []string {
	var candidates []string
	if section != nil {
		candidates = append(candidates, splitMedicationLine(*section)...)
	}
	for _, m := range reMedsLine.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, splitMedicationLine(strings.TrimSpace(m[1]))...)
	}

	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(c), "."))
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// splitMedicationLine splits a medications line into candidate entries on
// semicolons, or on a period/comma followed by a capitalized word, so that
// dose descriptions like "1 tab b.d. with food" stay intact.
func splitMedicationLine(line string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ';':
			parts = append(parts, line[start:i])
			start = i + 1
		case '.', ',':
			j := i + 1
			for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
				j++
			}
			if j > i+1 && j < len(line) && line[j] >= 'A' && line[j] <= 'Z' {
				parts = append(parts, line[start:i])
				start = j
				i = j - 1
			}
		}
	}
	parts = append(parts, line[start:])
	return parts
}

// collectLabResults captures every "<name>: <value> <unit>" occurrence.
// Later readings of the same test overwrite earlier ones.
func collectLabResults(text string) map[string]string {
	labs := make(map[string]string)
	for _, m := range reLabResult.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		labs[name] = m[2] + " " + m[3]
	}
	return labs
}
