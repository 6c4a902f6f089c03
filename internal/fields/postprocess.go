package fields

import "strings"

// Postprocess trims whitespace from list-valued fields and drops empty
// entries, readying the field set for downstream storage. Keys absent from
// the input pass through unchanged. Idempotent.
func Postprocess(f StructuredFields) StructuredFields {
	f.Diagnosis = cleanList(f.Diagnosis)
	f.Medications = cleanList(f.Medications)
	return f
}

func cleanList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
