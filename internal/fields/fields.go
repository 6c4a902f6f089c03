// Package fields recovers a structured field set from normalized clinical
// text using an ordered cascade of pattern rules. Extraction is best effort:
// a rule that finds no match simply leaves its key absent, and a document
// matching nothing still yields a usable (mostly empty) result.
package fields

// Sections holds the eight recognized note sections. A nil value means the
// label was not found; an empty string means it was found with no content.
type Sections struct {
	PresentingComplaint *string `json:"presenting_complaint"`
	History             *string `json:"history"`
	Examination         *string `json:"examination"`
	Assessment          *string `json:"assessment"`
	Plan                *string `json:"plan"`
	Tests               *string `json:"tests"`
	FollowUp            *string `json:"follow_up"`
	Medications         *string `json:"medications"`
}

// StructuredFields is the recovered key/value view of a clinical document.
// Scalar keys are pointers so that absent and present-but-empty stay
// distinct. VisitDate deliberately has no omitempty: the source behavior
// emits an explicit null when the field was sought and not found, and only
// this field does that.
type StructuredFields struct {
	ProviderClinic    *string           `json:"provider_clinic,omitempty"`
	ClinicAddress     *string           `json:"clinic_address,omitempty"`
	ClinicPhone       *string           `json:"clinic_phone,omitempty"`
	PatientName       *string           `json:"patient_name,omitempty"`
	PatientDOB        *string           `json:"patient_dob,omitempty"`
	VisitDate         *string           `json:"visit_date"`
	ProviderName      *string           `json:"provider_name,omitempty"`
	ProviderSpecialty *string           `json:"provider_specialty,omitempty"`
	Signature         *string           `json:"signature,omitempty"`
	Sections          Sections          `json:"sections"`
	Diagnosis         []string          `json:"diagnosis,omitempty"`
	Medications       []string          `json:"medications,omitempty"`
	LabResults        map[string]string `json:"lab_results,omitempty"`
}

func ptr(s string) *string {
	return &s
}
