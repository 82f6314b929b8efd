package model

// Plan tiers gate premium features such as attachment analysis.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// PersonaProfile describes who the user is and what they care about. The
// classifier prompt is built from these fields; they are read-only during a
// scan.
type PersonaProfile struct {
	UserID             string
	Email              string
	Role               string
	CurrentFocus       []string
	CriticalCategories []string
	CommunicationStyle string
	BusinessContext    string
	Plan               string
	IsAdmin            bool
}

// AttachmentAnalysisEnabled reports whether the profile's tier unlocks
// attachment insight extraction.
func (p *PersonaProfile) AttachmentAnalysisEnabled() bool {
	return p.Plan == PlanPro || p.IsAdmin
}
