package domain

// Sentinel selections meaning "no filter".
const (
	AllProfiles = "All"
	AllLabs     = "All Labs"
)

// EmptySelectionMessage reports a selection that matched no record.
const EmptySelectionMessage = "no data for selection"

// Filter is the caller's profile and lab selection. It is passed explicitly
// into every aggregation call. An empty field is the same as its sentinel.
type Filter struct {
	Profile string `json:"profile" validate:"max=256"`
	Lab     string `json:"lab" validate:"max=256"`
}

// NewFilter builds a normalized filter.
func NewFilter(profile, lab string) Filter {
	return Filter{Profile: profile, Lab: lab}.Normalize()
}

// Normalize replaces empty selections with their sentinels so that
// equivalent filters compare equal.
func (f Filter) Normalize() Filter {
	if f.Profile == "" {
		f.Profile = AllProfiles
	}
	if f.Lab == "" {
		f.Lab = AllLabs
	}
	return f
}

// ProfileOnly drops the lab selection. Profile and lot summaries ignore labs.
func (f Filter) ProfileOnly() Filter {
	return Filter{Profile: f.Profile, Lab: AllLabs}.Normalize()
}

// MatchProfile reports whether a profile id passes the filter.
func (f Filter) MatchProfile(id string) bool {
	return f.Profile == "" || f.Profile == AllProfiles || f.Profile == id
}

// MatchLab reports whether a lab name passes the filter.
func (f Filter) MatchLab(name string) bool {
	return f.Lab == "" || f.Lab == AllLabs || f.Lab == name
}

// Match reports whether a record passes both selections.
func (f Filter) Match(r Record) bool {
	return f.MatchProfile(r.ProfileID) && f.MatchLab(r.LabName)
}
