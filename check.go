package sipstat

import "fmt"

// Requirement describes a compliance condition consumable by [Check].
//
// Built-in implementations include:
//   - [FlagRequirement]
//   - [RequirementGroup]
//   - [RequireFullProtection]
type Requirement interface {
	isRequirement()
}

// RequirementGroup is a reusable set of [Requirement] items.
type RequirementGroup []Requirement

// FlagRequirement requires a catalogue flag's live verdict to match Allowed.
// Allowed true means the guarded operation must be permitted; false means it
// must be restricted.
type FlagRequirement struct {
	Flag    Flag
	Allowed bool
}

// fullProtection requires the aggregate policy to be fully enforced.
type fullProtection struct{}

// RequireFullProtection requires the aggregate "sip" observation to be
// enabled, i.e. no restriction lifted.
var RequireFullProtection Requirement = fullProtection{}

// RequireProtected creates a requirement that the operation guarded by the
// flag must be restricted.
func RequireProtected(f Flag) FlagRequirement {
	return FlagRequirement{Flag: f, Allowed: false}
}

// RequireAllowed creates a requirement that the operation guarded by the
// flag must be permitted.
func RequireAllowed(f Flag) FlagRequirement {
	return FlagRequirement{Flag: f, Allowed: true}
}

func (FlagRequirement) isRequirement()  {}
func (RequirementGroup) isRequirement() {}
func (fullProtection) isRequirement()   {}

type requirementSet struct {
	full      bool
	flags     []FlagRequirement
	seenFlags map[Flag]struct{}
}

func normalizeRequirements(required []Requirement) requirementSet {
	rs := requirementSet{
		seenFlags: map[Flag]struct{}{},
	}
	for _, req := range required {
		rs.add(req)
	}
	return rs
}

func (rs *requirementSet) add(req Requirement) {
	switch r := req.(type) {
	case fullProtection:
		rs.full = true
	case FlagRequirement:
		if _, ok := rs.seenFlags[r.Flag]; ok {
			return
		}
		rs.seenFlags[r.Flag] = struct{}{}
		rs.flags = append(rs.flags, r)
	case RequirementGroup:
		for _, nested := range r {
			if nested == nil {
				continue
			}
			rs.add(nested)
		}
	}
}

// Check resolves the current policy and validates the specified requirements,
// returning a *[PolicyError] for the first unsatisfied one, or nil if all
// are met.
func Check(required ...Requirement) error {
	st, err := Resolve()
	if err != nil {
		return fmt.Errorf("resolve policy: %w", err)
	}
	return CheckStatus(st, required...)
}

// CheckStatus validates requirements against an already-resolved status.
// It performs no I/O, making it usable with statuses resolved elsewhere.
func CheckStatus(st *PolicyStatus, required ...Requirement) error {
	rs := normalizeRequirements(required)

	if !st.Supported {
		reason := st.Reason
		if reason == "" {
			reason = "policy status unavailable on this host"
		}
		return &PolicyError{Flag: AggregateFlag, Reason: reason}
	}

	if rs.full {
		agg, ok := st.Observation(AggregateFlag)
		if !ok {
			return &PolicyError{Flag: AggregateFlag, Reason: "no aggregate observation"}
		}
		switch agg.Enabled {
		case StateEnabled:
		case StateDisabled:
			return &PolicyError{
				Flag:   AggregateFlag,
				Reason: fmt.Sprintf("protection relaxed; active config 0x%x", st.Live.ActiveConfig),
			}
		default:
			return &PolicyError{
				Flag:   AggregateFlag,
				Reason: fmt.Sprintf("active config 0x%x carries bits outside the known flag set", st.Live.ActiveConfig),
			}
		}
	}

	for _, req := range rs.flags {
		obs, ok := st.Observation(req.Flag.String())
		if !ok {
			return &PolicyError{Flag: req.Flag.String(), Reason: "no observation for flag"}
		}
		if obs.Enabled != StateOf(req.Allowed) {
			reason := "operation is permitted but must be restricted"
			if req.Allowed {
				reason = "operation is restricted but must be permitted"
			}
			return &PolicyError{Flag: req.Flag.String(), Reason: reason}
		}
	}

	return nil
}
