package sipstat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform is returned by [Resolve] and [Check] when no default
// collaborators exist for the running platform and none were injected.
var ErrUnsupportedPlatform = errors.New("system integrity protection status requires macOS")

// Persisted-config read failures. Absence of the csr-active-config property
// is not among them: an unset property is the default policy, not an error.
var (
	// ErrNodeUnavailable means the IODeviceTree:/options registry node could
	// not be opened. The node is expected to always exist on a functioning
	// system, unlike the property within it.
	ErrNodeUnavailable = errors.New("could not open IODeviceTree options node")
	// ErrPropertiesUnavailable means the node's property dictionary could not
	// be fetched.
	ErrPropertiesUnavailable = errors.New("could not fetch IODeviceTree options properties")
	// ErrPropertiesEmpty means the node exists but carries no properties,
	// which indicates a deeper platform problem.
	ErrPropertiesEmpty = errors.New("IODeviceTree options node has no properties")
	// ErrUnexpectedType means csr-active-config is present but is not a byte
	// buffer.
	ErrUnexpectedType = errors.New("unexpected data type for csr-active-config")
)

// OSVersion is one OS-version record from a [VersionSource]. Major and Minor
// are string-encoded integers, matching how the platform reports them.
type OSVersion struct {
	Major string
	Minor string
}

// PersistedConfig is the csr-active-config value read from NVRAM.
// Present is false when the property is not set, which is the expected
// default state (fully enforced policy), not an error.
type PersistedConfig struct {
	Present bool
	Raw     uint32
}

// LiveConfig is the policy currently enforced by the running kernel.
// Available is false when the host lacks the live CSR entry points (an OS
// version that predates the mechanism); downstream degrades to zero
// observations rather than guessing.
type LiveConfig struct {
	Available    bool
	ActiveConfig uint32
}

// State is a per-field verdict. StateUnknown marks verdicts that cannot be
// asserted: the persisted side when no NVRAM snapshot was obtained, and the
// aggregate row when csr_get_active_config reports bits outside the known
// flag set.
type State int

const (
	// StateUnknown means the verdict could not be asserted either way.
	StateUnknown State = iota
	// StateDisabled means the flag (or the aggregate policy) is off.
	StateDisabled
	// StateEnabled means the flag (or the aggregate policy) is on.
	StateEnabled
)

// StateOf maps a boolean verdict onto a known [State].
func StateOf(on bool) State {
	if on {
		return StateEnabled
	}
	return StateDisabled
}

// Known reports whether the verdict is asserted (enabled or disabled).
func (s State) Known() bool {
	return s == StateEnabled || s == StateDisabled
}

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AggregateFlag is the config_flag value of the aggregate observation. It is
// always emitted first, before the per-flag rows.
const AggregateFlag = "sip"

// Observation is one reported row. ConfigFlag is [AggregateFlag] for the
// aggregate row and a catalogue name for the per-flag rows. Enabled is the
// live verdict; EnabledNVRAM is the persisted verdict and is StateUnknown
// whenever no persisted snapshot was obtained.
type Observation struct {
	ConfigFlag   string
	Enabled      State
	EnabledNVRAM State
}

// observationRow is the flat record shape consumed by reporting layers:
// 0/1 integers, with unknown verdicts omitted instead of defaulted.
type observationRow struct {
	ConfigFlag   string `json:"config_flag"`
	Enabled      *int   `json:"enabled,omitempty"`
	EnabledNVRAM *int   `json:"enabled_nvram,omitempty"`
}

func stateInt(s State) *int {
	if !s.Known() {
		return nil
	}
	n := 0
	if s == StateEnabled {
		n = 1
	}
	return &n
}

func stateFromInt(n *int) State {
	if n == nil {
		return StateUnknown
	}
	return StateOf(*n != 0)
}

// MarshalJSON encodes the observation as a flat record with integer 0/1
// fields. Fields whose verdict is StateUnknown are absent.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationRow{
		ConfigFlag:   o.ConfigFlag,
		Enabled:      stateInt(o.Enabled),
		EnabledNVRAM: stateInt(o.EnabledNVRAM),
	})
}

// UnmarshalJSON decodes a flat record; absent fields become StateUnknown.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var row observationRow
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	o.ConfigFlag = row.ConfigFlag
	o.Enabled = stateFromInt(row.Enabled)
	o.EnabledNVRAM = stateFromInt(row.EnabledNVRAM)
	return nil
}

// PolicyStatus holds the outcome of one resolution.
type PolicyStatus struct {
	// OSVersion is the record the availability gate ran on. Zero-valued when
	// the version source yielded no usable record.
	OSVersion OSVersion

	// Supported is true when the availability gate passed and the live CSR
	// entry points are bound. When false, Observations is empty and Reason
	// says why; this is an environment mismatch, not an error.
	Supported bool

	// Reason is a short diagnostic for Supported == false.
	Reason string

	// Live is the kernel-enforced snapshot. Only meaningful when Supported.
	Live LiveConfig

	// Persisted is the NVRAM snapshot. Zero-valued when PersistedErr is set.
	Persisted PersistedConfig

	// PersistedErr records a persisted-config read failure. The live
	// observations are still reported; only the enabled_nvram fields are
	// absent.
	PersistedErr error

	// Observations is the aggregate row followed by one row per catalogue
	// flag, in catalogue order. Empty when Supported is false.
	Observations []Observation
}

// Observation returns the row for the given config_flag name, or false when
// no such row was emitted.
func (st *PolicyStatus) Observation(configFlag string) (Observation, bool) {
	for _, o := range st.Observations {
		if o.ConfigFlag == configFlag {
			return o, true
		}
	}
	return Observation{}, false
}

// PolicyError reports the first unsatisfied requirement found by [Check].
type PolicyError struct {
	Flag   string
	Reason string
	Err    error
}

func (e *PolicyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flag %s: %s: %v", e.Flag, e.Reason, e.Err)
	}
	return fmt.Sprintf("flag %s: %s", e.Flag, e.Reason)
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}
