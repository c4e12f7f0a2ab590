package sipstat

import (
	"fmt"
	"strings"
)

// String returns a human-readable summary of the resolved policy.
func (st *PolicyStatus) String() string {
	var b strings.Builder

	if st.OSVersion != (OSVersion{}) {
		fmt.Fprintf(&b, "OS version: %s.%s\n", st.OSVersion.Major, st.OSVersion.Minor)
	}

	if !st.Supported {
		reason := st.Reason
		if reason == "" {
			reason = "unavailable"
		}
		fmt.Fprintf(&b, "System Integrity Protection: %s\n", reason)
		return b.String()
	}

	fmt.Fprintf(&b, "Active config: 0x%08x\n", st.Live.ActiveConfig)
	switch {
	case st.PersistedErr != nil:
		fmt.Fprintf(&b, "NVRAM config: unavailable (%v)\n", st.PersistedErr)
	case !st.Persisted.Present:
		b.WriteString("NVRAM config: not set (default policy)\n")
	default:
		fmt.Fprintf(&b, "NVRAM config: 0x%08x\n", st.Persisted.Raw)
	}
	b.WriteString("\n")

	if agg, ok := st.Observation(AggregateFlag); ok {
		fmt.Fprintf(&b, "System Integrity Protection: %s\n", agg.Enabled)
		b.WriteString("\n")
	}

	b.WriteString("Flags:\n")
	for _, o := range st.Observations {
		if o.ConfigFlag == AggregateFlag {
			continue
		}
		writeObservation(&b, "  "+o.ConfigFlag, o)
	}

	return b.String()
}

func writeObservation(b *strings.Builder, name string, o Observation) {
	if o.EnabledNVRAM.Known() {
		fmt.Fprintf(b, "%s: %s (nvram: %s)\n", name, o.Enabled, o.EnabledNVRAM)
	} else {
		fmt.Fprintf(b, "%s: %s\n", name, o.Enabled)
	}
}
