// Package sipstat resolves the macOS System Integrity Protection policy.
//
// This package reads the SIP ("rootless") configuration from two independent
// and sometimes-divergent sources: the policy currently enforced by the
// running kernel (via the weakly-linked csr_get_active_config and csr_check
// entry points) and the configuration persisted to NVRAM that will apply
// after the next boot (the csr-active-config property of the
// IODeviceTree:/options registry node). Both are normalized against a fixed
// catalogue of named policy flags and reported as one observation per flag,
// plus one aggregate observation for the overall policy.
//
// # API Model
//
// sipstat intentionally exposes two API families:
//   - [Resolve] for diagnostics data collection, producing [Observation] rows
//   - [Check] for pass/fail compliance validation using [Requirement] items
//
// Keep these families separate:
//   - use Resolve when you need the full picture, including the persisted
//     NVRAM state and the aggregate verdict
//   - use Check when a caller only needs to gate on specific flags (CI jobs,
//     fleet audits) and wants an actionable error on first failure
//
// # Quick Status
//
// Resolve the current policy and print the observations:
//
//	st, err := sipstat.Resolve()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, o := range st.Observations {
//	    fmt.Printf("%s: %s\n", o.ConfigFlag, o.Enabled)
//	}
//
// An empty observation slice is a normal outcome on hosts that predate the
// SIP mechanism or lack the live CSR entry points; it is not an error.
//
// # Compliance Check
//
// Validate that SIP is fully enabled and kext loading is restricted:
//
//	err := sipstat.Check(
//	    sipstat.RequireFullProtection,
//	    sipstat.RequireProtected(sipstat.FlagUntrustedKexts),
//	)
//	if err != nil {
//	    var pe *sipstat.PolicyError
//	    if errors.As(err, &pe) {
//	        log.Fatalf("host not compliant: %s — %s", pe.Flag, pe.Reason)
//	    }
//	    log.Fatal(err)
//	}
//
// # Types
//
// [Observation] is one reported row: a flag name, the live verdict, and the
// persisted (NVRAM) verdict. Both verdicts are [State] values; StateUnknown
// marks a verdict that could not be asserted (no persisted snapshot, or
// active-config bits outside the known flag set) and is omitted from the flat
// JSON record rather than defaulted to 0 or 1.
//
// [PolicyStatus] aggregates one resolution: the OS version that was gated on,
// both snapshots, the persisted-read error if any, and the observations.
//
// Every call to [Resolve] re-reads both sources; nothing is cached, and no
// call mutates the policy.
package sipstat
