package sipstat

import (
	"fmt"
	"strings"
)

// Flag identifies one CSR configuration flag from the fixed catalogue.
type Flag int

const (
	// FlagUntrustedKexts allows loading unsigned kernel extensions.
	FlagUntrustedKexts Flag = iota
	// FlagUnrestrictedFS lifts filesystem protections on system paths.
	FlagUnrestrictedFS
	// FlagTaskForPID allows task_for_pid() against protected processes.
	FlagTaskForPID
	// FlagKernelDebugger allows attaching a kernel debugger.
	FlagKernelDebugger
	// FlagAppleInternal enables Apple-internal-only features.
	FlagAppleInternal
	// FlagUnrestrictedDTrace allows unrestricted DTrace probes.
	FlagUnrestrictedDTrace
	// FlagUnrestrictedNVRAM allows unrestricted NVRAM variable writes.
	FlagUnrestrictedNVRAM
	// FlagDeviceConfiguration allows device configuration changes.
	FlagDeviceConfiguration
)

// FlagDefinition pairs a catalogue flag with its reporting name and its bit
// in csr_config_t.
type FlagDefinition struct {
	Flag Flag
	Name string
	Bit  uint32
}

// csrFlags is the catalogue: the single source of truth for flag names and
// bit values, used for both reporting and validity masking.
// Bit values follow bsd/sys/csr.h (CSR_ALLOW_*).
var csrFlags = []FlagDefinition{
	{FlagUntrustedKexts, "allow_untrusted_kexts", 1 << 0},
	{FlagUnrestrictedFS, "allow_unrestricted_fs", 1 << 1},
	{FlagTaskForPID, "allow_task_for_pid", 1 << 2},
	{FlagKernelDebugger, "allow_kernel_debugger", 1 << 3},
	{FlagAppleInternal, "allow_apple_internal", 1 << 4},
	{FlagUnrestrictedDTrace, "allow_unrestricted_dtrace", 1 << 5},
	{FlagUnrestrictedNVRAM, "allow_unrestricted_nvram", 1 << 6},
	{FlagDeviceConfiguration, "allow_device_configuration", 1 << 7},
}

// Definitions returns the flag catalogue in enumeration order. The returned
// slice is a copy; the catalogue itself is immutable.
func Definitions() []FlagDefinition {
	defs := make([]FlagDefinition, len(csrFlags))
	copy(defs, csrFlags)
	return defs
}

// ValidUnion returns the OR of all catalogue bits. Any active-config bit
// outside this union is unrecognized by the catalogue.
func ValidUnion() uint32 {
	var union uint32
	for _, def := range csrFlags {
		union |= def.Bit
	}
	return union
}

// Bit returns the flag's bit in csr_config_t, or 0 for an out-of-catalogue
// value.
func (f Flag) Bit() uint32 {
	for _, def := range csrFlags {
		if def.Flag == f {
			return def.Bit
		}
	}
	return 0
}

func (f Flag) String() string {
	for _, def := range csrFlags {
		if def.Flag == f {
			return def.Name
		}
	}
	return fmt.Sprintf("Flag(%d)", int(f))
}

// ParseFlag resolves a catalogue name (case-insensitive) to its [Flag].
func ParseFlag(name string) (Flag, error) {
	for _, def := range csrFlags {
		if strings.EqualFold(name, def.Name) {
			return def.Flag, nil
		}
	}
	return 0, fmt.Errorf("unknown flag: %q", name)
}

// FlagValues returns all catalogue flags in enumeration order.
func FlagValues() []Flag {
	flags := make([]Flag, len(csrFlags))
	for i, def := range csrFlags {
		flags[i] = def.Flag
	}
	return flags
}

// FlagNames returns all catalogue flag names in enumeration order.
func FlagNames() []string {
	names := make([]string, len(csrFlags))
	for i, def := range csrFlags {
		names[i] = def.Name
	}
	return names
}
