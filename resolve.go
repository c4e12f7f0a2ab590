package sipstat

import (
	"go.uber.org/zap"
)

// VersionSource yields the OS-version records of the running host.
// Exactly one record is expected; anything else denies resolution.
type VersionSource interface {
	OSVersions() ([]OSVersion, error)
}

// NVRAMSource reads the persisted csr-active-config value from the
// device-tree options registry node.
type NVRAMSource interface {
	CSRActiveConfig() (PersistedConfig, error)
}

// CSRSource exposes the live CSR entry points. Available must be consulted
// before the other methods: on OS versions that predate the mechanism the
// entry points are unbound, and calling them is not an option.
type CSRSource interface {
	// Available reports whether both live entry points are bound.
	Available() bool
	// ActiveConfig returns the kernel's active csr_config_t bitmask.
	ActiveConfig() uint32
	// Check reports whether the operation guarded by mask is currently
	// permitted. This is the authoritative per-flag verdict: it may encode
	// platform nuances beyond the raw bitmask, so it is invoked per flag
	// rather than derived from ActiveConfig.
	Check(mask uint32) bool
}

// resolveConfig holds the collaborators for one resolution.
type resolveConfig struct {
	versions VersionSource
	nvram    NVRAMSource
	csr      CSRSource
	log      *zap.Logger
}

// ResolveOption configures the collaborators used by [Resolve].
type ResolveOption func(*resolveConfig)

// WithVersionSource overrides the OS-version source.
// This is primarily for testing; production code uses sysctl.
func WithVersionSource(vs VersionSource) ResolveOption {
	return func(c *resolveConfig) {
		c.versions = vs
	}
}

// WithNVRAMSource overrides the persisted-config source.
// This is primarily for testing; production code uses the IORegistry.
func WithNVRAMSource(ns NVRAMSource) ResolveOption {
	return func(c *resolveConfig) {
		c.nvram = ns
	}
}

// WithCSRSource overrides the live CSR entry points.
// This is primarily for testing; production code uses the weakly-linked
// csr_check and csr_get_active_config syscall wrappers.
func WithCSRSource(cs CSRSource) ResolveOption {
	return func(c *resolveConfig) {
		c.csr = cs
	}
}

// WithLogger sets the logger for verbose diagnostics (gate denials, unbound
// entry points, persisted-read failures). The default discards everything.
func WithLogger(log *zap.Logger) ResolveOption {
	return func(c *resolveConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Resolve reads both policy sources and produces the observation rows.
//
// Environment mismatches (OS too old, entry points unbound, undeterminable
// version) yield a status with Supported == false and zero observations, not
// an error. A persisted-config read failure is recorded in PersistedErr and
// the live observations are still emitted, with every enabled_nvram verdict
// unknown. Each call re-reads both sources; nothing is cached.
//
// On platforms without default collaborators, Resolve returns
// [ErrUnsupportedPlatform] unless all three sources are injected.
func Resolve(opts ...ResolveOption) (*PolicyStatus, error) {
	cfg := resolveConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.versions == nil || cfg.nvram == nil || cfg.csr == nil {
		versions, nvram, csr, err := platformSources()
		if err != nil {
			return nil, err
		}
		if cfg.versions == nil {
			cfg.versions = versions
		}
		if cfg.nvram == nil {
			cfg.nvram = nvram
		}
		if cfg.csr == nil {
			cfg.csr = csr
		}
	}

	st := &PolicyStatus{}

	versions, err := cfg.versions.OSVersions()
	if err != nil {
		st.Reason = "could not determine OS version"
		cfg.log.Debug("os version lookup failed", zap.Error(err))
		return st, nil
	}
	v, reason, ok := gateVersion(versions)
	st.OSVersion = v
	if !ok {
		st.Reason = reason
		cfg.log.Debug("availability gate denied",
			zap.String("reason", reason),
			zap.String("major", v.Major),
			zap.String("minor", v.Minor))
		return st, nil
	}

	if !cfg.csr.Available() {
		st.Reason = "live CSR entry points not bound"
		cfg.log.Debug("csr entry points unavailable",
			zap.String("major", v.Major),
			zap.String("minor", v.Minor))
		return st, nil
	}

	st.Supported = true
	st.Live = LiveConfig{Available: true, ActiveConfig: cfg.csr.ActiveConfig()}

	persisted, err := cfg.nvram.CSRActiveConfig()
	if err != nil {
		st.PersistedErr = err
		cfg.log.Debug("persisted config read failed", zap.Error(err))
	} else {
		st.Persisted = persisted
	}

	st.Observations = buildObservations(Definitions(), cfg.csr, st.Live, st.Persisted)
	return st, nil
}

// ReadPersisted reads the persisted csr-active-config value from the
// platform registry, bypassing the availability gate. Useful for inspecting
// the next-boot configuration on its own; [Resolve] is the full picture.
func ReadPersisted() (PersistedConfig, error) {
	_, nvram, _, err := platformSources()
	if err != nil {
		return PersistedConfig{}, err
	}
	return nvram.CSRActiveConfig()
}

// buildObservations merges the catalogue with a live and a persisted
// snapshot. The aggregate row comes first, then one row per definition in
// catalogue order. Every row is a fresh value; nothing is mutated and
// reused across flags.
func buildObservations(defs []FlagDefinition, csr CSRSource, live LiveConfig, persisted PersistedConfig) []Observation {
	if !live.Available {
		// The aggregate policy state cannot be asserted without the live
		// source, even when the persisted read succeeded.
		return nil
	}

	union := ValidUnion()
	obs := make([]Observation, 0, len(defs)+1)

	agg := Observation{ConfigFlag: AggregateFlag}
	switch {
	case live.ActiveConfig == 0:
		// No restrictions lifted: the policy is fully enforced.
		agg.Enabled = StateEnabled
		agg.EnabledNVRAM = StateEnabled
	case live.ActiveConfig|union == union:
		// Every set bit maps to a known flag: the policy is relaxed.
		agg.Enabled = StateDisabled
		agg.EnabledNVRAM = StateDisabled
	default:
		// Bits outside the known flag set: neither verdict can be asserted.
		agg.Enabled = StateUnknown
		agg.EnabledNVRAM = StateUnknown
	}
	obs = append(obs, agg)

	for _, def := range defs {
		o := Observation{
			ConfigFlag: def.Name,
			Enabled:    StateOf(csr.Check(def.Bit)),
		}
		if persisted.Present {
			o.EnabledNVRAM = StateOf(persisted.Raw&def.Bit != 0)
		}
		obs = append(obs, o)
	}
	return obs
}
