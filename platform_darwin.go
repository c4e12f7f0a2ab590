//go:build darwin && cgo

package sipstat

// platformSources returns the default collaborators for the running
// platform: sysctl for the OS version, the IORegistry for the persisted
// config, and the weakly-linked CSR entry points for the live config.
func platformSources() (VersionSource, NVRAMSource, CSRSource, error) {
	return sysctlVersions{}, iokitNVRAM{}, csrSyscalls{}, nil
}
