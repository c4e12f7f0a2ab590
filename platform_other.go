//go:build !darwin || !cgo

package sipstat

// platformSources has no default collaborators off macOS (or without cgo);
// [Resolve] works only with injected sources there.
func platformSources() (VersionSource, NVRAMSource, CSRSource, error) {
	return nil, nil, nil, ErrUnsupportedPlatform
}
