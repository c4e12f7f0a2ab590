//go:build darwin

package sipstat

import "golang.org/x/sys/unix"

// sysctlVersions reads the product version (e.g. "10.11.6") from the
// kern.osproductversion sysctl and yields the single host record.
type sysctlVersions struct{}

func (sysctlVersions) OSVersions() ([]OSVersion, error) {
	s, err := unix.Sysctl("kern.osproductversion")
	if err != nil {
		return nil, err
	}
	v, err := parseProductVersion(s)
	if err != nil {
		return nil, err
	}
	return []OSVersion{v}, nil
}
