//go:build darwin && cgo

package sipstat

/*
#include <stdint.h>

typedef uint32_t csr_config_t;

// The CSR entry points live in libSystem but are absent on OS X releases
// that predate the mechanism. Mark them weakly linked so the binary loads
// there, and null-check before every use.
extern int csr_check(csr_config_t mask) __attribute__((weak_import));
extern int csr_get_active_config(csr_config_t *config) __attribute__((weak_import));

static int sipstat_csr_bound(void) {
	return csr_check != 0 && csr_get_active_config != 0;
}

static uint32_t sipstat_csr_active_config(void) {
	csr_config_t config = 0;
	csr_get_active_config(&config);
	return config;
}

static int sipstat_csr_check(uint32_t mask) {
	return csr_check(mask);
}
*/
import "C"

// csrSyscalls is the live [CSRSource] backed by the weakly-linked kernel
// entry points.
type csrSyscalls struct{}

func (csrSyscalls) Available() bool {
	return C.sipstat_csr_bound() != 0
}

func (csrSyscalls) ActiveConfig() uint32 {
	return uint32(C.sipstat_csr_active_config())
}

// Check reports whether the operation guarded by mask is permitted.
// csr_check returns zero exactly when it is.
func (csrSyscalls) Check(mask uint32) bool {
	return C.sipstat_csr_check(C.uint32_t(mask)) == 0
}
