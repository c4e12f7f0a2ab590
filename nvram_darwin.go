//go:build darwin && cgo

package sipstat

/*
#cgo LDFLAGS: -framework CoreFoundation -framework IOKit
#include <stdlib.h>
#include <CoreFoundation/CoreFoundation.h>
#include <IOKit/IOKitLib.h>
*/
import "C"

import (
	"encoding/binary"
	"unsafe"
)

const (
	optionsNodePath    = "IODeviceTree:/options"
	csrActiveConfigKey = "csr-active-config"
)

// iokitNVRAM is the persisted [NVRAMSource] backed by the IORegistry
// device-tree options node.
type iokitNVRAM struct{}

// CSRActiveConfig reads the csr-active-config property. An unset property is
// the default state and yields Present == false with a nil error. Every
// acquired handle is released before returning, on all paths.
func (iokitNVRAM) CSRActiveConfig() (PersistedConfig, error) {
	cpath := C.CString(optionsNodePath)
	defer C.free(unsafe.Pointer(cpath))

	entry := C.IORegistryEntryFromPath(C.kIOMasterPortDefault, cpath)
	if entry == 0 {
		return PersistedConfig{}, ErrNodeUnavailable
	}
	defer C.IOObjectRelease(entry)

	var props C.CFMutableDictionaryRef
	kr := C.IORegistryEntryCreateCFProperties(entry, &props, C.kCFAllocatorDefault, 0)
	if kr != C.KERN_SUCCESS {
		return PersistedConfig{}, ErrPropertiesUnavailable
	}
	if props == nil {
		return PersistedConfig{}, ErrPropertiesEmpty
	}
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(props)))

	ckey := C.CString(csrActiveConfigKey)
	defer C.free(unsafe.Pointer(ckey))
	key := C.CFStringCreateWithCString(C.kCFAllocatorDefault, ckey, C.kCFStringEncodingUTF8)
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(key)))

	var value unsafe.Pointer
	found := C.CFDictionaryGetValueIfPresent(
		C.CFDictionaryRef(props), unsafe.Pointer(key), &value)
	if found == 0 {
		// csr-active-config cleared or never set: the default policy.
		return PersistedConfig{}, nil
	}

	if C.CFGetTypeID(C.CFTypeRef(value)) != C.CFDataGetTypeID() {
		return PersistedConfig{}, ErrUnexpectedType
	}

	data := C.CFDataRef(value)
	length := C.CFDataGetLength(data)
	if length > 4 {
		length = 4
	}
	var buf [4]byte
	if length > 0 {
		C.CFDataGetBytes(data, C.CFRangeMake(0, length), (*C.UInt8)(unsafe.Pointer(&buf[0])))
	}

	return PersistedConfig{Present: true, Raw: binary.LittleEndian.Uint32(buf[:])}, nil
}
