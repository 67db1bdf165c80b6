//go:build cgo

// liblicensecore builds the C-style surface used by foreign-language
// wrappers:
//
//	go build -buildmode=c-shared -o liblicensecore.so ./cmd/liblicensecore
//
// license_core_init must be called once with the signing secret before any
// other function. get_hwid returns a borrowed string valid until the next
// get_hwid call.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"unsafe"

	"github.com/Vlad-tdk/LicenseCore/internal/hwid"
	"github.com/Vlad-tdk/LicenseCore/internal/license"
)

var (
	manager *license.Manager
	hwidBuf *C.char
)

//export license_core_init
func license_core_init(secret *C.char, secretLen C.int) C.int {
	if secret == nil || secretLen < 0 {
		return 0
	}
	key := C.GoBytes(unsafe.Pointer(secret), secretLen)
	manager = license.NewManager(key, license.WithHardwareConfig(hwid.DefaultConfig()))
	return 1
}

//export validate_license
func validate_license(tokenBytes *C.char, tokenLen C.int) C.int {
	if manager == nil || tokenBytes == nil || tokenLen < 0 {
		return 0
	}
	data := C.GoBytes(unsafe.Pointer(tokenBytes), tokenLen)
	info, err := manager.LoadAndValidate(context.Background(), data)
	if err != nil || info == nil || !info.Valid {
		return 0
	}
	return 1
}

//export has_feature
func has_feature(name *C.char) C.int {
	if manager == nil || name == nil {
		return 0
	}
	enabled, err := manager.HasFeature(C.GoString(name))
	if err != nil || !enabled {
		return 0
	}
	return 1
}

//export get_hwid
func get_hwid() *C.char {
	if manager == nil {
		return nil
	}
	fingerprint, err := manager.CurrentHardwareID(context.Background())
	if err != nil {
		return nil
	}
	if hwidBuf != nil {
		C.free(unsafe.Pointer(hwidBuf))
	}
	hwidBuf = C.CString(fingerprint)
	return hwidBuf
}

func main() {}
