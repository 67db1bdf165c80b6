//go:build linux

package hwid

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// probeCPUID derives a stable CPU identity from /proc/cpuinfo: vendor, model
// name and the core count. Serial-style identifiers are not exposed on most
// x86 Linux systems, so the model string is the stable token.
func probeCPUID() (string, error) {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return fmt.Sprintf("%s-%s-%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()), nil
	}

	var vendor, model string
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "vendor_id":
			if vendor == "" {
				vendor = value
			}
		case "model name", "Processor":
			if model == "" {
				model = value
			}
		}
		if vendor != "" && model != "" {
			break
		}
	}

	if vendor == "" && model == "" {
		return fmt.Sprintf("%s-%s-%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()), nil
	}
	return fmt.Sprintf("%s %s x%d", vendor, model, runtime.NumCPU()), nil
}

// probeVolumeSerial reads the machine-id, the stable per-installation token
// for the root filesystem on systemd and dbus systems.
func probeVolumeSerial() (string, error) {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return "", nil
}

// probeMotherboardSerial reads the DMI board serial from sysfs. The file is
// root-only on many distributions; a permission error means unavailable, not
// failure.
func probeMotherboardSerial() (string, error) {
	for _, path := range []string{"/sys/class/dmi/id/board_serial", "/sys/class/dmi/id/product_serial"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if serial := sanitizeSerial(string(data)); serial != "" {
			return serial, nil
		}
	}
	return "", nil
}
