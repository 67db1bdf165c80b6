//go:build windows

package hwid

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/sys/windows"
)

// probeCPUID combines the processor identifier the OS reports with the core
// count. PROCESSOR_IDENTIFIER carries family/model/stepping and is stable
// across reboots on unchanged hardware.
func probeCPUID() (string, error) {
	procID := strings.TrimSpace(os.Getenv("PROCESSOR_IDENTIFIER"))
	if procID == "" {
		return fmt.Sprintf("%s-%s-%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()), nil
	}
	return fmt.Sprintf("%s x%d", procID, runtime.NumCPU()), nil
}

// probeVolumeSerial reads the serial of the volume holding the OS root via
// GetVolumeInformation.
func probeVolumeSerial() (string, error) {
	root := os.Getenv("SystemDrive")
	if root == "" {
		root = "C:"
	}
	rootPath, err := windows.UTF16PtrFromString(root + `\`)
	if err != nil {
		return "", &ProbeError{Attribute: AttrVolumeSerial, Err: err}
	}

	var serial uint32
	err = windows.GetVolumeInformation(rootPath, nil, 0, &serial, nil, nil, nil, 0)
	if err != nil {
		return "", &ProbeError{Attribute: AttrVolumeSerial, Err: err}
	}
	return fmt.Sprintf("%08x", serial), nil
}

// probeMotherboardSerial asks WMI for the baseboard serial. Requires no
// elevation; an empty or placeholder value means unavailable.
func probeMotherboardSerial() (string, error) {
	out, err := exec.Command("wmic", "baseboard", "get", "SerialNumber").Output()
	if err != nil {
		return "", nil
	}
	lines := strings.Split(string(out), "\n")
	if len(lines) < 2 {
		return "", nil
	}
	return sanitizeSerial(lines[1]), nil
}
