//go:build !linux && !darwin && !windows

package hwid

import (
	"fmt"
	"runtime"
)

func probeCPUID() (string, error) {
	return fmt.Sprintf("%s-%s-%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()), nil
}

func probeVolumeSerial() (string, error) { return "", nil }

func probeMotherboardSerial() (string, error) { return "", nil }
