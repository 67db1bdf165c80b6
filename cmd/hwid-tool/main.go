// hwid-tool prints the hardware fingerprint the license core would bind to
// on this machine.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Vlad-tdk/LicenseCore/internal/hwid"
)

func main() {
	verbose := flag.Bool("v", false, "print per-attribute components")
	jsonOut := flag.Bool("json", false, "machine-readable output")
	motherboard := flag.Bool("motherboard", false, "include the motherboard serial attribute")
	ttl := flag.Duration("ttl", hwid.DefaultCacheTTL, "fingerprint cache TTL")
	flag.Parse()

	cfg := hwid.DefaultConfig()
	cfg.UseMotherboardSerial = *motherboard
	cfg.CacheTTL = *ttl
	builder := hwid.NewBuilder(cfg)

	fingerprint, err := builder.Fingerprint()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hwid-tool: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		out := struct {
			HardwareID string            `json:"hardware_id"`
			Components map[string]string `json:"components,omitempty"`
			Generated  time.Time         `json:"generated_at"`
		}{HardwareID: fingerprint, Generated: time.Now().UTC()}

		if *verbose {
			components, err := builder.Components()
			if err == nil {
				out.Components = make(map[string]string, len(components))
				for attr, value := range components {
					out.Components[string(attr)] = value
				}
			}
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "hwid-tool: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(fingerprint)
	if *verbose {
		components, err := builder.Components()
		if err != nil {
			fmt.Fprintf(os.Stderr, "hwid-tool: %v\n", err)
			os.Exit(1)
		}
		for _, attr := range []hwid.Attribute{hwid.AttrCPUID, hwid.AttrMACAddress, hwid.AttrVolumeSerial, hwid.AttrMotherboardSerial} {
			if value, ok := components[attr]; ok {
				fmt.Printf("  %-20s %s\n", attr, value)
			}
		}
	}
}
