// license-generator issues signed license tokens, one at a time from flags
// or in bulk from an Excel worksheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vlad-tdk/LicenseCore/internal/batch"
	"github.com/Vlad-tdk/LicenseCore/internal/hwid"
	"github.com/Vlad-tdk/LicenseCore/internal/license"
)

const dateOnlyLayout = "2006-01-02"

func main() {
	secret := flag.String("secret", "", "signing secret (prefer -secret-file)")
	secretFile := flag.String("secret-file", "", "file holding the signing secret")
	user := flag.String("user", "", "user id the license is issued to")
	licenseID := flag.String("license-id", "", "license id (random UUID when empty)")
	features := flag.String("features", "", "comma-separated feature tags")
	expiry := flag.String("expiry", "", "expiry: RFC 3339 or YYYY-MM-DD")
	hardware := flag.String("hardware", "*", "hardware hash to bind to, or * for any machine")
	bind := flag.Bool("bind", false, "bind to this machine's fingerprint instead of -hardware")
	out := flag.String("out", "", "output file (stdout when empty)")
	batchFile := flag.String("batch", "", "Excel worksheet to issue in bulk")
	outDir := flag.String("out-dir", ".", "output directory for batch tokens")
	flag.Parse()

	key, err := loadSecret(*secret, *secretFile)
	if err != nil {
		fatal(err)
	}

	manager := license.NewManager(key, license.WithHardwareConfig(hwid.DefaultConfig()))
	ctx := context.Background()

	if *batchFile != "" {
		if err := runBatch(ctx, manager, *batchFile, *outDir); err != nil {
			fatal(err)
		}
		return
	}

	if *user == "" {
		fatal(fmt.Errorf("-user is required"))
	}
	expiresAt, err := parseExpiry(*expiry)
	if err != nil {
		fatal(err)
	}

	hardwareHash := *hardware
	if *bind {
		hardwareHash, err = manager.CurrentHardwareID(ctx)
		if err != nil {
			fatal(err)
		}
	}

	data, err := manager.Generate(ctx, license.LicenseInfo{
		UserID:       *user,
		LicenseID:    *licenseID,
		HardwareHash: hardwareHash,
		Features:     splitFeatures(*features),
		Expiry:       expiresAt,
	})
	if err != nil {
		fatal(err)
	}

	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, append(data, '\n'), 0o600); err != nil {
		fatal(err)
	}
}

func runBatch(ctx context.Context, manager *license.Manager, path, outDir string) error {
	requests, err := batch.ReadWorkbook(path)
	if err != nil {
		return err
	}
	issued, err := batch.Issue(ctx, manager, requests)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, lic := range issued {
		name := fmt.Sprintf("%s-row%d.license", sanitizeName(lic.Request.UserID), lic.Request.Row)
		if err := os.WriteFile(filepath.Join(outDir, name), append(lic.Token, '\n'), 0o600); err != nil {
			return err
		}
	}
	fmt.Printf("issued %d licenses to %s\n", len(issued), outDir)
	return nil
}

func loadSecret(inline, file string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read secret file: %w", err)
		}
		return data, nil
	}
	if env := os.Getenv("LICENSECORE_LICENSE_SECRET"); env != "" {
		return []byte(env), nil
	}
	return nil, fmt.Errorf("a signing secret is required: -secret, -secret-file, or LICENSECORE_LICENSE_SECRET")
}

func parseExpiry(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("-expiry is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t.Add(24*time.Hour - time.Second).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("expiry %q: want RFC 3339 or YYYY-MM-DD", s)
}

func splitFeatures(s string) []string {
	if s == "" {
		return nil
	}
	var features []string
	for _, feature := range strings.Split(s, ",") {
		if feature = strings.TrimSpace(feature); feature != "" {
			features = append(features, feature)
		}
	}
	return features
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "license-generator: %v\n", err)
	os.Exit(1)
}
