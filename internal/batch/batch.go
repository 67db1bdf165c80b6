// Package batch issues license tokens in bulk from an Excel worksheet, the
// format license operations teams actually hand over. One row per license:
//
//	user_id | expiry | features | hardware_hash
//
// expiry accepts RFC 3339 or a bare YYYY-MM-DD date (expanded to end of day
// UTC); features is a comma-separated list; hardware_hash defaults to the
// wildcard when blank. The first row is a header and is skipped.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Vlad-tdk/LicenseCore/internal/license"
)

// Request is one worksheet row, parsed.
type Request struct {
	Row          int
	UserID       string
	Expiry       time.Time
	Features     []string
	HardwareHash string
}

// Issued pairs a request with its signed token.
type Issued struct {
	Request Request
	Token   []byte
}

const dateOnlyLayout = "2006-01-02"

// ReadWorkbook parses the first sheet of the workbook at path into issuance
// requests. Fully empty rows are skipped; a malformed row is an error naming
// its row number.
func ReadWorkbook(path string) ([]Request, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var requests []Request
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if isEmptyRow(row) {
			continue
		}
		req, err := parseRow(i+1, row)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func parseRow(rowNum int, row []string) (Request, error) {
	req := Request{Row: rowNum, HardwareHash: license.Wildcard}

	if len(row) < 2 {
		return req, fmt.Errorf("row %d: need at least user_id and expiry", rowNum)
	}

	req.UserID = strings.TrimSpace(row[0])
	if req.UserID == "" {
		return req, fmt.Errorf("row %d: user_id is empty", rowNum)
	}

	expiry, err := parseExpiry(strings.TrimSpace(row[1]))
	if err != nil {
		return req, fmt.Errorf("row %d: %w", rowNum, err)
	}
	req.Expiry = expiry

	if len(row) > 2 {
		for _, feature := range strings.Split(row[2], ",") {
			if feature = strings.TrimSpace(feature); feature != "" {
				req.Features = append(req.Features, feature)
			}
		}
	}
	if len(row) > 3 {
		if hash := strings.TrimSpace(row[3]); hash != "" {
			req.HardwareHash = hash
		}
	}
	return req, nil
}

func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t.Add(24*time.Hour - time.Second).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("expiry %q: want RFC 3339 or YYYY-MM-DD", s)
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Issue generates a signed token for every request through the facade.
// Issuance stops at the first failing row.
func Issue(ctx context.Context, manager *license.Manager, requests []Request) ([]Issued, error) {
	issued := make([]Issued, 0, len(requests))
	for _, req := range requests {
		data, err := manager.Generate(ctx, license.LicenseInfo{
			UserID:       req.UserID,
			HardwareHash: req.HardwareHash,
			Features:     req.Features,
			Expiry:       req.Expiry,
		})
		if err != nil {
			return issued, fmt.Errorf("row %d (%s): %w", req.Row, req.UserID, err)
		}
		issued = append(issued, Issued{Request: req, Token: data})
	}
	return issued, nil
}
