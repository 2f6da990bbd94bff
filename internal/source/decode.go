package source

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/leapstack-labs/evaldash/internal/frame"
)

// DecodeXLSX reads one worksheet of an xlsx workbook. The first row is the
// header. An empty sheet name selects the first worksheet.
func DecodeXLSX(data []byte, sheet string) (*frame.Frame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		sheet = list[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return frame.Empty(), nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = norm.NFC.String(strings.TrimSpace(h))
		if header[i] == "" {
			header[i] = "column" + strconv.Itoa(i+1)
		}
	}
	header = dedupeHeader(header)

	body := make([][]any, 0, len(rows)-1)
	for _, r := range rows[1:] {
		row := make([]any, len(header))
		blank := true
		for i := 0; i < len(r) && i < len(header); i++ {
			row[i] = parseCell(r[i])
			if row[i] != nil {
				blank = false
			}
		}
		if !blank {
			body = append(body, row)
		}
	}
	return frame.New(header, body), nil
}

// dedupeHeader renames repeated column names to name.1, name.2, ... in
// order of appearance, skipping suffixes that are already taken.
func dedupeHeader(header []string) []string {
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			out[i] = h
			continue
		}
		name := h + "." + strconv.Itoa(n)
		for taken[name] {
			n++
			name = h + "." + strconv.Itoa(n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}

// parseCell types a cell: int, then float, then bool, then NFC text.
// Empty and "nan" cells are nil.
func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return norm.NFC.String(s)
}
