// Package source fetches the evaluation spreadsheets and decodes them into frames.
package source

import (
	"fmt"
	"net/url"
	"strings"
)

// SheetType says where a spreadsheet lives.
type SheetType string

// Sheet types.
const (
	// TypeGSheets is a native Google Sheets document, exported as xlsx.
	TypeGSheets SheetType = "gsheets"
	// TypeExcel is an xlsx file stored on Drive, downloaded as is.
	TypeExcel SheetType = "excel"
	// TypeLocal is an xlsx file in the local data directory.
	TypeLocal SheetType = "local"
)

// Engines accepted for xlsx decoding. All of them decode with excelize; the
// other names are kept so existing sheet settings stay valid.
var Engines = []string{"excelize", "openpyxl", "calamine"}

// DriveScope is the OAuth scope requested for Drive downloads.
const DriveScope = "https://www.googleapis.com/auth/drive"

// Default Drive endpoints.
const (
	DefaultExportURL = "https://docs.google.com/spreadsheets/export"
	DefaultFilesURL  = "https://www.googleapis.com/drive/v3/files"
)

// Sheet identifies one worksheet of one spreadsheet.
type Sheet struct {
	// Name is the table name the sheet is loaded under.
	Name string
	// Key is the Drive file id, or a file name for local sheets.
	Key       string
	SheetName string
	Type      SheetType
	Engine    string
}

// Validate checks that the sheet is fully specified.
func (s Sheet) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sheet: name is required")
	}
	if s.Key == "" {
		return fmt.Errorf("sheet %q: key is required", s.Name)
	}
	switch s.Type {
	case TypeGSheets, TypeExcel, TypeLocal:
	default:
		return fmt.Errorf("sheet %q: unknown type %q", s.Name, s.Type)
	}
	if s.Engine != "" && !knownEngine(s.Engine) {
		return fmt.Errorf("sheet %q: unknown engine %q (expected one of %s)", s.Name, s.Engine, strings.Join(Engines, ", "))
	}
	return nil
}

func knownEngine(e string) bool {
	for _, known := range Engines {
		if e == known {
			return true
		}
	}
	return false
}

// DownloadURL returns the Drive URL for a sheet.
func DownloadURL(s Sheet, exportURL, filesURL string) (string, error) {
	switch s.Type {
	case TypeGSheets:
		q := url.Values{}
		q.Set("id", s.Key)
		q.Set("exportFormat", "xlsx")
		return strings.TrimRight(exportURL, "?") + "?" + q.Encode(), nil
	case TypeExcel:
		return strings.TrimRight(filesURL, "/") + "/" + url.PathEscape(s.Key) + "?alt=media", nil
	default:
		return "", fmt.Errorf("sheet %q: type %q is not on Drive", s.Name, s.Type)
	}
}

// DefaultSheets are the evaluation's spreadsheets.
func DefaultSheets() []Sheet {
	return []Sheet{
		{Name: "educadores", Key: "18nRArdEX3ek0iBo-Mu-acmGOUtPNS5OE", SheetName: "Psicométricos", Type: TypeExcel, Engine: "openpyxl"},
		{Name: "estudiantes_g1", Key: "1EyPLSHmoeAloT6MGjk0YPmwASvuKGnztNkmlgjMl8yY", SheetName: "Psicométricos", Type: TypeGSheets, Engine: "calamine"},
		{Name: "estudiantes_g2", Key: "10fpv_VB6G0gV2E5V2wF8jzHl4xSdXrIMo3Mw4imftbk", SheetName: "Psicométricos con items inverso", Type: TypeGSheets, Engine: "calamine"},
		{Name: "fls", Key: "1_WcGc4kFasT19bnnn6MJAEpU0uWQ6SDed8MtLb_0A08", SheetName: "Psicométricos_final", Type: TypeGSheets, Engine: "calamine"},
		{Name: "alcance", Key: "1-0IDiwALcmsTvtQom8l_Y3G-TclKbGIo", SheetName: "Sheet1", Type: TypeExcel, Engine: "openpyxl"},
		{Name: "municipios", Key: "1IFhfq6a5IcE1ZCLs4afmm5nAjrU8TgHH", SheetName: "Sheet1", Type: TypeExcel, Engine: "openpyxl"},
		{Name: "municipios_alcanzados", Key: "1kINeWvQv5yrr62zNKgoXATqJwmosGTVd", SheetName: "Sheet1", Type: TypeExcel, Engine: "openpyxl"},
	}
}
