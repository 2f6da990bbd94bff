package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Workbook builds an xlsx file holding rows (header first) in one named sheet.
func Workbook(t testing.TB, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteDataset writes a small copy of every evaluation sheet to a temporary
// directory as <name>.xlsx and returns the directory.
func WriteDataset(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()

	effects := func(rows ...[]any) [][]any {
		header := []any{"Constructo", "Medición inglés", "D-cohen", "Significancia", "Comportamiento", "conf.low", "conf.high", "Subanálisis", "Pre", "Post"}
		return append([][]any{header}, rows...)
	}

	files := map[string]struct {
		sheet string
		rows  [][]any
	}{
		"alcance": {"Sheet1", [][]any{
			{"Entidad", "Prioridad", "Email", "Tipo", "Implementación", "Ben_directo", "Municipio", "Centro de trabajo", "Centro de trabajo verificado", "Tipo_cct"},
			{"Campeche", "Priority 1", "a@x.mx", "Professionals", "Educadores", 1, "Calakmul", "04DPR0001", true, "Escuela"},
			{"Campeche", "Priority 2", "b@x.mx", "Teenagers", "Estudiantes", 25, "Hopelchén", "04DPR0002", false, "Escuela"},
			{"Yucatán", "Other", "c@x.mx", "Teenagers", "Estudiantes", 1, "Mérida", "31DPR0003", true, "Escuela"},
			{"Quintana Roo", "Authorized Extension", "d@x.mx", "Systemic Leadership Training", "Educadores", 1, "Felipe Carrillo Puerto", "23DPR0004", true, "Oficina"},
		}},
		"municipios": {"Sheet1", [][]any{
			{"Municipio", "Prioridad"},
			{"Calakmul", "Priority 1"},
			{"Hopelchén", "Priority 2"},
			{"Tizimín", "Priority 1"},
		}},
		"municipios_alcanzados": {"Sheet1", [][]any{
			{"Municipio"},
			{"Calakmul"},
			{"Hopelchén"},
		}},
		"educadores": {"Psicométricos", effects(
			[]any{"Prosocialidad", "Pre-Post", 0.412, "*", "Significativo/sentido esperado", 0.1, 0.7},
			[]any{"Autoconocimiento", "Pre-Post", 0.05, nil, "No significativo/sentido esperado", -0.2, 0.3},
		)},
		"fls": {"Psicométricos_final", effects(
			[]any{"Bienestar psicológico", "Pre-Post", 0.3, "**", "Significativo/sentido esperado", 0.1, 0.5},
		)},
		"estudiantes_g1": {"Psicométricos", effects(
			[]any{"Regulación emocional", "Pre-Post", -0.25, "*", "Significativo/sentido contrario", -0.4, -0.1},
		)},
		"estudiantes_g2": {"Psicométricos con items inverso", effects(
			[]any{"Malestar psicológico", "Pre-Post", 0.1, nil, "No significativo/sentido esperado", -0.1, 0.3, "Todos-as 1+ CA", "inicial", "final"},
			[]any{"Malestar psicológico", "Pre-Seg", 0.6, "***", "Significativo/sentido esperado", 0.4, 0.8, "Otro", "inicial", "seguimiento"},
		)},
	}

	for name, f := range files {
		path := filepath.Join(dir, name+".xlsx")
		if err := os.WriteFile(path, Workbook(t, f.sheet, f.rows), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}
