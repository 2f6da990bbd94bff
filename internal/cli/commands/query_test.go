package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/evaldash/internal/cli/testutil"
	"github.com/leapstack-labs/evaldash/internal/frame"
)

func TestQueryCommand_Formats(t *testing.T) {
	clitest.SetupTestProject(t)
	const q = "SELECT Entidad, COUNT(*) AS n FROM alcance GROUP BY Entidad ORDER BY Entidad;"

	t.Run("json", func(t *testing.T) {
		out := mustExecute(t, NewQueryCommand(), q, "--format", "json")

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 3)
		assert.Equal(t, "Campeche", rows[0]["Entidad"])
		assert.InDelta(t, 2, rows[0]["n"], 0)
	})

	t.Run("csv", func(t *testing.T) {
		out := mustExecute(t, NewQueryCommand(), q, "--format", "csv")
		assert.Contains(t, out, "Campeche,2")
		assert.Contains(t, out, "Yucatán,1")
	})

	t.Run("markdown", func(t *testing.T) {
		out := mustExecute(t, NewQueryCommand(), q, "--format", "md")
		assert.Contains(t, out, "| Campeche")
		clitest.AssertNoANSI(t, out)
	})

	t.Run("table", func(t *testing.T) {
		out := mustExecute(t, NewQueryCommand(), q)
		assert.Contains(t, out, "Quintana Roo")
		assert.Contains(t, out, "(3 rows)")
	})
}

func TestQueryCommand_InputFile(t *testing.T) {
	clitest.SetupTestProject(t)
	path := filepath.Join(t.TempDir(), "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT COUNT(*) AS n FROM municipios"), 0o600))

	out := mustExecute(t, NewQueryCommand(), "--input", path, "--format", "csv")
	assert.Contains(t, out, "3")
}

func TestQueryCommand_Errors(t *testing.T) {
	clitest.SetupTestProject(t)

	_, err := execute(t, NewQueryCommand(), "SELECT * FROM nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")

	_, err = execute(t, NewQueryCommand(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SQL given")
}

func TestQueryTablesCommand(t *testing.T) {
	clitest.SetupTestProject(t)

	out := mustExecute(t, NewQueryCommand(), "tables", "--format", "json")

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	var names []string
	for _, r := range rows {
		names = append(names, r["name"].(string))
	}
	assert.Contains(t, names, "alcance")
	assert.Contains(t, names, "estudiantes_g2")
}

func TestQuerySchemaCommand(t *testing.T) {
	clitest.SetupTestProject(t)

	out := mustExecute(t, NewQueryCommand(), "schema", "municipios")
	assert.Contains(t, out, "Table: municipios")
	assert.Contains(t, out, "Municipio")
	assert.Contains(t, out, "Prioridad")

	_, err := execute(t, NewQueryCommand(), "schema", "nope")
	assert.Error(t, err)
}

func TestRenderFrame_Empty(t *testing.T) {
	f := frame.New([]string{"a"}, nil)

	for _, format := range []string{"table", "md"} {
		var buf bytes.Buffer
		require.NoError(t, renderFrame(&buf, f, format))
		assert.Equal(t, "(0 rows)\n", buf.String(), format)
	}

	var buf bytes.Buffer
	require.NoError(t, renderFrame(&buf, f, "json"))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "abc", formatValue("abc"))
}

func TestNewTableCompleter(t *testing.T) {
	c := newTableCompleter([]string{"alcance", "fls"})

	var names []string
	for _, child := range c.GetChildren() {
		names = append(names, strings.TrimSpace(string(child.GetName())))
	}
	assert.Contains(t, names, "alcance")
	assert.Contains(t, names, ".schema")
	assert.Contains(t, names, ".quit")
}
