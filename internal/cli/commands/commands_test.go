package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.Contains(t, cmd.Aliases, "ui")

	for _, flag := range []string{"port", "no-browser", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "true", cmd.Flags().Lookup("watch").DefValue)
}

func TestNewSheetsCommand(t *testing.T) {
	cmd := NewSheetsCommand()

	assert.Equal(t, "sheets", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewPagesCommand(t *testing.T) {
	cmd := NewPagesCommand()

	assert.Equal(t, "pages", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewChartsCommand(t *testing.T) {
	cmd := NewChartsCommand()

	assert.Equal(t, "charts <page> [option]", cmd.Use)
	assert.NotNil(t, cmd.ValidArgsFunction)
	assert.Error(t, cmd.Args(cmd, nil), "a page is required")
	assert.Error(t, cmd.Args(cmd, []string{"a", "b", "c"}))
}

func TestNewExportCommand(t *testing.T) {
	cmd := NewExportCommand()

	assert.Equal(t, "export <page> [option]", cmd.Use)
	for _, flag := range []string{"out", "no-png"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "figures", cmd.Flags().Lookup("out").DefValue)
}

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query [SQL]", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("input"))

	var subs []string
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"tables", "schema"}, subs)
}

func TestNewDoctorCommand(t *testing.T) {
	cmd := NewDoctorCommand()

	assert.Equal(t, "doctor", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("format"))
}

func TestCompletePageOptions(t *testing.T) {
	slugs, _ := completePageOptions(&cobra.Command{}, nil, "")
	assert.Equal(t, []string{"beneficiaries", "outcomes"}, slugs)

	options, _ := completePageOptions(&cobra.Command{}, []string{"outcomes"}, "")
	assert.Contains(t, options, "Outcome Summary Table")

	none, _ := completePageOptions(&cobra.Command{}, []string{"nope"}, "")
	assert.Empty(t, none)
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	out, err := execute(t, cmd, args...)
	require.NoError(t, err)
	return out
}
