package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/opencollective/deep-cover/internal/model"
)

func TestReportCmd_PassesArgsToWorkflow(t *testing.T) {
	w := &stubWorkflow{reports: []m.FileReport{{File: "lib/a.rb"}}}
	u := &stubUI{}
	withStubs(t, w, u)

	cmd := baseRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newReportCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "lib", "spec"})

	require.NoError(t, cmd.Execute())

	require.NotNil(t, w.reportArgs)
	assert.Equal(t, []m.Path{"lib", "spec"}, w.reportArgs.Paths)
	assert.NotEmpty(t, w.reportArgs.Counters)
	assert.NotEmpty(t, w.reportArgs.Output)

	require.Len(t, u.reports, 1)
	assert.Equal(t, m.Path("lib/a.rb"), u.reports[0].File)
}

func TestReportCmd_YAMLFormat(t *testing.T) {
	w := &stubWorkflow{reports: []m.FileReport{{File: "lib/a.rb"}}}
	u := &stubUI{}
	withStubs(t, w, u)

	out := &bytes.Buffer{}
	cmd := baseRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newReportCmd())
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "--format", "yaml", "lib"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "rendered 1 reports")
	assert.Empty(t, u.reports, "yaml format bypasses the table UI")
}

func TestReportCmd_UnknownFormat(t *testing.T) {
	w := &stubWorkflow{}
	u := &stubUI{}
	withStubs(t, w, u)

	cmd := baseRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newReportCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "--format", "csv"})

	require.Error(t, cmd.Execute())
}

func TestListCmd_DisplaysInventory(t *testing.T) {
	w := &stubWorkflow{}
	u := &stubUI{}
	withStubs(t, w, u)

	cmd := baseRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"list", "lib"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []m.Path{"lib"}, w.paths)
}

func TestDiffCmd_RequiresTwoArgs(t *testing.T) {
	w := &stubWorkflow{diff: "--- before\n+++ after\n"}
	u := &stubUI{}
	withStubs(t, w, u)

	cmd := baseRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newDiffCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"diff", "only-one"})
	require.Error(t, cmd.Execute())

	cmd.SetArgs([]string{"diff", "before.mpack", "after.mpack"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, u.diff, "+++ after")
}

func TestViewCmd_LoadsStoredReport(t *testing.T) {
	w := &stubWorkflow{reports: []m.FileReport{{File: "a.rb"}, {File: "b.rb"}}}
	u := &stubUI{}
	withStubs(t, w, u)

	cmd := baseRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newViewCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"view"})

	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, w.viewPath)
	assert.Len(t, u.reports, 2)
}

func TestMergeCmd_PassesInputs(t *testing.T) {
	w := &stubWorkflow{}
	u := &stubUI{}
	withStubs(t, w, u)

	cmd := baseRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(newMergeCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"merge"})
	require.Error(t, cmd.Execute(), "merge needs at least one input")

	cmd.SetArgs([]string{"merge", "a.hits", "b.mpack"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, []m.Path{"a.hits", "b.mpack"}, w.mergeInputs)
	assert.NotEmpty(t, w.mergeOutput)
}
