package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rdwburns/dbt-metrics-first/internal/cli/config"
	"github.com/Rdwburns/dbt-metrics-first/internal/cli/output"
	"github.com/Rdwburns/dbt-metrics-first/internal/cli/testutil"
)

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_DefaultsToCompile(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Chdir(root)

	out, _, err := runRoot(t, "--format", "json")
	require.NoError(t, err)

	var report output.RunOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"models/orders_semantic_models.yml"}, report.OutputFiles)
	assert.FileExists(t, filepath.Join(root, "models", "orders_semantic_models.yml"))
}

func TestRoot_FlagsOverrideConfigFile(t *testing.T) {
	root := testutil.SetupTestProject(t)
	testutil.WriteFile(t, filepath.Join(root, "metrics_first.yml"), "output_directory: from_file\n")
	t.Chdir(root)

	_, _, err := runRoot(t, "compile", "-i", "metrics", "-o", "generated", "-f", "markdown")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "generated", "orders_semantic_models.yml"))
	assert.NoDirExists(t, filepath.Join(root, "from_file"))
}

func TestRoot_ConfigFileAndVerboseLogging(t *testing.T) {
	root := testutil.SetupTestProject(t)
	testutil.WriteFile(t, filepath.Join(root, "metrics_first.yml"), "output_directory: from_file\n")
	t.Chdir(root)

	_, errOut, err := runRoot(t, "validate", "-v", "-f", "markdown")
	require.NoError(t, err)

	assert.Contains(t, errOut, "level=DEBUG")
	assert.Contains(t, errOut, "using config file")
	assert.NoDirExists(t, filepath.Join(root, "from_file"))
}

func TestRoot_InvalidFormat(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Chdir(root)

	_, _, err := runRoot(t, "list", "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "html"`)
}

func TestRoot_FailedFileReturnsError(t *testing.T) {
	root := testutil.SetupTestProject(t)
	testutil.WriteFile(t, filepath.Join(root, "metrics", "empty.yml"), "version: 1\nmetrics: []\n")
	t.Chdir(root)

	_, _, err := runRoot(t, "-f", "markdown")
	require.Error(t, err)
	assert.Equal(t, "1 of 2 files failed", err.Error())
}

func TestRoot_VersionSkipsConfig(t *testing.T) {
	root := testutil.SetupTestProject(t)
	testutil.WriteFile(t, filepath.Join(root, "metrics_first.yml"), "workers: -3\n")
	t.Chdir(root)

	out, _, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "metricsfirst v"+Version)
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := runRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "metricsfirst")
}
