package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlagSet mirrors the persistent flags registered by the root command.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringSliceP("input-dir", "i", nil, "")
	fs.StringP("output-dir", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Bool("no-validate", false, "")
	fs.IntP("workers", "j", 0, "")
	fs.StringP("format", "f", "", "")
	fs.String("config", "", "")
	return fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// setupProject creates an empty project directory and makes it the CWD.
func setupProject(t *testing.T) string {
	t.Helper()
	ResetConfig()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Chdir(dir)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := setupProject(t)

	cfg, err := LoadConfig("", newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, []string{
		filepath.Join(dir, "metrics"),
		filepath.Join(dir, "semantic_models"),
		filepath.Join(dir, "models", "metrics"),
	}, cfg.InputDirectories)
	assert.Equal(t, filepath.Join(dir, "models"), cfg.OutputDirectory)
	assert.True(t, cfg.ValidateSchema)
	assert.False(t, cfg.VerboseLogging)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, FormatAuto, cfg.OutputFormat)
	assert.Empty(t, GetConfigFileUsed())
	assert.Empty(t, GetDbtProjectUsed())
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := setupProject(t)
	writeFile(t, filepath.Join(dir, "dbt_project.yml"), `
name: shop
vars:
  dbt_metrics_first:
    output_directory: from_dbt
    workers: 2
    verbose_logging: true
`)
	writeFile(t, filepath.Join(dir, "metrics_first.yml"), `
output_directory: from_file
workers: 4
`)

	t.Run("config file over dbt vars", func(t *testing.T) {
		cfg, err := LoadConfig("", newFlagSet())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "from_file"), cfg.OutputDirectory)
		assert.Equal(t, 4, cfg.Workers)
		assert.True(t, cfg.VerboseLogging)
		assert.Equal(t, filepath.Join(dir, "metrics_first.yml"), GetConfigFileUsed())
		assert.Equal(t, filepath.Join(dir, "dbt_project.yml"), GetDbtProjectUsed())
	})

	t.Run("env over config file", func(t *testing.T) {
		t.Setenv("METRICS_FIRST_WORKERS", "6")
		t.Setenv("METRICS_FIRST_INPUT_DIRECTORIES", "defs, more_defs,")
		cfg, err := LoadConfig("", newFlagSet())
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Workers)
		assert.Equal(t, []string{
			filepath.Join(dir, "defs"),
			filepath.Join(dir, "more_defs"),
		}, cfg.InputDirectories)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("METRICS_FIRST_WORKERS", "6")
		fs := newFlagSet()
		require.NoError(t, fs.Parse([]string{"-j", "8", "--no-validate", "-f", "json"}))
		cfg, err := LoadConfig("", fs)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Workers)
		assert.False(t, cfg.ValidateSchema)
		assert.Equal(t, FormatJSON, cfg.OutputFormat)
	})

	t.Run("unchanged flags keep lower layers", func(t *testing.T) {
		fs := newFlagSet()
		require.NoError(t, fs.Parse(nil))
		cfg, err := LoadConfig("", fs)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Workers)
		assert.True(t, cfg.ValidateSchema)
	})
}

func TestLoadConfig_DirectoryFlagsRelativeToCWD(t *testing.T) {
	dir := setupProject(t)
	writeFile(t, filepath.Join(dir, "metrics_first.yml"), "output_directory: gen\n")
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0750))
	t.Chdir(sub)

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"-i", "a,b", "--input-dir", "c", "-o", "out"}))
	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	// The project root is found upward, but flag paths resolve from CWD.
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, []string{
		filepath.Join(sub, "a"),
		filepath.Join(sub, "b"),
		filepath.Join(sub, "c"),
	}, cfg.InputDirectories)
	assert.Equal(t, filepath.Join(sub, "out"), cfg.OutputDirectory)
}

func TestLoadConfig_ExplicitConfigFile(t *testing.T) {
	setupProject(t)
	other, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	cfgPath := filepath.Join(other, "settings.yaml")
	writeFile(t, cfgPath, "input_directories: [defs]\noutput_directory: /abs/out\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, other, cfg.ProjectRoot)
	assert.Equal(t, []string{filepath.Join(other, "defs")}, cfg.InputDirectories)
	assert.Equal(t, "/abs/out", cfg.OutputDirectory)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		errSubstr string
	}{
		{
			name:      "negative workers",
			file:      "workers: -1\n",
			errSubstr: "workers must not be negative",
		},
		{
			name:      "unknown format",
			file:      "output: html\n",
			errSubstr: `unknown output format "html"`,
		},
		{
			name:      "empty input list",
			file:      "input_directories: []\n",
			errSubstr: "input_directories must list at least one directory",
		},
		{
			name:      "malformed file",
			file:      "workers: [1\n",
			errSubstr: "error reading config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupProject(t)
			writeFile(t, filepath.Join(dir, "metrics_first.yml"), tt.file)

			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			ProjectConfig: ProjectConfig{
				InputDirectories: []string{"metrics"},
				OutputDirectory:  "models",
			},
			OutputFormat: FormatText,
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.InputDirectories = []string{"metrics", " "}
	assert.ErrorContains(t, cfg.Validate(), "input_directories[1] is empty")

	cfg = valid()
	cfg.OutputDirectory = ""
	assert.ErrorContains(t, cfg.Validate(), "output_directory is required")

	cfg = valid()
	cfg.OutputFormat = ""
	assert.NoError(t, cfg.Validate())
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := GetLogger(context.Background())
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestResolvePathRelativeTo(t *testing.T) {
	assert.Equal(t, "", resolvePathRelativeTo("", "/base"))
	assert.Equal(t, "/abs", resolvePathRelativeTo("/abs", "/base"))
	assert.Equal(t, filepath.Join("/base", "rel"), resolvePathRelativeTo("rel", "/base"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b ,"))
	assert.Nil(t, splitList(""))
}

func TestGetConfig(t *testing.T) {
	assert.Nil(t, GetConfig(context.Background()))

	cfg := &Config{Workers: 3}
	ctx := context.WithValue(context.Background(), ConfigKey(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}
