package output

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTest(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeText, false, ModeText},
		{ModeMarkdown, true, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		r, _, _ := newTest(tt.mode, tt.isTTY)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode=%q tty=%v", tt.mode, tt.isTTY)
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestMarkdownOutput(t *testing.T) {
	r, out, errOut := newTest(ModeMarkdown, false)

	r.Header(1, "Compile")
	r.StatusLine(StatusSuccess, "metrics/orders.yml", "-> models/orders_semantic_models.yml")
	r.StatusLine(StatusFailed, "metrics/bad.yml", "")
	r.Success("done")
	r.Muted("note")
	r.Warning("careful")

	got := out.String()
	assert.Contains(t, got, "# Compile\n\n")
	assert.Contains(t, got, "- **ok** `metrics/orders.yml` -> models/orders_semantic_models.yml\n")
	assert.Contains(t, got, "- **failed** `metrics/bad.yml`\n")
	assert.Contains(t, got, "**done**\n")
	assert.Contains(t, got, "_note_\n")
	assert.Equal(t, "> **Warning:** careful\n", errOut.String())
	assert.False(t, ansiPattern.MatchString(got))
}

func TestTextOutput(t *testing.T) {
	r, out, _ := newTest(ModeText, true)

	r.Header(2, "Files")
	r.StatusLine(StatusSuccess, "a.yml", "2 metrics")
	r.StatusLine(StatusSkipped, "b.yml", "")

	got := ansiPattern.ReplaceAllString(out.String(), "")
	assert.Contains(t, got, "Files\n")
	assert.Contains(t, got, "✓ a.yml")
	assert.Contains(t, got, "2 metrics")
	assert.Contains(t, got, "- b.yml")
}

func TestTable(t *testing.T) {
	header := []string{"File", "Metrics"}
	rows := [][]string{{"orders.yml", "2"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTest(ModeMarkdown, false)
		r.Table(header, rows)
		assert.Contains(t, strings.ToLower(out.String()), "| file | metrics |")
		assert.Contains(t, out.String(), "| orders.yml | 2 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTest(ModeText, true)
		r.Table(header, rows)
		assert.Contains(t, out.String(), "orders.yml")
		assert.Contains(t, out.String(), "┌")
	})
}

func TestJSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)

	require.NoError(t, r.JSON(ListOutput{
		InputDirectories: []string{"metrics"},
		Units:            []UnitInfo{{Path: "metrics/a.yml", Metrics: 1, Target: "models/a_semantic_models.yml"}},
		Summary:          ListSummary{Units: 1, Metrics: 1},
	}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, []any{"metrics"}, decoded["input_directories"])
	assert.NotContains(t, decoded, "missing_directories")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Units", FormatHeader(2, "Units"))
	assert.Equal(t, "# Units", FormatHeader(0, "Units"))
	assert.Equal(t, "- **Run ID:** abc", FormatKeyValue("Run ID", "abc"))
}
