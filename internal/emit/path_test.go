package emit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Target(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "models")
	metrics := filepath.Join(root, "metrics")

	tests := []struct {
		name   string
		inputs []string
		file   string
		want   string
	}{
		{
			name:   "flat file in root",
			inputs: []string{metrics},
			file:   filepath.Join(metrics, "revenue.yml"),
			want:   filepath.Join(out, "revenue_semantic_models.yml"),
		},
		{
			name:   "nested file keeps directory",
			inputs: []string{metrics},
			file:   filepath.Join(metrics, "finance", "q1", "revenue.yaml"),
			want:   filepath.Join(out, "finance", "q1", "revenue_semantic_models.yml"),
		},
		{
			name:   "file outside every root is flat",
			inputs: []string{metrics},
			file:   filepath.Join(root, "elsewhere", "deep", "ops.yml"),
			want:   filepath.Join(out, "ops_semantic_models.yml"),
		},
		{
			name:   "first matching root wins",
			inputs: []string{root, metrics},
			file:   filepath.Join(metrics, "revenue.yml"),
			want:   filepath.Join(out, "metrics", "revenue_semantic_models.yml"),
		},
		{
			name:   "more specific root listed first",
			inputs: []string{metrics, root},
			file:   filepath.Join(metrics, "revenue.yml"),
			want:   filepath.Join(out, "revenue_semantic_models.yml"),
		},
		{
			name:   "sibling with shared prefix is not contained",
			inputs: []string{metrics},
			file:   filepath.Join(root, "metrics_old", "sub", "legacy.yml"),
			want:   filepath.Join(out, "legacy_semantic_models.yml"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.inputs, out).Target(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_ResolveCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	metrics := filepath.Join(root, "metrics")
	out := filepath.Join(root, "models")
	r := NewResolver([]string{metrics}, out)
	file := filepath.Join(metrics, "finance", "revenue.yml")

	target, err := r.Target(file)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Dir(target))
	assert.True(t, os.IsNotExist(err), "Target must not create directories")

	got, err := r.Resolve(file)
	require.NoError(t, err)
	assert.Equal(t, target, got)
	info, err := os.Stat(filepath.Dir(got))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	again, err := r.Resolve(file)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestResolver_ResolveFailsWhenParentIsFile(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "models")
	require.NoError(t, os.WriteFile(out, []byte("not a dir"), 0600))

	_, err := NewResolver([]string{root}, out).Resolve(filepath.Join(root, "revenue.yml"))
	assert.Error(t, err)
}
