package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTextLoader_LoadTxtFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	writeFile(t, path, "Hello World")

	doc, err := NewTextLoader().Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", doc.Content)
	assert.Equal(t, "test.txt", doc.Name)
	assert.Equal(t, generateDocID(path), doc.ID)
}

func TestTextLoader_RejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin.txt")
	writeFile(t, path, string([]byte{0xff, 0xfe, 0xfd}))

	_, err := NewTextLoader().Load(context.Background(), path)
	assert.Error(t, err)
}

func TestTextLoader_SupportedExtensions(t *testing.T) {
	assert.Equal(t, DefaultExtensions, NewTextLoader().SupportedExtensions())
	assert.Equal(t, []string{".rst"}, NewTextLoader(".rst").SupportedExtensions())
}

func TestDirectorySource_OrderAndFilter(t *testing.T) {
	root := t.TempDir()
	policies := filepath.Join(root, "policies")
	incidents := filepath.Join(root, "incidents")
	writeFile(t, filepath.Join(policies, "b.md"), "beta")
	writeFile(t, filepath.Join(policies, "a.txt"), "alpha")
	writeFile(t, filepath.Join(policies, "notes.json"), "{}")
	writeFile(t, filepath.Join(policies, "nested", "c.txt"), "nested")
	writeFile(t, filepath.Join(incidents, "0.txt"), "zero")

	src := NewDirectorySource([]string{policies, filepath.Join(root, "missing"), incidents}, nil, nil)
	docs, err := src.Documents(context.Background())
	require.NoError(t, err)

	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.md", "0.txt"}, names); diff != "" {
		t.Errorf("document order mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectorySource_EmptyCorpus(t *testing.T) {
	src := NewDirectorySource([]string{filepath.Join(t.TempDir(), "nope")}, nil, nil)
	docs, err := src.Documents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDirectorySource_UppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.MD"), "readme")

	docs, err := NewDirectorySource([]string{dir}, nil, nil).Documents(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
