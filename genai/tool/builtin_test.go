package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadWriteFile_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	RegisterBuiltins(r, dir)

	_, err := r.Execute(context.Background(), "write_file", map[string]interface{}{"path": "a.txt", "content": "hello"})
	assert.NoError(t, err)

	out, err := r.Execute(context.Background(), "read_file", map[string]interface{}{"path": "a.txt"})
	assert.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestReadFile_RejectsPathOutsideWorkspace(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	RegisterBuiltins(r, dir)

	_, err := r.Execute(context.Background(), "read_file", map[string]interface{}{"path": "../../etc/passwd"})
	assert.Error(t, err)
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644))
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	r := NewRegistry()
	RegisterBuiltins(r, dir)
	out, err := r.Execute(context.Background(), "list_directory", map[string]interface{}{"path": "."})
	assert.NoError(t, err)
	assert.Contains(t, out, "x.txt")
	assert.Contains(t, out, "sub/")
}

func TestShell_CapturesExitCode(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	RegisterBuiltins(r, dir)

	out, err := r.Execute(context.Background(), "shell", map[string]interface{}{"command": "sh -c 'exit 3'"})
	assert.NoError(t, err)
	assert.Contains(t, out, `"exit_code":3`)
}
