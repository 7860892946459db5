package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/internal/apperr"
)

func toolDefinitionFrom(name, description string, schema map[string]interface{}) llm.ToolDefinition {
	return llm.ToolDefinition{Name: name, Description: description, Parameters: schema}
}

const maxReadBytes = 10 * 1024 * 1024

// BuiltinResult is the `{output, metadata:{exit_code}}` envelope built-in
// tools return, per §4.6.
type BuiltinResult struct {
	Output   string         `json:"output"`
	Metadata map[string]int `json:"metadata,omitempty"`
}

// resolveWithinWorkspace joins workingDir and rel, rejecting any path that
// escapes workingDir once resolved, per §4.6's security clause.
func resolveWithinWorkspace(workingDir, rel string) (string, error) {
	base, err := filepath.Abs(workingDir)
	if err != nil {
		return "", err
	}
	joined := filepath.Join(base, rel)
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}
	if resolved != base && !strings.HasPrefix(resolved, base+string(filepath.Separator)) {
		return "", apperr.Wrap(apperr.ErrToolExecution, "requested path outside workspace")
	}
	return resolved, nil
}

// RegisterBuiltins wires read_file, write_file, list_directory and shell
// into r, each sandboxed to workingDir, plus json_query, which does not touch
// the filesystem.
func RegisterBuiltins(r *Registry, workingDir string) {
	r.Register(readFileDef, readFileHandler(workingDir))
	r.Register(writeFileDef, writeFileHandler(workingDir))
	r.Register(listDirectoryDef, listDirectoryHandler(workingDir))
	r.Register(shellDef, shellHandler(workingDir))
	r.Register(jsonQueryDef, jsonQueryHandler())
}

var readFileDef = toolDefinitionFrom("read_file", "Read a UTF-8 text file within the session workspace.", map[string]interface{}{
	"type":       "object",
	"properties": map[string]interface{}{"path": map[string]interface{}{"type": "string"}},
	"required":   []interface{}{"path"},
})

func readFileHandler(workingDir string) Handler {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		path, _ := args["path"].(string)
		full, err := resolveWithinWorkspace(workingDir, path)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(full)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "stat %q: %v", path, err)
		}
		if info.Size() > maxReadBytes {
			return "", apperr.Wrap(apperr.ErrToolExecution, "%q exceeds max read size", path)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "read %q: %v", path, err)
		}
		return encodeResult(BuiltinResult{Output: string(data), Metadata: map[string]int{"exit_code": 0}}), nil
	}
}

var writeFileDef = toolDefinitionFrom("write_file", "Write a UTF-8 text file within the session workspace, creating parent directories as needed.", map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"path":    map[string]interface{}{"type": "string"},
		"content": map[string]interface{}{"type": "string"},
	},
	"required": []interface{}{"path", "content"},
})

func writeFileHandler(workingDir string) Handler {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		if len(content) > maxReadBytes {
			return "", apperr.Wrap(apperr.ErrToolExecution, "%q exceeds max write size", path)
		}
		full, err := resolveWithinWorkspace(workingDir, path)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "mkdir for %q: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "write %q: %v", path, err)
		}
		return encodeResult(BuiltinResult{Output: fmt.Sprintf("wrote %d bytes to %s", len(content), path), Metadata: map[string]int{"exit_code": 0}}), nil
	}
}

var listDirectoryDef = toolDefinitionFrom("list_directory", "List entries of a directory within the session workspace.", map[string]interface{}{
	"type":       "object",
	"properties": map[string]interface{}{"path": map[string]interface{}{"type": "string"}},
})

func listDirectoryHandler(workingDir string) Handler {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		path, _ := args["path"].(string)
		full, err := resolveWithinWorkspace(workingDir, path)
		if err != nil {
			return "", err
		}
		entries, err := os.ReadDir(full)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "list %q: %v", path, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		return encodeResult(BuiltinResult{Output: strings.Join(names, "\n"), Metadata: map[string]int{"exit_code": 0}}), nil
	}
}

var shellDef = toolDefinitionFrom("shell", "Run a shell command rooted at the session workspace.", map[string]interface{}{
	"type":       "object",
	"properties": map[string]interface{}{"command": map[string]interface{}{"type": "string"}},
	"required":   []interface{}{"command"},
})

func shellHandler(workingDir string) Handler {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		commandLine, _ := args["command"].(string)
		parts, err := shlex.Split(commandLine)
		if err != nil || len(parts) == 0 {
			return "", apperr.Wrap(apperr.ErrToolExecution, "invalid shell command %q", commandLine)
		}

		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
		cmd.Dir = workingDir
		out, runErr := cmd.CombinedOutput()

		exitCode := 0
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else if runErr != nil {
			return "", apperr.Wrap(apperr.ErrToolExecution, "exec %q: %v", commandLine, runErr)
		}
		return encodeResult(BuiltinResult{Output: string(out), Metadata: map[string]int{"exit_code": exitCode}}), nil
	}
}

func encodeResult(r BuiltinResult) string {
	b, err := json.Marshal(r)
	if err != nil {
		return r.Output
	}
	return string(b)
}
