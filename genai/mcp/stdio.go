package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/viant/agentrt/internal/apperr"
)

// stdioTransport launches command as a subprocess and speaks JSON-RPC, one
// message per line, over its stdin/stdout. Submission is serialized: one
// request is written and awaited at a time, matching §4.7's "stdio
// serializes in submission order".
type stdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan Response
	closed  bool
}

func newStdioTransport(command string, args []string, env map[string]string) (*stdioTransport, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp stdio: stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp stdio: stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp stdio: stderr pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp stdio: start %q: %v", command, err)
	}

	t := &stdioTransport{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewScanner(stdout),
		pending: make(map[int64]chan Response),
	}
	t.stdout.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	go t.readLoop()
	go drainStderr(stderr)
	return t, nil
}

// drainStderr reads the subprocess's stderr stream and discards it, so the
// pipe never fills; stderr is never parsed as protocol traffic, per §4.7.
// Nothing is logged.
func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// Lines are discarded here; a caller with a Tracer can wrap this
		// transport to surface them as debug events.
		_ = scanner.Text()
	}
}

func (t *stdioTransport) readLoop() {
	defer t.failAllPending(apperr.Wrap(apperr.ErrConnectionClosed, "mcp stdio: connection closed"))
	for t.stdout.Scan() {
		line := t.stdout.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		t.mu.Lock()
		ch, ok := t.pending[resp.ID]
		if ok {
			delete(t.pending, resp.ID)
		}
		t.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (t *stdioTransport) failAllPending(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.pending {
		ch <- Response{ID: id, Error: &RPCError{Code: -32000, Message: err.Error()}}
		delete(t.pending, id)
	}
}

func (t *stdioTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Response{}, apperr.Wrap(apperr.ErrConnectionClosed, "mcp stdio: connection closed")
	}
	ch := make(chan Response, 1)
	t.pending[req.ID] = ch
	t.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("mcp stdio: marshal request: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := t.stdin.Write(payload); err != nil {
		return Response{}, apperr.Wrap(apperr.ErrMCPRequestFailed, "mcp stdio: write: %v", err)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, req.ID)
		t.mu.Unlock()
		return Response{}, apperr.Wrap(apperr.ErrTimeout, "mcp stdio: %v", ctx.Err())
	}
}

func (t *stdioTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	_ = t.stdin.Close()
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return t.cmd.Wait()
}
