package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecTransport runs a worker command per task, writing the task document to its stdin and
// reading the response document from its stdout.
type ExecTransport struct {
	Path string
	Args []string
}

var _ Transport = &ExecTransport{}

func (t *ExecTransport) RoundTrip(ctx context.Context, doc []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.Path, t.Args...)
	cmd.Stdin = bytes.NewReader(doc)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("worker %s: %w: %s", t.Path, err, msg)
		}
		return nil, fmt.Errorf("worker %s: %w", t.Path, err)
	}
	return stdout.Bytes(), nil
}
