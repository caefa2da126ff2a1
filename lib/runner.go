package wallpaperlib

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Upper bound for one-off queries made outside of a cycle
const toolTimeout = 30 * time.Second

// Runner runs external tools. Every tool this program drives goes through it.
type Runner interface {
	// Run executes name with args and returns its standard output
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// LookPath reports whether name is an executable on $PATH
	LookPath(name string) bool
}

type execRunner struct {
	log *zap.Logger
}

func NewRunner(log *zap.Logger) Runner {
	return &execRunner{log: log}
}

func (r *execRunner) Run(
	ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = sysProcAttr
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("Running command",
		zap.String("command", name),
		zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.Bytes(), fmt.Errorf("%s failed: %w", name, err)
		}
		return stdout.Bytes(), fmt.Errorf("%s failed: %w (stderr: %s)", name, err, msg)
	}

	return stdout.Bytes(), nil
}

func (r *execRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
