package webhook

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Runner starts a deployment.
type Runner interface {
	Run(ctx context.Context) error
}

// ScriptRunner runs a deployment script through a shell.
type ScriptRunner struct {
	Shell  string
	Script string
	logger *zap.Logger
}

// NewScriptRunner returns a runner executing "shell script".
func NewScriptRunner(shell, script string, logger *zap.Logger) *ScriptRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptRunner{Shell: shell, Script: script, logger: logger}
}

// Run executes the script and waits for it. The script is not tied to ctx's
// cancellation and has no timeout; ctx only carries values.
func (r *ScriptRunner) Run(ctx context.Context) error {
	cmd := exec.CommandContext(context.WithoutCancel(ctx), r.Shell, r.Script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.logger.Warn("deployment script failed",
			zap.String("script", r.Script),
			zap.ByteString("output", tail(out, 2048)),
			zap.Error(err))
		return fmt.Errorf("run %s: %w", r.Script, err)
	}
	r.logger.Info("deployment script finished", zap.String("script", r.Script))
	return nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
