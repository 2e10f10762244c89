package ocr

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Command is one external program invocation. Arguments are passed as a list
// and never through a shell.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Outcome classifies how an external command ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeToolMissing
	OutcomeNonZeroExit
	OutcomeTimeout
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeToolMissing:
		return "tool-missing"
	case OutcomeNonZeroExit:
		return "non-zero-exit"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "failed"
	}
}

// Result is what a Runner reports back for one Command.
type Result struct {
	Outcome  Outcome
	Stdout   []byte
	Stderr   []byte
	Err      error
	Duration time.Duration
}

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner(logger *slog.Logger) Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return execRunner{logger: logger}
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, c Command) Result {
	start := time.Now()
	r.logger.Debug("running command", "cmd_line", c.String())

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	res := Result{
		Outcome:  classify(ctx, err),
		Stdout:   out.Bytes(),
		Stderr:   errb.Bytes(),
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		r.logger.Error("exec failed",
			"cmd", c.Name,
			"outcome", res.Outcome.String(),
			"duration_ms", res.Duration.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10), // cap at 8KB
		)
	} else {
		r.logger.Debug("exec ok",
			"cmd", c.Name,
			"args", strings.Join(c.Args, " "),
			"duration_ms", res.Duration.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
	}
	return res
}

func classify(ctx context.Context, err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	// a killed process reports an ExitError, so the deadline is checked first
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return OutcomeToolMissing
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return OutcomeNonZeroExit
	}
	return OutcomeFailed
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
