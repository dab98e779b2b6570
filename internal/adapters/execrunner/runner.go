// Package execrunner implements ports.Runner on top of os/exec.
package execrunner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/Suwot/max-video-downloader-sub006/internal/logging"
	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
)

// Runner launches external tools. The child never inherits the host's
// stdout, which carries protocol frames.
type Runner struct {
	log logging.Logger
}

// New creates a Runner.
func New(log logging.Logger) *Runner {
	if log == nil {
		log = logging.NewNoopLogger()
	}
	return &Runner{log: log}
}

// Run executes the tool to completion, capturing both output streams.
func (r *Runner) Run(ctx context.Context, name string, args []string) (ports.Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("running tool", logging.String("bin", name), logging.Int("args", len(args)))
	err := cmd.Run()
	res := ports.Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// Stream starts the tool and forwards its stderr to onChunk from a single
// reader goroutine. Wait drains the stream before reporting exit status, so
// the caller sees every chunk before the terminal result.
func (r *Runner) Stream(ctx context.Context, name string, args []string, onChunk func(string)) (ports.Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: stderr pipe: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	r.log.Debug("started tool", logging.String("bin", name), logging.Int("pid", cmd.Process.Pid))

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		buf := make([]byte, 4096)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				onChunk(string(buf[:n]))
			}
			if err != nil {
				return
			}
		}
	}()

	return &process{cmd: cmd, drained: drained}, nil
}

type process struct {
	cmd     *exec.Cmd
	drained chan struct{}
}

func (p *process) Wait() error {
	<-p.drained
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w", p.cmd.Path, err)
	}
	return nil
}
