package media

import (
	"context"
	"sync"

	"github.com/Suwot/max-video-downloader-sub006/internal/ports"
)

// stubRunner scripts tool behavior: Run returns canned output, Stream
// replays canned diagnostic chunks before exiting with a canned status.
type stubRunner struct {
	mu        sync.Mutex
	runStdout []byte
	runErr    error
	runCalls  [][]string

	streamChunks   []string
	streamWaitErr  error
	streamStartErr error
	streamCalls    [][]string

	// onRun lets preview tests produce side effects (the output file).
	onRun func(name string, args []string)
}

func (r *stubRunner) Run(ctx context.Context, name string, args []string) (ports.Result, error) {
	r.mu.Lock()
	r.runCalls = append(r.runCalls, append([]string{name}, args...))
	run := r.onRun
	r.mu.Unlock()
	if run != nil {
		run(name, args)
	}
	return ports.Result{Stdout: r.runStdout}, r.runErr
}

func (r *stubRunner) Stream(ctx context.Context, name string, args []string, onChunk func(string)) (ports.Process, error) {
	r.mu.Lock()
	r.streamCalls = append(r.streamCalls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.streamStartErr != nil {
		return nil, r.streamStartErr
	}
	return &stubProcess{chunks: r.streamChunks, onChunk: onChunk, waitErr: r.streamWaitErr}, nil
}

func (r *stubRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runCalls)
}

func (r *stubRunner) streamCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streamCalls)
}

type stubProcess struct {
	chunks  []string
	onChunk func(string)
	waitErr error
}

// Wait delivers the scripted chunks in order, then reports the exit
// status, matching the ordering guarantee of the real runner.
func (p *stubProcess) Wait() error {
	for _, c := range p.chunks {
		p.onChunk(c)
	}
	return p.waitErr
}

// recordingSink captures every message the code under test emits.
type recordingSink struct {
	mu   sync.Mutex
	msgs []any
}

func (s *recordingSink) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSink) all() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any{}, s.msgs...)
}

// stubPaths resolves everything into one test directory.
type stubPaths struct {
	dir string
}

func (p stubPaths) FFmpeg() string  { return "ffmpeg" }
func (p stubPaths) FFprobe() string { return "ffprobe" }
func (p stubPaths) SaveDir() string { return p.dir }
func (p stubPaths) TempDir() string { return p.dir }
