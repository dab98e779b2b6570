package ports

import "context"

// Result holds the captured output of a completed tool invocation.
type Result struct {
	// Stdout is the full standard output of the process.
	Stdout []byte

	// Stderr is the full standard error of the process.
	Stderr []byte
}

// Process is a handle to a running external tool.
type Process interface {
	// Wait blocks until the process exits. It returns nil on a zero exit
	// status and an error describing the failure otherwise.
	Wait() error
}

// Runner launches external tool processes (ffmpeg, ffprobe).
// Implementations must not inherit the host's stdout, which is reserved
// for protocol frames.
type Runner interface {
	// Run executes the tool and waits for it to finish, capturing output.
	// A non-zero exit status is returned as an error alongside whatever
	// output was captured before exit.
	Run(ctx context.Context, name string, args []string) (Result, error)

	// Stream starts the tool and delivers its diagnostic (stderr) output
	// to onChunk as it arrives, in order. onChunk is called from a single
	// goroutine. Wait on the returned Process reports the exit status
	// after the output stream has drained.
	Stream(ctx context.Context, name string, args []string, onChunk func(chunk string)) (Process, error)
}
