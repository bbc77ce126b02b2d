package exec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	execpkg "os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type StreamMode int

const (
	StreamRaw StreamMode = iota
	StreamLines
)

// Runner defines the interface for executing commands.
type Runner interface {
	Run(ctx context.Context, args ...string) error
	RunWith(ctx context.Context, options []Option, args ...string) (*RunResult, error)
}

// RunResult contains the captured output from a command.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// CommandError is returned when a command fails to start, exits with a
// non-zero status or is killed by its context.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("running %s: %v: %s", e.Name, e.Err, e.Stderr)
	}
	return fmt.Sprintf("running %s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// RunConfig configures command execution.
type RunConfig struct {
	Stdin         io.Reader
	OnStdout      func([]byte)
	OnStderr      func([]byte)
	StdoutMode    StreamMode
	StderrMode    StreamMode
	CaptureOutput bool
	stdout        *bytes.Buffer
	stderr        *bytes.Buffer
}

// Option is a functional option for configuring RunConfig.
type Option func(*RunConfig)

// WithStdin sets an io.Reader as stdin for the command.
func WithStdin(r io.Reader) Option {
	return func(o *RunConfig) {
		o.Stdin = r
	}
}

// WithQuiet captures stdout and stderr instead of logging them.
func WithQuiet() Option {
	return func(o *RunConfig) {
		o.CaptureOutput = true
		o.stdout = &bytes.Buffer{}
		o.stderr = &bytes.Buffer{}
		o.StdoutMode = StreamRaw
		o.StderrMode = StreamRaw
		o.OnStdout = func(chunk []byte) { o.stdout.Write(chunk) }
		o.OnStderr = func(chunk []byte) { o.stderr.Write(chunk) }
	}
}

// WithStdoutMode sets the stream mode for stdout.
func WithStdoutMode(mode StreamMode) Option {
	return func(o *RunConfig) {
		o.StdoutMode = mode
	}
}

// WithStderrMode sets the stream mode for stderr.
func WithStderrMode(mode StreamMode) Option {
	return func(o *RunConfig) {
		o.StderrMode = mode
	}
}

// WithCallbacks sets custom handlers for both stdout and stderr.
func WithCallbacks(onStdout, onStderr func([]byte)) Option {
	return func(o *RunConfig) {
		o.OnStdout = onStdout
		o.OnStderr = onStderr
	}
}

// CommandRunner executes actual commands.
type CommandRunner struct {
	Path string
	Name string
	// WaitDelay bounds how long output pipes are drained after the context
	// kills the process.
	WaitDelay time.Duration
}

// NewCommandRunner creates a new CommandRunner with binary path.
func NewCommandRunner(path string) *CommandRunner {
	return &CommandRunner{
		Path:      path,
		Name:      filepath.Base(path),
		WaitDelay: 2 * time.Second,
	}
}

// Run executes the command with the given arguments, logging its output.
func (r *CommandRunner) Run(ctx context.Context, args ...string) error {
	_, err := r.RunWith(ctx, nil, args...)
	return err
}

// RunWith executes the command with functional options and returns captured
// output if requested.
func (r *CommandRunner) RunWith(
	ctx context.Context,
	options []Option,
	args ...string,
) (*RunResult, error) {
	config := RunConfig{
		OnStdout:   r.LogCallback(),
		OnStderr:   r.LogCallback(),
		StdoutMode: StreamLines,
		StderrMode: StreamLines,
	}

	for _, o := range options {
		o(&config)
	}

	// The tail of stderr is kept for error reporting regardless of callbacks.
	tail := &tailBuffer{limit: 4096}
	onStderr := config.OnStderr
	config.OnStderr = func(b []byte) {
		tail.Write(b)
		if config.StderrMode == StreamLines {
			tail.Write([]byte{'\n'})
		}
		if onStderr != nil {
			onStderr(b)
		}
	}

	err := r.runWithConfig(ctx, config, args...)

	var result *RunResult
	if config.CaptureOutput {
		result = &RunResult{
			Stdout: config.stdout.Bytes(),
			Stderr: config.stderr.Bytes(),
		}
	}

	if err != nil {
		return result, &CommandError{
			Name:   r.Name,
			Stderr: strings.TrimSpace(tail.String()),
			Err:    err,
		}
	}
	return result, nil
}

// LogCallback returns a handler that logs each chunk at debug level.
func (r *CommandRunner) LogCallback() func([]byte) {
	return func(b []byte) {
		line := strings.TrimRight(string(b), "\r\n")
		if line == "" {
			return
		}
		slog.Debug("command output", "cmd", r.Name, "line", line)
	}
}

func (r *CommandRunner) runWithConfig(ctx context.Context, config RunConfig, args ...string) error {
	cmd := execpkg.CommandContext(ctx, r.Path, args...) // #nosec: G204
	cmd.WaitDelay = r.WaitDelay

	if config.Stdin != nil {
		cmd.Stdin = config.Stdin
	}

	// Writers rather than StdoutPipe, so that Wait owns the copying and
	// WaitDelay applies when the context kills the process.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	var wg sync.WaitGroup
	handle := func(p *io.PipeReader, h func([]byte), mode StreamMode) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h == nil {
				_, _ = io.Copy(io.Discard, p)
				return
			}
			switch mode {
			case StreamRaw:
				streamRaw(p, h)
			default:
				streamLines(p, h)
			}
		}()
	}

	handle(stdoutR, config.OnStdout, config.StdoutMode)
	handle(stderrR, config.OnStderr, config.StderrMode)

	closeStreams := func() {
		stdoutW.Close()
		stderrW.Close()
		wg.Wait()
	}

	if err := cmd.Start(); err != nil {
		closeStreams()
		return fmt.Errorf("starting command: %w", err)
	}

	err := cmd.Wait()
	closeStreams()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, err)
		}
		return err
	}
	return nil
}

func streamRaw(pipe io.Reader, handler func([]byte)) {
	buf := make([]byte, 4096)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			handler(buf[:n])
		}
		if err != nil {
			break
		}
	}
}

func streamLines(pipe io.Reader, handler func([]byte)) {
	reader := bufio.NewReader(pipe)
	var buf bytes.Buffer
	for {
		b, err := reader.ReadByte()
		if err != nil {
			if buf.Len() > 0 {
				handler(buf.Bytes())
			}
			break
		}
		switch b {
		case '\n':
			handler(buf.Bytes())
			buf.Reset()
		case '\r':
			handler(append(buf.Bytes(), '\r'))
			buf.Reset()
		default:
			buf.WriteByte(b)
		}
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
