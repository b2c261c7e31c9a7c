package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrMediaUnavailable means no microphone capture capability exists in this
// environment.
var ErrMediaUnavailable = errors.New("no audio capture device available")

// Recorder captures microphone audio between Start and Stop. The capture
// device is exclusively owned between the two calls.
type Recorder interface {
	// Start begins capturing. Fails with ErrMediaUnavailable when the
	// environment cannot record.
	Start(ctx context.Context) error

	// Stop ends capturing and returns the recorded bytes.
	Stop() ([]byte, error)
}

// captureTool is one known command-line capture program and the arguments
// that make it write a complete stream to a file until killed.
type captureTool struct {
	name string
	args func(outPath string) []string
}

var captureTools = []captureTool{
	{"arecord", func(out string) []string {
		return []string{"-q", "-f", "cd", "-t", "wav", out}
	}},
	{"sox", func(out string) []string {
		return []string{"-q", "-d", out}
	}},
	{"ffmpeg", func(out string) []string {
		return []string{"-loglevel", "quiet", "-f", "alsa", "-i", "default", "-y", out}
	}},
}

// ExecRecorder records through the first available system capture program.
// Go has no portable microphone API; delegating to arecord/sox/ffmpeg keeps
// codec handling out of the client entirely.
type ExecRecorder struct {
	cmd     *exec.Cmd
	outPath string
}

// NewExecRecorder probes for a usable capture program. Returns
// ErrMediaUnavailable when none is installed.
func NewExecRecorder() (*ExecRecorder, error) {
	for _, tool := range captureTools {
		if _, err := exec.LookPath(tool.name); err == nil {
			return &ExecRecorder{}, nil
		}
	}
	return nil, ErrMediaUnavailable
}

func (r *ExecRecorder) Start(ctx context.Context) error {
	if r.cmd != nil {
		return errors.New("already recording")
	}

	for _, tool := range captureTools {
		path, err := exec.LookPath(tool.name)
		if err != nil {
			continue
		}

		f, err := os.CreateTemp("", "learnterm-rec-*.wav")
		if err != nil {
			return fmt.Errorf("create capture file: %w", err)
		}
		outPath := f.Name()
		_ = f.Close()

		cmd := exec.CommandContext(ctx, path, tool.args(outPath)...)
		if err := cmd.Start(); err != nil {
			_ = os.Remove(outPath)
			continue
		}
		r.cmd = cmd
		r.outPath = outPath
		return nil
	}
	return ErrMediaUnavailable
}

func (r *ExecRecorder) Stop() ([]byte, error) {
	if r.cmd == nil {
		return nil, errors.New("not recording")
	}
	cmd, outPath := r.cmd, r.outPath
	r.cmd = nil
	r.outPath = ""

	// Capture programs flush and exit on SIGINT; SIGKILL would truncate
	// the file.
	_ = cmd.Process.Signal(os.Interrupt)
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}

	data, err := os.ReadFile(outPath)
	_ = os.Remove(outPath)
	if err != nil {
		return nil, fmt.Errorf("read capture file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("capture produced no audio")
	}
	return data, nil
}
