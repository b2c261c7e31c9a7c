package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// playbackTools are command-line players tried in order. Each must block
// until playback ends and exit on its own.
var playbackTools = []string{"mpv", "ffplay", "mpg123", "aplay"}

var playbackArgs = map[string][]string{
	"mpv":    {"--no-video", "--really-quiet"},
	"ffplay": {"-nodisp", "-autoexit", "-loglevel", "quiet"},
	"mpg123": {"-q"},
	"aplay":  {"-q"},
}

// PlayBase64 decodes backend-generated audio and plays it through the first
// available system player. A missing player is reported as
// ErrMediaUnavailable so the caller can fall back to text.
func PlayBase64(ctx context.Context, encoded string) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}
	if len(data) == 0 {
		return errors.New("empty audio payload")
	}

	f, err := os.CreateTemp("", "learnterm-tts-*.mp3")
	if err != nil {
		return fmt.Errorf("create playback file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write playback file: %w", err)
	}
	_ = f.Close()

	for _, tool := range playbackTools {
		bin, err := exec.LookPath(tool)
		if err != nil {
			continue
		}
		args := append(append([]string{}, playbackArgs[tool]...), path)
		return exec.CommandContext(ctx, bin, args...).Run()
	}
	return ErrMediaUnavailable
}
