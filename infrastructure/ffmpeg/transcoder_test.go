package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"narration-tuner/domain/audio"
)

// --- Mock implementations for testing ---

// mockCommandRunner records invocations instead of running them
type mockCommandRunner struct {
	calls  [][]string
	tools  []string
	runErr error
	output []byte
	outErr error
}

func (m *mockCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	m.tools = append(m.tools, name)
	m.calls = append(m.calls, args)
	return m.runErr
}

func (m *mockCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.tools = append(m.tools, name)
	m.calls = append(m.calls, args)
	if m.outErr != nil {
		return nil, m.outErr
	}
	return m.output, nil
}

// --- Tests ---

func TestToWAV_Arguments(t *testing.T) {
	runner := &mockCommandRunner{}
	transcoder := NewTranscoder(WithCommandRunner(runner))

	if err := transcoder.ToWAV(context.Background(), "in.mp3", "out.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"-i", "in.mp3",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-y", "-loglevel", "error", "out.wav",
	}
	got := strings.Join(runner.calls[0], " ")
	if got != strings.Join(want, " ") {
		t.Errorf("argv:\n got %s\nwant %s", got, strings.Join(want, " "))
	}
}

func TestFromWAV_EncoderTable(t *testing.T) {
	tests := []struct {
		family audio.CodecFamily
		want   string
	}{
		{audio.CodecMP3, "-acodec libmp3lame -b:a 192k"},
		{audio.CodecM4A, "-acodec aac -b:a 192k"},
		{audio.CodecAAC, "-acodec aac -b:a 192k"},
		{audio.CodecWMA, "-acodec wmav2 -b:a 192k"},
		{audio.CodecFLAC, "-acodec flac"},
		{audio.CodecOGG, "-acodec libvorbis -b:a 192k"},
		{audio.CodecUnknown, "-acodec copy"},
	}

	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			runner := &mockCommandRunner{}
			transcoder := NewTranscoder(WithCommandRunner(runner))

			if err := transcoder.FromWAV(context.Background(), "in.wav", "out", tt.family); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := strings.Join(runner.calls[0], " ")
			if !strings.Contains(got, tt.want) {
				t.Errorf("argv %q missing %q", got, tt.want)
			}
		})
	}
}

func TestFromWAV_CustomBitrate(t *testing.T) {
	runner := &mockCommandRunner{}
	transcoder := NewTranscoder(WithCommandRunner(runner), WithBitrate("256k"))

	if err := transcoder.FromWAV(context.Background(), "in.wav", "out.mp3", audio.CodecMP3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := strings.Join(runner.calls[0], " ")
	if !strings.Contains(got, "-b:a 256k") {
		t.Errorf("argv %q missing custom bitrate", got)
	}
}

func TestToWAV_ToolFailure(t *testing.T) {
	runner := &mockCommandRunner{runErr: &TranscodeError{
		Tool:     "ffmpeg",
		ExitCode: 1,
		Stderr:   "in.mp3: Invalid data found when processing input",
	}}
	transcoder := NewTranscoder(WithCommandRunner(runner))

	err := transcoder.ToWAV(context.Background(), "in.mp3", "out.wav")

	var transcodeErr *TranscodeError
	if !errors.As(err, &transcodeErr) {
		t.Fatalf("expected TranscodeError, got %v", err)
	}
	if transcodeErr.ExitCode != 1 {
		t.Errorf("exit code: got %d, want 1", transcodeErr.ExitCode)
	}
}

func TestVerifyInstalled(t *testing.T) {
	runner := &mockCommandRunner{output: []byte("ffmpeg version 6.0")}
	transcoder := NewTranscoder(WithCommandRunner(runner), WithFFmpegPath("/opt/ffmpeg"))

	if err := transcoder.VerifyInstalled(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.tools[0] != "/opt/ffmpeg" {
		t.Errorf("tool: got %s, want /opt/ffmpeg", runner.tools[0])
	}

	runner = &mockCommandRunner{outErr: errors.New("executable file not found in $PATH")}
	transcoder = NewTranscoder(WithCommandRunner(runner))
	if err := transcoder.VerifyInstalled(context.Background()); err == nil {
		t.Fatal("expected an error when ffmpeg is missing")
	}
}

func TestTranscodeError_Message(t *testing.T) {
	err := &TranscodeError{
		Tool:     "ffmpeg",
		ExitCode: 1,
		Stderr:   strings.Repeat("x", 300),
	}

	msg := err.Error()
	if !strings.Contains(msg, "exit=1") {
		t.Errorf("message missing exit code: %s", msg)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Errorf("long stderr must be truncated: %s", msg)
	}
}
