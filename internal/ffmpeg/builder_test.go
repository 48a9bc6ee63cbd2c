package ffmpeg

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBuilder_Build(t *testing.T) {
	cmd := NewCommandBuilder("/usr/bin/ffmpeg").
		HideBanner().
		LogLevel("info").
		Stats().
		InputArgs("-re").
		Input("/data/videos/clip.mp4").
		Overwrite().
		VideoCodec("libx264").
		VideoPreset("veryfast").
		Tune("zerolatency").
		VideoBitrate(3000).
		AudioCodec("aac").
		AudioBitrate(128).
		Format("flv").
		Output("rtmp://live.example.com/app/key").
		Build()

	assert.Equal(t, "/usr/bin/ffmpeg", cmd.Binary)
	assert.Equal(t, []string{
		"-loglevel", "info",
		"-hide_banner",
		"-stats",
		"-re",
		"-i", "/data/videos/clip.mp4",
		"-y",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-b:v", "3000k", "-maxrate", "3000k", "-bufsize", "6000k",
		"-c:a", "aac",
		"-b:a", "128k",
		"-f", "flv",
		"rtmp://live.example.com/app/key",
	}, cmd.Args)
}

func TestCommandBuilder_LoopInput(t *testing.T) {
	cmd := NewCommandBuilder("ffmpeg").
		InputArgs("-re", "-stream_loop", "-1").
		Input("/data/videos/clip.mp4").
		Output("rtmp://dest").
		Build()

	assert.Contains(t, cmd.String(), "-re -stream_loop -1 -i /data/videos/clip.mp4")
}

func TestCommandStartAndWait(t *testing.T) {
	// Use a plain shell command as a stand-in binary; the handle only
	// cares about process mechanics, not what it runs.
	cmd := &Command{Binary: "/bin/sh", Args: []string{"-c", "echo one >&2; echo two >&2"}}

	stderr, err := cmd.Start(context.Background())
	require.NoError(t, err)
	assert.Greater(t, cmd.PID(), 0)

	out, err := io.ReadAll(stderr)
	require.NoError(t, err)
	assert.Contains(t, string(out), "one")
	assert.Contains(t, string(out), "two")

	require.NoError(t, cmd.Wait())
}

func TestCommandStartTwice(t *testing.T) {
	cmd := &Command{Binary: "/bin/sh", Args: []string{"-c", "true"}}

	stderr, err := cmd.Start(context.Background())
	require.NoError(t, err)

	_, err = cmd.Start(context.Background())
	assert.Error(t, err)

	_, _ = io.ReadAll(stderr)
	require.NoError(t, cmd.Wait())
}

func TestCommandStartMissingBinary(t *testing.T) {
	cmd := &Command{Binary: "/nonexistent/ffmpeg", Args: []string{"-version"}}
	_, err := cmd.Start(context.Background())
	assert.Error(t, err)
}

func TestFindBinaryExplicitPath(t *testing.T) {
	path, err := FindBinary("/opt/ffmpeg/bin/ffmpeg")
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", path)
}
