package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chemquest/internal/audio"
	"chemquest/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCueWritesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "click.wav")
	require.NoError(t, renderCue(audio.CueClick, path, 8000, 1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	// 44 byte header + 50ms at 8kHz, 16-bit mono
	assert.Equal(t, 44+400*2, len(data))
}

func TestRenderCueUnknown(t *testing.T) {
	err := renderCue("kazoo", filepath.Join(t.TempDir(), "x.wav"), 8000, 1)
	assert.ErrorIs(t, err, audio.ErrUnknownCue)
}

func TestCuesListCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"cues", "list"})
	require.NoError(t, cmd.Execute())

	for _, name := range audio.Cues() {
		assert.Contains(t, out.String(), string(name))
	}
}

func TestPlayRecordsSession(t *testing.T) {
	cfg := config.Default()
	cfg.Quiz.QuestionCount = 2
	cfg.Quiz.FeedbackDelay = "10ms"
	cfg.Quiz.Seed = 3
	cfg.Audio.SampleRate = 8000
	record := filepath.Join(t.TempDir(), "session.wav")

	var out bytes.Buffer
	err := runPlay(context.Background(), cfg, playOptions{record: record},
		strings.NewReader("nope\n1\n2\n"), &out, zerolog.Nop())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "[1/2]")
	assert.Contains(t, text, "[2/2]")
	assert.Contains(t, text, "Type an option number")
	assert.Contains(t, text, "Mission report:")
	assert.Contains(t, text, "Rank:")

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Greater(t, len(data), 44)
}

func TestPlayQuitsOnEOF(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer
	err := runPlay(context.Background(), cfg, playOptions{count: 1}, strings.NewReader(""), &out, zerolog.Nop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Leaving the lab.")
}

func TestPlayRejectsUnknownVariant(t *testing.T) {
	err := runPlay(context.Background(), config.Default(), playOptions{variant: "golf"}, strings.NewReader(""), &bytes.Buffer{}, zerolog.Nop())
	assert.Error(t, err)
}
