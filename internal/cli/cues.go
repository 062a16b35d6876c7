package cli

import (
	"fmt"
	"os"

	"chemquest/internal/audio"
	"github.com/spf13/cobra"
)

// NewCuesCmd inspects and renders the synthesized cue table.
func NewCuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cues",
		Short: "Inspect the synthesized audio cues",
	}
	cmd.AddCommand(newCuesListCmd(), newCuesRenderCmd())
	return cmd
}

func newCuesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cues and their lengths",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range audio.Cues() {
				tones, err := audio.Lookup(name)
				if err != nil {
					return err
				}
				v := audio.Voice{Cue: name, Tones: tones}
				fmt.Fprintf(out, "%-12s %2d tone(s) %6dms\n", name, len(tones), v.Length().Milliseconds())
			}
			return nil
		},
	}
}

func newCuesRenderCmd() *cobra.Command {
	var (
		cue    string
		out    string
		rate   int
		volume float64
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one cue to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderCue(audio.CueName(cue), out, rate, volume)
		},
	}
	cmd.Flags().StringVar(&cue, "cue", "", "cue name (see cues list)")
	cmd.Flags().StringVar(&out, "out", "", "output WAV path")
	cmd.Flags().IntVar(&rate, "rate", audio.DefaultSampleRate, "sample rate")
	cmd.Flags().Float64Var(&volume, "volume", 1, "master gain in [0, 1]")
	_ = cmd.MarkFlagRequired("cue")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func renderCue(name audio.CueName, path string, rate int, volume float64) error {
	tones, err := audio.Lookup(name)
	if err != nil {
		return err
	}
	pcm := audio.Render(audio.Voice{Cue: name, Tones: tones, Gain: volume}, rate)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(f, pcm, rate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
