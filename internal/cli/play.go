package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"chemquest/internal/app"
	"chemquest/internal/audio"
	"chemquest/internal/config"
	"chemquest/internal/domain"
	"chemquest/internal/infra/memory"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type playOptions struct {
	count      int
	difficulty string
	variant    string
	record     string
}

// NewPlayCmd runs one quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var po playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg, po, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().IntVar(&po.count, "count", 0, "number of questions (defaults to quiz.question_count)")
	cmd.Flags().StringVar(&po.difficulty, "difficulty", "", "easy, medium or hard")
	cmd.Flags().StringVar(&po.variant, "variant", "", "scoring variant: count or points")
	cmd.Flags().StringVar(&po.record, "record", "", "write the session's audio cues to this WAV file")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config, po playOptions, in io.Reader, out io.Writer, logger zerolog.Logger) error {
	if po.variant != "" {
		cfg.Quiz.Variant = po.variant
	}
	if po.difficulty != "" {
		cfg.Quiz.Difficulty = po.difficulty
	}
	opts, err := cfg.Quiz.Options()
	if err != nil {
		return err
	}

	var host audio.Host
	var recorder *audio.BufferHost
	if po.record != "" {
		recorder = audio.NewBufferHost(cfg.Audio.SampleRate)
		host = recorder
	}

	catalogs := memory.NewCatalogRepository(catalogLoader(cfg, nil), 0)
	service := app.NewQuizService(memory.NewSessionStore(), catalogs, app.ServiceConfig{
		CatalogID: cfg.Catalog.ID,
		Defaults:  opts,
		Audio:     cfg.Audio.Options(),
		Seed:      cfg.Quiz.Seed,
		Logger:    logger,
	})
	session, err := service.NewSession(ctx, app.SessionConfig{Host: host})
	if err != nil {
		return err
	}
	defer service.Close(context.WithoutCancel(ctx), session.ID())

	reports := make(chan domain.Report, 1)
	session.OnComplete(func(r domain.Report) { reports <- r })
	updates, cancel := session.Subscribe()
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := session.Start(po.count, opts.Difficulty); err != nil {
		return err
	}

	var shown domain.Snapshot
	answered := -1
	for {
		// input is only read while the shown question still waits for an answer
		var input <-chan string
		if shown.State == domain.StateAwaitingAnswer && shown.CurrentIndex != answered {
			input = lines
		}

		select {
		case snap, ok := <-updates:
			if !ok {
				return domain.ErrSessionClosed
			}
			render(out, shown, snap)
			shown = snap
		case line, ok := <-input:
			if !ok || line == "q" {
				fmt.Fprintln(out, "Leaving the lab.")
				return nil
			}
			n, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintf(out, "Type an option number or q to quit.\n")
				continue
			}
			if err := session.SubmitAnswer(n - 1); err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			answered = shown.CurrentIndex
		case report := <-reports:
			printReport(out, report)
			if recorder != nil {
				return writeRecording(po.record, recorder, logger)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// render prints question and feedback transitions; countdown ticks are skipped.
func render(out io.Writer, prev, snap domain.Snapshot) {
	switch snap.State {
	case domain.StateAwaitingAnswer:
		if prev.State == domain.StateAwaitingAnswer && prev.CurrentIndex == snap.CurrentIndex {
			return
		}
		q := snap.Question
		fmt.Fprintf(out, "\n[%d/%d] %s (%s, %ds)\n", snap.CurrentIndex+1, snap.Total, q.Scenario, q.Difficulty, snap.TimeRemaining)
		fmt.Fprintln(out, q.Prompt)
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, o)
		}
	case domain.StateShowingFeedback:
		if prev.State == domain.StateShowingFeedback {
			return
		}
		q := snap.Question
		switch snap.AnsweredState {
		case domain.AnsweredCorrect:
			fmt.Fprintf(out, "Correct! +%d\n", snap.LastAwarded)
		case domain.TimedOut:
			fmt.Fprintf(out, "Time's up. The answer was %q.\n", q.Options[*q.CorrectIndex])
		default:
			fmt.Fprintf(out, "Wrong. The answer was %q.\n", q.Options[*q.CorrectIndex])
		}
		if q.Explanation != "" {
			fmt.Fprintln(out, q.Explanation)
		}
	}
}

func printReport(out io.Writer, r domain.Report) {
	fmt.Fprintf(out, "\nMission report: %d/%d correct, time bonus %d, total %d (%s scoring)\n",
		r.CorrectCount, r.TotalQuestions, r.Bonus, r.Points, r.Variant)
	fmt.Fprintf(out, "Rank: %s\nEnding: %s\n", r.Rank, strings.ReplaceAll(r.Ending, "_", " "))
}

func writeRecording(path string, host *audio.BufferHost, logger zerolog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := host.WriteWAV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	secs := float64(len(host.Samples())) / float64(host.SampleRate())
	logger.Info().Str("path", path).Float64("seconds", secs).Msg("recorded session audio")
	return nil
}
