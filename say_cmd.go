package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/engines"
	"github.com/dgnsrekt/readaloud/utils"
	"github.com/spf13/cobra"
)

var sayCmd = &cobra.Command{
	Use:   "say [FILE|-|TEXT...]",
	Short: "Speak text once and exit",
	Long: paragraph(fmt.Sprintf("\n%s a file, stdin or the arguments, then exit. Ctrl-C stops playback.",
		keyword("Speak"))),
	Example: paragraph("readaloud say 你好，世界\nreadaloud say notes.txt --rate 1.5\necho hello | readaloud say"),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := sayInput(args)
		if err != nil {
			return err
		}
		return runSay(cmd.Context(), in, cmd.OutOrStdout())
	},
}

// input is the text for playback: a file path, or bytes.
type input struct {
	path  string
	text  []byte
	stdin bool
}

// sayInput picks the text source: stdin for no arguments or "-", a file
// when the only argument names one, otherwise the arguments themselves.
func sayInput(args []string) (input, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return input{}, fmt.Errorf("unable to read from stdin: %w", err)
		}
		return input{text: b, stdin: true}, nil
	}
	if len(args) == 1 {
		if info, err := os.Stat(utils.ExpandPath(args[0])); err == nil && !info.IsDir() {
			path, err := textPath(args[0])
			if err != nil {
				return input{}, err
			}
			return input{path: path}, nil
		}
	}
	return input{text: []byte(strings.Join(args, " "))}, nil
}

func runSay(ctx context.Context, in input, w io.Writer) error {
	cfg, err := loadTTSConfig()
	if err != nil {
		return err
	}
	p, err := newPlayer(cfg)
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return sayWith(ctx, p, in, w)
}

func sayWith(ctx context.Context, p *player, in input, w io.Writer) error {
	if err := p.load(in); err != nil {
		return err
	}
	p.refreshVoices(ctx)
	err := speak(ctx, p.ctrl, w)
	if f, ok := p.engine.(*engines.FallbackEngine); ok && f.UsingFallback() {
		log.Warn("engine", "status", f.Status())
	}
	return err
}

// speak plays the controller's text and waits until it ends, fails, or ctx
// is done. Statuses are printed to w as they arrive.
func speak(ctx context.Context, ctrl *tts.Controller, w io.Writer) error {
	result := make(chan error, 1)
	finish := func(err error) {
		select {
		case result <- err:
		default:
		}
	}

	unsubscribe := ctrl.OnStatus(func(s tts.Status) {
		_, _ = fmt.Fprintln(w, statusLine(s))
		switch {
		case s.State == tts.StateEnded:
			finish(nil)
		case s.State == tts.StateIdle && s.Err != nil:
			finish(s.Err)
		case s.State == tts.StateIdle:
			finish(context.Canceled)
		}
	})
	defer unsubscribe()

	if err := ctrl.Play(); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		if err := ctrl.Stop(); err != nil {
			return errors.Join(ctx.Err(), err)
		}
		return ctx.Err()
	}
}

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FE5F86"))

// statusLine formats a status for the terminal.
func statusLine(s tts.Status) string {
	line := fmt.Sprintf("%-8s %s", s.State, s.Message)
	if s.Err != nil {
		return errorStyle.Render(line + ": " + s.Err.Error())
	}
	return keyword(fmt.Sprintf("%-8s", s.State)) + " " + s.Message
}
