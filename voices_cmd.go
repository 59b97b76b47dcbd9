package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:     "voices [QUERY]",
	Short:   "List the voices of the speech engine",
	Long:    paragraph(fmt.Sprintf("\n%s the voices the engine offers. The voice marked with * is used when none is chosen.", keyword("List"))),
	Example: paragraph("readaloud voices\nreadaloud voices zh --engine espeak"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadTTSConfig()
		if err != nil {
			return err
		}
		p, err := newPlayer(cfg)
		if err != nil {
			return err
		}
		defer p.Close() //nolint:errcheck

		catalog := p.ctrl.Catalog()
		if err := refreshCatalog(cmd.Context(), catalog); err != nil {
			return err
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		}
		voices := filterVoices(catalog.List(), query)
		if len(voices) == 0 {
			return fmt.Errorf("no voices match %q", query)
		}

		def, _ := catalog.SelectDefault()
		renderVoices(cmd.OutOrStdout(), voices, def.Name)
		return nil
	},
}

func refreshCatalog(ctx context.Context, c *tts.Catalog) error {
	ctx, cancel := context.WithTimeout(ctx, voicesTimeout)
	defer cancel()
	return c.Refresh(ctx) //nolint:wrapcheck
}

// filterVoices fuzzy matches query against name and language, best match
// first. An empty query keeps the catalog order.
func filterVoices(voices []tts.Voice, query string) []tts.Voice {
	if query == "" {
		return voices
	}
	targets := make([]string, len(voices))
	for i, v := range voices {
		targets[i] = v.Name + " " + v.Language
	}
	matches := fuzzy.Find(query, targets)
	out := make([]tts.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

// renderVoices writes one voice per line with names padded to a common
// display width.
func renderVoices(w io.Writer, voices []tts.Voice, def string) {
	width := 0
	for _, v := range voices {
		width = max(width, runewidth.StringWidth(v.Name))
	}
	for _, v := range voices {
		mark := " "
		if v.Name == def {
			mark = "*"
		}
		lang := v.Language
		if lang == "" {
			lang = "-"
		}
		_, _ = fmt.Fprintf(w, "%s %s  %s\n", mark, runewidth.FillRight(v.Name, width), lang)
	}
}
