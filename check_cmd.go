package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/internal/cache"
	"github.com/dgnsrekt/readaloud/internal/deps"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/engines/piper"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the speech engine can run",
	Long:  paragraph(fmt.Sprintf("\n%s for the programs and voice models the configured engine needs.", keyword("Look"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadTTSConfig()
		if err != nil {
			return err
		}
		report, err := deps.Check(deps.Options{
			Engine:      cfg.Engine,
			PiperBinary: cfg.Piper.Binary,
			VoicesDir:   cfg.Piper.VoicesDir,
			EspeakBin:   cfg.Espeak.Binary,
		})
		if err != nil {
			return err //nolint:wrapcheck
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Render())
		if cfg.Engine != tts.EngineMock && cfg.Engine != tts.EngineEspeak {
			printCacheStats(cmd.OutOrStdout(), cfg.Piper)
		}
		if !report.OK() {
			return errors.New("missing required dependencies")
		}
		return nil
	},
}

// printCacheStats reports the size of the piper audio cache.
func printCacheStats(w io.Writer, cfg tts.PiperConfig) {
	if cfg.CacheDisabled {
		fmt.Fprintln(w, "\n  audio cache disabled")
		return
	}
	c, err := piper.NewCache(cfg)
	if err != nil {
		log.Warn("unable to open audio cache", "error", err)
		return
	}
	e := piper.New(cfg, piper.WithCache(c))
	defer e.Close() //nolint:errcheck

	s, ok := e.CacheStats()[cache.LevelDisk]
	if !ok {
		return
	}
	fmt.Fprintf(w, "\n  audio cache: %s clips, %s of %s in %s\n",
		humanize.Comma(int64(s.Items)),
		humanize.Bytes(uint64(s.Size)),     //nolint:gosec
		humanize.Bytes(uint64(s.Capacity)), //nolint:gosec
		cfg.CacheDir)
}
