package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/readaloud/panel"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var panelOutput string

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Compare and export two texts side by side",
	Long:  paragraph(fmt.Sprintf("\nWork with a %s of texts: count words, use the clipboard, export to HTML.", keyword("left and right pair"))),
}

var panelStatsCmd = &cobra.Command{
	Use:   "stats FILE...",
	Short: "Count English words and Chinese characters",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			b, err := os.ReadFile(arg)
			if err != nil {
				return fmt.Errorf("unable to read file: %w", err)
			}
			s := panel.Count(string(b))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s English words, %s Chinese characters, %s characters\n",
				filepath.Base(arg),
				humanize.Comma(int64(s.EnglishWords)),
				humanize.Comma(int64(s.ChineseChars)),
				humanize.Comma(int64(s.Chars)))
		}
		return nil
	},
}

var panelCopyCmd = &cobra.Command{
	Use:   "copy FILE",
	Short: "Copy a file's text to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !panel.ClipboardSupported() {
			return errors.New("no clipboard available")
		}
		b, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("unable to read file: %w", err)
		}
		p := panel.New()
		p.Set(panel.Left, string(b))
		if err := p.Copy(panel.Left, panel.SystemClipboard{}); err != nil {
			return err //nolint:wrapcheck
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to the clipboard\n", humanize.Bytes(uint64(len(b))))
		return nil
	},
}

var panelPasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Print the clipboard text, or write it with -o",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !panel.ClipboardSupported() {
			return errors.New("no clipboard available")
		}
		p := panel.New()
		if err := p.Paste(panel.Left, panel.SystemClipboard{}); err != nil {
			return err //nolint:wrapcheck
		}
		text := p.Text(panel.Left)
		if panelOutput == "" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
			return err //nolint:wrapcheck
		}
		if err := os.WriteFile(panelOutput, []byte(text), 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("unable to write file: %w", err)
		}
		return nil
	},
}

var panelExportCmd = &cobra.Command{
	Use:     "export LEFT RIGHT",
	Short:   "Export two text files as one HTML page",
	Example: paragraph("readaloud panel export zh.txt en.txt\nreadaloud panel export zh.txt en.txt -o compare.html"),
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := panel.New()
		for i, side := range []panel.Side{panel.Left, panel.Right} {
			b, err := os.ReadFile(args[i])
			if err != nil {
				return fmt.Errorf("unable to read %s text: %w", side, err)
			}
			p.Set(side, string(b))
		}

		out := panelOutput
		if out == "" {
			out = panel.ExportFileName(time.Now())
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("unable to create file: %w", err)
		}
		if err := p.Export(f); err != nil {
			_ = f.Close()
			return err //nolint:wrapcheck
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("unable to write file: %w", err)
		}

		if info, err := os.Stat(out); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, humanize.Bytes(uint64(info.Size()))) //nolint:gosec
		}
		return nil
	},
}

func init() {
	panelPasteCmd.Flags().StringVarP(&panelOutput, "output", "o", "", "write to a file")
	panelExportCmd.Flags().StringVarP(&panelOutput, "output", "o", "", "HTML file (default dual_text_DATE.html)")
	panelCmd.AddCommand(panelStatsCmd, panelCopyCmd, panelPasteCmd, panelExportCmd)
}
