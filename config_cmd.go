package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// fileConfig is the layout of readaloud.yml.
type fileConfig struct {
	Mouse bool       `yaml:"mouse"`
	Watch bool       `yaml:"watch"`
	Debug bool       `yaml:"debug"`
	TTS   tts.Config `yaml:"tts"`
}

// keyComments are written above the matching keys of the default config.
var keyComments = map[string]string{
	"mouse":          "mouse support (TUI-mode only)",
	"watch":          "reload the file when it changes (TUI-mode only)",
	"debug":          "log at debug level",
	"engine":         "speech engine: auto, piper, espeak or mock",
	"language":       "preferred voice language, matched against voice language tags",
	"voice":          "voice name, empty follows the preferred language",
	"rate":           "speaking rate (0.5 to 2.0)",
	"pitch":          "pitch (0.5 to 2.0)",
	"volume":         "volume (0.0 to 1.0)",
	"voices_dir":     "directory holding piper .onnx models",
	"cache_dir":      "synthesized audio cache, empty uses the user cache directory",
	"cache_disabled": "skip the audio cache",
}

// durationKeys hold time.Duration values, written as "30s" rather than
// nanoseconds.
var durationKeys = map[string]bool{
	"timeout":     true,
	"start_delay": true,
}

// renderConfig returns cfg as commented YAML.
func renderConfig(cfg fileConfig) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("unable to encode config: %w", err)
	}
	annotate(&doc)
	root := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "# readaloud configuration",
		Content:     []*yaml.Node{&doc},
	}

	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("unable to write config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("unable to write config: %w", err)
	}
	return b.Bytes(), nil
}

func annotate(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if c, ok := keyComments[k.Value]; ok {
				k.HeadComment = "# " + c
			}
			if durationKeys[k.Value] && v.Kind == yaml.ScalarNode {
				var ns int64
				if err := v.Decode(&ns); err == nil {
					v.SetString(time.Duration(ns).String())
				}
			}
		}
	}
	for _, c := range n.Content {
		annotate(c)
	}
}

func defaultConfig() ([]byte, error) {
	return renderConfig(fileConfig{TTS: tts.DefaultConfig()})
}

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the readaloud config file",
	Long:    paragraph(fmt.Sprintf("\n%s the readaloud config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("readaloud config\nreadaloud config --config path/to/config.yml\nreadaloud config show"),
	Args:    cobra.NoArgs,
	RunE:    editConfig,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the readaloud config file",
	Args:  cobra.NoArgs,
	RunE:  editConfig,
}

func editConfig(*cobra.Command, []string) error {
	if err := ensureConfigFile(); err != nil {
		return err
	}

	c, err := editor.Cmd("readaloud", configFile)
	if err != nil {
		return fmt.Errorf("unable to set config file: %w", err)
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("unable to run command: %w", err)
	}

	fmt.Println("Wrote config file to:", configFile)
	return nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadTTSConfig()
		if err != nil {
			return err
		}
		b, err := renderConfig(fileConfig{
			Mouse: viper.GetBool("mouse"),
			Watch: viper.GetBool("watch"),
			Debug: viper.GetBool("debug"),
			TTS:   cfg,
		})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err //nolint:wrapcheck
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		p := viper.ConfigFileUsed()
		if p == "" {
			p = configFile
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
	},
}

func init() {
	configCmd.AddCommand(configEditCmd, configShowCmd, configPathCmd)
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		b, err := defaultConfig()
		if err != nil {
			return err
		}
		if err := os.WriteFile(configFile, b, 0o600); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
