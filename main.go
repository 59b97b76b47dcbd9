// Package main provides the entry point for the readaloud CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/ui"
	"github.com/dgnsrekt/readaloud/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	mouse      bool
	watch      bool

	rootCmd = &cobra.Command{
		Use:   "readaloud [FILE|-]",
		Short: "Read text aloud from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nType, paste or open text and have it %s, in Chinese or English.", keyword("read aloud")),
		),
		Example: paragraph("readaloud\nreadaloud notes.txt --watch\necho 你好 | readaloud"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(utils.ExpandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}

	mouse = viper.GetBool("mouse")
	watch = viper.GetBool("watch")
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	setColorProfile(isTerminal)
	return nil
}

// loadTTSConfig reads the tts section of the configuration, with paths
// expanded. The audio cache lives in the user cache dir unless configured.
func loadTTSConfig() (tts.Config, error) {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	cfg.Piper.Binary = utils.ExpandPath(cfg.Piper.Binary)
	cfg.Piper.VoicesDir = utils.ExpandPath(cfg.Piper.VoicesDir)
	cfg.Piper.CacheDir = utils.ExpandPath(cfg.Piper.CacheDir)
	cfg.Espeak.Binary = utils.ExpandPath(cfg.Espeak.Binary)
	if cfg.Piper.CacheDir == "" {
		if dir, err := gap.NewScope(gap.User, "readaloud").CacheDir(); err == nil {
			cfg.Piper.CacheDir = filepath.Join(dir, "audio")
		}
	}
	log.Debug("tts config", "engine", cfg.Engine, "language", cfg.Language, "voice", cfg.Voice)
	return cfg, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// textPath resolves a file argument.
func textPath(arg string) (string, error) {
	p, err := filepath.Abs(utils.ExpandPath(arg))
	if err != nil {
		return "", fmt.Errorf("unable to get absolute path: %w", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("unable to open file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", arg)
	}
	if !utils.IsTextFile(p) {
		log.Warn("file does not look like plain text", "path", p)
	}
	return p, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	piped, err := stdinIsPipe()
	if err != nil {
		return err
	}

	var in input
	switch {
	case piped || (len(args) == 1 && args[0] == "-"):
		if in.text, err = io.ReadAll(os.Stdin); err != nil {
			return fmt.Errorf("unable to read from stdin: %w", err)
		}
		in.stdin = true
	case len(args) == 1:
		if in.path, err = textPath(args[0]); err != nil {
			return err
		}
	}

	// Without a terminal to draw on, speak the text once.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		if in.path == "" && !in.stdin {
			return errors.New("no text to read: pass a file or pipe text on stdin")
		}
		return runSay(cmd.Context(), in, cmd.OutOrStdout())
	}
	return runTUI(cmd.Context(), in)
}

func runTUI(ctx context.Context, in input) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Path = in.path
	cfg.Watch = watch && in.path != ""
	cfg.EnableMouse = cfg.EnableMouse || mouse
	// Keys come from the terminal when stdin carried the text.
	cfg.InputTTY = in.stdin

	ttsCfg, err := loadTTSConfig()
	if err != nil {
		return err
	}
	p, err := newPlayer(ttsCfg)
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	if err := p.load(in); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.watchVoices(ctx)

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, p.ctrl).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.StringP("engine", "e", "", "speech engine: auto, piper, espeak or mock")
	flags.String("voice", "", "voice name (default follows --lang)")
	flags.StringP("lang", "l", "", "preferred voice language, matched as a substring")
	flags.Float64P("rate", "r", 0, "speaking rate, 0.5 to 2.0")
	flags.Float64P("pitch", "p", 0, "pitch, 0.5 to 2.0")
	flags.Float64("volume", 0, "volume, 0.0 to 1.0")
	flags.Bool("debug", false, "log at debug level")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload FILE when it changes (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("tts.engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("tts.voice", flags.Lookup("voice"))
	_ = viper.BindPFlag("tts.language", flags.Lookup("lang"))
	_ = viper.BindPFlag("tts.rate", flags.Lookup("rate"))
	_ = viper.BindPFlag("tts.pitch", flags.Lookup("pitch"))
	_ = viper.BindPFlag("tts.volume", flags.Lookup("volume"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("watch", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("mouse", false)
	viper.SetDefault("watch", false)
	viper.SetDefault("debug", false)
	tts.SetDefaults()

	rootCmd.AddCommand(configCmd, manCmd, sayCmd, voicesCmd, panelCmd, checkCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readaloud")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readaloud")}, dirs...)
	}

	if c := os.Getenv("READALOUD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readaloud")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readaloud")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "readaloud.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
