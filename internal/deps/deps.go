// Package deps checks for the external programs and files the speech
// engines need.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Status represents the status of a dependency.
type Status struct {
	Name         string
	Required     bool
	Installed    bool
	Detail       string // Path or model count
	Instructions string
}

// Checker checks a single dependency.
type Checker interface {
	Check() Status
}

// Report holds the results of a dependency check, in check order.
type Report struct {
	Engine  string
	Results []Status
}

// Missing returns the required dependencies that were not found.
func (r Report) Missing() []Status {
	var out []Status
	for _, s := range r.Results {
		if s.Required && !s.Installed {
			out = append(out, s)
		}
	}
	return out
}

// OK reports whether every required dependency was found.
func (r Report) OK() bool {
	return len(r.Missing()) == 0
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	installedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	optionalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// Render returns a formatted dependency report.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Speech engine dependencies (" + r.Engine + ")"))
	b.WriteString("\n\n")

	for _, s := range r.Results {
		switch {
		case s.Installed:
			b.WriteString(installedStyle.Render("  ✓ " + s.Name + ": "))
			b.WriteString(s.Detail + "\n")
		case s.Required:
			b.WriteString(missingStyle.Render("  ✗ " + s.Name + ": "))
			b.WriteString("Not found\n")
			fmt.Fprintf(&b, "    %s\n", s.Instructions)
		default:
			b.WriteString(optionalStyle.Render("  ○ " + s.Name + ": "))
			b.WriteString("Not found (optional)\n")
			fmt.Fprintf(&b, "    %s\n", s.Instructions)
		}
	}
	return b.String()
}

// BinaryChecker looks for the first of several program names on PATH.
type BinaryChecker struct {
	Label        string
	Names        []string
	Required     bool
	Instructions string

	lookPath func(string) (string, error)
}

// Check implements Checker.
func (c *BinaryChecker) Check() Status {
	status := Status{Name: c.Label, Required: c.Required}
	lookPath := c.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range c.Names {
		if path, err := lookPath(name); err == nil {
			status.Installed = true
			status.Detail = path
			return status
		}
	}
	status.Instructions = c.Instructions
	return status
}

// ModelsChecker looks for piper voice models in Dir.
type ModelsChecker struct {
	Dir      string
	Required bool
}

// Check implements Checker.
func (c *ModelsChecker) Check() Status {
	status := Status{Name: "piper models", Required: c.Required}
	matches, _ := filepath.Glob(filepath.Join(c.Dir, "*.onnx"))
	if c.Dir != "" && len(matches) > 0 {
		status.Installed = true
		status.Detail = fmt.Sprintf("%d in %s", len(matches), c.Dir)
		return status
	}
	status.Instructions = "Download models from: https://github.com/rhasspy/piper/blob/master/VOICES.md\n" +
		"    Place the .onnx and .onnx.json files in: " + orUnset(c.Dir)
	return status
}

func orUnset(dir string) string {
	if dir == "" {
		return "(set tts.piper.voices_dir)"
	}
	return dir
}

func piperInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install piper-tts\n    Or download from: https://github.com/rhasspy/piper/releases"
	default:
		return "Download from: https://github.com/rhasspy/piper/releases\n    Extract and add to PATH"
	}
}

func espeakInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install espeak-ng"
	case "linux":
		distro := detectLinuxDistro()
		switch distro {
		case "debian", "ubuntu":
			return "Install with: sudo apt-get install espeak-ng"
		case "fedora", "rhel":
			return "Install with: sudo dnf install espeak-ng"
		case "arch":
			return "Install with: sudo pacman -S espeak-ng"
		}
		return "Install espeak-ng with your package manager"
	default:
		return "Download from: https://github.com/espeak-ng/espeak-ng/releases"
	}
}

// detectLinuxDistro attempts to detect the Linux distribution.
func detectLinuxDistro() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	content := strings.ToLower(string(data))
	for _, d := range []string{"ubuntu", "debian", "fedora", "arch"} {
		if strings.Contains(content, d) {
			return d
		}
	}
	if strings.Contains(content, "rhel") || strings.Contains(content, "centos") {
		return "rhel"
	}
	return "unknown"
}

// Options describes what to check.
type Options struct {
	Engine      string // mock, espeak, piper or auto
	PiperBinary string
	VoicesDir   string
	EspeakBin   string
}

// Checkers returns the checkers relevant for opts.Engine. With auto, piper
// and espeak are each optional but at least one is needed.
func Checkers(opts Options) ([]Checker, error) {
	piper := func(required bool) []Checker {
		return []Checker{
			&BinaryChecker{Label: "piper", Names: []string{opts.PiperBinary, "piper"}, Required: required, Instructions: piperInstructions()},
			&ModelsChecker{Dir: opts.VoicesDir, Required: required},
		}
	}
	espeak := func(required bool) Checker {
		return &BinaryChecker{Label: "espeak-ng", Names: []string{opts.EspeakBin, "espeak-ng", "espeak"}, Required: required, Instructions: espeakInstructions()}
	}

	switch opts.Engine {
	case "mock":
		return nil, nil
	case "piper":
		return piper(true), nil
	case "espeak":
		return []Checker{espeak(true)}, nil
	case "auto", "":
		return append(piper(false), espeak(false)), nil
	default:
		return nil, fmt.Errorf("unknown engine: %s", opts.Engine)
	}
}

// Check runs every checker relevant for opts.
func Check(opts Options) (Report, error) {
	checkers, err := Checkers(opts)
	if err != nil {
		return Report{}, err
	}
	return Run(opts.Engine, checkers), nil
}

// Run runs checkers and logs what was found.
func Run(engine string, checkers []Checker) Report {
	r := Report{Engine: engine}
	for _, c := range checkers {
		status := c.Check()
		r.Results = append(r.Results, status)
		if status.Installed {
			log.Debug("dependency found", "name", status.Name, "detail", status.Detail)
		} else if status.Required {
			log.Error("missing required dependency", "name", status.Name)
		}
	}
	if engine == "auto" || engine == "" {
		r.Results = append(r.Results, autoStatus(r.Results))
	}
	return r
}

// autoStatus requires one complete engine when piper and espeak are both
// optional.
func autoStatus(results []Status) Status {
	found := map[string]bool{}
	for _, s := range results {
		found[s.Name] = s.Installed
	}
	s := Status{Name: "any engine", Required: true}
	switch {
	case found["piper"] && found["piper models"]:
		s.Installed, s.Detail = true, "piper"
	case found["espeak-ng"]:
		s.Installed, s.Detail = true, "espeak-ng"
	default:
		s.Instructions = "Install piper with a model, or espeak-ng"
	}
	return s
}
