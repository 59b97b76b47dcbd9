package piper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/fsnotify/fsnotify"
)

// modelConfig is the part of a piper model's .onnx.json we read.
type modelConfig struct {
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Dataset string `json:"dataset"`
}

// scanVoices lists the *.onnx models in dir. A missing directory yields no
// voices.
func scanVoices(dir string) ([]tts.Voice, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read voices directory: %w", err)
	}

	var voices []tts.Voice
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".onnx" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), ".onnx")
		voices = append(voices, tts.Voice{
			Name:     name,
			Language: modelLanguage(path, name),
			Handle:   path,
		})
	}
	return voices, nil
}

// modelLanguage reads the language from the model config, falling back to
// the piper naming convention "zh_CN-huayan-medium".
func modelLanguage(path, name string) string {
	code := ""
	if b, err := os.ReadFile(path + ".json"); err == nil {
		var cfg modelConfig
		if err := json.Unmarshal(b, &cfg); err != nil {
			log.Debug("invalid piper model config", "path", path, "error", err)
		}
		code = cfg.Language.Code
	}
	if code == "" {
		code, _, _ = strings.Cut(name, "-")
	}
	return strings.ReplaceAll(code, "_", "-")
}

// watchDir calls changed whenever a model or its config is added, removed
// or rewritten in dir. It blocks until ctx is done.
func watchDir(ctx context.Context, dir string, changed func()) error {
	if dir == "" {
		return errors.New("no piper voices directory configured")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch voices: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %q: %w", dir, err)
	}
	log.Debug("watching piper voices", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".onnx") && !strings.HasSuffix(event.Name, ".onnx.json") {
				continue
			}
			log.Debug("piper voices changed", "file", event.Name, "event", event.Op)
			changed()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("voices watcher error", "dir", dir, "error", err)
		}
	}
}
