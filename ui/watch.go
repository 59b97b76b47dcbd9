package ui

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

func (m *model) initWatcher() {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
		return
	}

	// Editors often replace the file, so the directory is watched.
	dir := filepath.Dir(m.cfg.Path)
	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "error", err)
		_ = m.watcher.Close()
		m.watcher = nil
		return
	}
	log.Info("fsnotify watching dir", "dir", dir)
}

// watchFile blocks until the watched file is written, then asks for a
// reload. It returns nil once the watcher is closed.
func (m model) watchFile() tea.Msg {
	if m.watcher == nil {
		return nil
	}
	path := filepath.Clean(m.cfg.Path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "file", path, "error", err)
		}
	}
}
