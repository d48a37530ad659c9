package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/ensemblelab/rolecheck/internal/types"
)

// StartWatching re-checks scenario files under dirs whenever they change.
func (e *Engine) StartWatching(dirs []string) error {
	if e.isWatching {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	e.watcher = watcher
	e.watchDirs = dirs

	for _, dir := range e.watchDirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return e.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			e.watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.isWatching = true
	go e.watchLoop()
	return nil
}

func (e *Engine) StopWatching() error {
	if !e.isWatching {
		return nil
	}

	e.isWatching = false
	return e.watcher.Close()
}

func (e *Engine) watchLoop() {
	for e.isWatching {
		select {
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(event)
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Write != fsnotify.Write {
		return
	}
	if !strings.HasSuffix(event.Name, ".chor.yaml") {
		return
	}

	// wait for a while after file change to consider multiple changes as one
	time.Sleep(100 * time.Millisecond)
	verdicts, err := e.Run(event.Name)
	if err != nil {
		e.logger.Error("re-check failed", zap.String("path", event.Name), zap.Error(err))
		return
	}
	if e.OnResult != nil {
		e.OnResult(event.Name, verdicts)
		return
	}
	e.reportVerdicts(event.Name, verdicts)
}

func (e *Engine) reportVerdicts(filename string, verdicts []tt.Verdict) {
	if len(verdicts) == 0 {
		e.logger.Info("no checks found", zap.String("path", filename))
		return
	}

	for _, v := range verdicts {
		e.logger.Info("verdict",
			zap.String("path", filename),
			zap.String("participant", v.Participant),
			zap.String("result", v.Result.String()))
	}
}
