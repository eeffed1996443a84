package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Watcher следит за каталогами данных и сбрасывает кэш при изменениях.
// Пачка событий (запись отчета дает несколько) схлопывается в одну инвалидацию.
type Watcher struct {
	dirs     []string
	target   Invalidator
	debounce time.Duration
	logger   *zap.Logger
}

func NewWatcher(target Invalidator, logger *zap.Logger, dirs ...string) *Watcher {
	return &Watcher{
		dirs:     dirs,
		target:   target,
		debounce: 200 * time.Millisecond,
		logger:   logger.Named("watcher"),
	}
}

// Run блокируется до отмены ctx. Несуществующие каталоги пропускаются.
// fsnotify не рекурсивен, поэтому подкаталоги прогонов добавляются отдельно.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	watched := 0
	for _, dir := range w.dirs {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			w.logger.Warn("skip watch: not a directory", zap.String("dir", dir))
			continue
		}
		watched += w.addTree(fw, dir)
	}
	w.logger.Info("watching data dirs", zap.Int("count", watched))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					w.addTree(fw, ev.Name)
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if err := w.target.Invalidate(ctx); err != nil {
				w.logger.Warn("invalidate failed", zap.Error(err))
			} else {
				w.logger.Debug("cache invalidated by fs change")
			}
		}
	}
}

// addTree подписывает root и все вложенные каталоги. Возвращает число подписок.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) int {
	added := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			w.logger.Warn("watch failed", zap.String("dir", path), zap.Error(err))
			return nil
		}
		added++
		return nil
	})
	return added
}
