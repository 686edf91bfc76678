package usecases

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// DefaultWatchDebounce collapses editor save bursts into one reingestion.
const DefaultWatchDebounce = 2 * time.Second

// CorpusWatcher triggers an unforced reingestion when corpus files change.
// The fingerprint check inside the pipeline decides whether anything is rebuilt.
type CorpusWatcher struct {
	watcher  ports.FileWatcher
	reingest Reingester
	debounce time.Duration
	logger   *slog.Logger
}

// NewCorpusWatcher creates a watcher. A non-positive debounce uses DefaultWatchDebounce.
func NewCorpusWatcher(watcher ports.FileWatcher, reingest Reingester, debounce time.Duration, logger *slog.Logger) *CorpusWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CorpusWatcher{watcher: watcher, reingest: reingest, debounce: debounce, logger: logger}
}

// Run watches the existing directories until ctx is done.
func (w *CorpusWatcher) Run(ctx context.Context, dirs []string) error {
	existing := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			existing = append(existing, dir)
		}
	}
	if len(existing) == 0 {
		return errors.New("no corpus directory exists to watch")
	}

	events, err := w.watcher.Watch(ctx, existing...)
	if err != nil {
		return err
	}
	defer w.watcher.Stop()
	w.logger.Info("watching corpus", "dirs", existing, "debounce", w.debounce)

	// fire is nil while no change is pending.
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.logger.Debug("corpus change", "path", ev.Path, "op", ev.Operation)
			fire = time.After(w.debounce)
		case <-fire:
			fire = nil
			w.trigger(ctx)
		}
	}
}

func (w *CorpusWatcher) trigger(ctx context.Context) {
	report, err := w.reingest.Run(ctx, false)
	switch {
	case errors.Is(err, ErrNoDocumentsFound):
		w.logger.Warn("corpus is empty, keeping current index")
	case err != nil:
		w.logger.Error("reingestion after corpus change failed", "error", err)
	case report.Rebuilt:
		w.logger.Info("index rebuilt after corpus change", "snapshot_id", report.SnapshotID, "chunks", report.Chunks)
	}
}
