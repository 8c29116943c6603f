package fonts

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces bursts of file events (editors and copy tools write
// in several steps).
const reloadDelay = 500 * time.Millisecond

// Watch rescans the font directory whenever a font file changes. It blocks
// until ctx is done.
func (r *Registry) Watch(ctx context.Context) error {
	if r.dir == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(r.dir); err != nil {
		return err
	}
	r.logger.Info(ctx, "watching font dir", "dir", r.dir)

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isFontFile(ev.Name) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			if err := r.Rescan(); err != nil {
				r.logger.Error(ctx, "font rescan failed", "error", err)
				continue
			}
			r.logger.Info(ctx, "font dir reloaded", "families", len(r.Families()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn(ctx, "font watcher error", "error", err)
		}
	}
}
