package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-evaluate a grid file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, args[0])
		},
	}
}

// watch prints the grid, then prints it again after every settled burst of
// writes to the file until ctx is done
func (a *app) watch(ctx context.Context, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// the directory is watched so that atomic replacements of the file are seen
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	a.logger.Info("watching grid file", zap.String("file", target))

	a.refresh(path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			a.logger.Debug("grid file event", zap.Stringer("op", event.Op))
			if timer == nil {
				timer = time.NewTimer(a.cfg.Watch.Debounce)
			} else {
				timer.Reset(a.cfg.Watch.Debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			a.refresh(path)
		}
	}
}

// refresh reloads and prints the grid. a file caught mid-edit is logged and
// skipped so the watch keeps running.
func (a *app) refresh(path string) {
	s, err := a.loadSpreadsheet(path)
	if err != nil {
		a.logger.Warn("reload failed", zap.Error(err))
		return
	}
	if err := renderGrid(a.out, "", s.GetData(), a.cfg.Output); err != nil {
		a.logger.Warn("render failed", zap.Error(err))
	}
}
