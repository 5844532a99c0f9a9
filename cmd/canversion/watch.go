package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canversion/internal/watch"
)

var (
	watchTasks    []string
	watchAllTasks bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <class-id>",
	Short: "Watch the class input files and regenerate on change",
	Long: `Watches the class input directory and its markdown fragment
directories. When edits settle, the configured tasks run again. Stop
with Ctrl-C.

Canvas tasks are a poor fit for watch mode; prefer local targets:
  canversion watch anthro101 --tasks wiki_weekly_pages,wiki_overview`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchTasks, "tasks", "t", nil, "comma-separated task names to run on change")
	watchCmd.Flags().BoolVar(&watchAllTasks, "all-tasks", false, "run every available task on change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	classID := args[0]
	genTasks, genAllTasks = watchTasks, watchAllTasks
	tasks, err := resolveTasks()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(classID)
	if err != nil {
		return err
	}

	dirs := []string{cfg.Paths.ClassInput}
	for _, sub := range cfg.InputSources.MarkdownDirs {
		dirs = append(dirs, filepath.Join(cfg.Paths.ClassInput, sub))
	}
	exts := []string{".csv", ".yaml", ".yml", cfg.MarkdownExtension}

	rebuild := func(ctx context.Context, paths []string) {
		logger.Info("input changed, regenerating",
			zap.Int("files", len(paths)), zap.Strings("tasks", tasks))
		if err := runTasks(ctx, classID, tasks, nil); err != nil {
			logger.Error("regeneration failed", zap.Error(err))
		}
	}

	w, err := watch.New(dirs, exts, rebuild, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	// one full run up front so the output matches the current input
	if err := runTasks(ctx, classID, tasks, nil); err != nil {
		logger.Error("initial generation failed", zap.Error(err))
	}

	logger.Info("watching for changes, press Ctrl-C to stop",
		zap.String("class", classID))
	<-ctx.Done()
	return nil
}
