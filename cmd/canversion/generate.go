package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canversion/internal/aggregate"
	"canversion/internal/canvas"
	"canversion/internal/config"
	"canversion/internal/convert"
	"canversion/internal/dokuwiki"
	"canversion/internal/loader"
	"canversion/internal/output"
	"canversion/internal/render"
	"canversion/internal/store"
)

var (
	genTasks    []string
	genAllTasks bool
	genWeeks    []string
)

var generateCmd = &cobra.Command{
	Use:   "generate <class-id>",
	Short: "Generate and publish content for a class",
	Long: `Loads the class input files, merges them into the course context and
runs the requested generation tasks.

Examples:
  canversion generate anthro101 --all-tasks
  canversion generate anthro101 --tasks canvas_weekly_pages,canvas_assignments
  canversion generate anthro101 --tasks dokuwiki_weekly_pages --week 3 --week 4`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the available generation tasks",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range output.AvailableTasks {
			fmt.Println(t)
		}
	},
}

func init() {
	generateCmd.Flags().StringSliceVarP(&genTasks, "tasks", "t", nil, "comma-separated task names to run")
	generateCmd.Flags().BoolVar(&genAllTasks, "all-tasks", false, "run every available task")
	generateCmd.Flags().StringSliceVarP(&genWeeks, "week", "w", nil, "restrict week-scoped tasks to these week numbers")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	tasks, err := resolveTasks()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runTasks(ctx, args[0], tasks, genWeeks)
}

// runTasks loads everything for classID and executes the named tasks. It
// is shared between generate and watch.
func runTasks(ctx context.Context, classID string, tasks, weeks []string) error {
	cfg, err := loadConfig(classID)
	if err != nil {
		return err
	}
	if err := cfg.EnsureOutputDirs(); err != nil {
		return err
	}

	runner, cleanup, err := buildRunner(cfg, tasks)
	if err != nil {
		return err
	}
	defer cleanup()

	return runner.Run(ctx, tasks, weeks)
}

// buildRunner assembles the task runner and its collaborators. Canvas and
// DokuWiki are only wired when a requested task needs them, so local-only
// runs work without credentials.
func buildRunner(cfg *config.Config, tasks []string) (*output.Runner, func(), error) {
	log := logger

	data := loader.Load(cfg, log)
	proc := aggregate.NewProcessor(log)
	course := proc.BuildContext(data.Inputs(cfg))

	tm, err := render.NewManager(cfg.Paths.Templates, log)
	if err != nil {
		return nil, nil, err
	}
	conv := convert.NewConverter(cfg.Pandoc.Executable, cfg.Pandoc.DefaultCSLStyle,
		cfg.GetPandocTimeout(), log)

	var cv *canvas.Client
	if needsCanvas(tasks) {
		if err := cfg.ValidateCanvas(); err != nil {
			return nil, nil, err
		}
		cv, err = canvas.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.APIToken,
			cfg.ClassMeta.CanvasCourseID, cfg.GetCanvasTimeout(), log)
		if err != nil {
			return nil, nil, err
		}
	}

	var wiki *dokuwiki.Writer
	if needsDokuwiki(tasks) {
		if err := cfg.ValidateDokuwiki(); err != nil {
			return nil, nil, err
		}
		wiki, err = dokuwiki.NewWriter(cfg.Dokuwiki.BasePath, cfg.ClassMeta.DokuwikiNamespace, log)
		if err != nil {
			return nil, nil, err
		}
	}

	ledger, err := store.Open(ledgerPath(cfg))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := ledger.Close(); err != nil {
			log.Warn("failed to close upload ledger", zap.Error(err))
		}
	}

	runner := output.NewRunner(output.Deps{
		Config:    cfg,
		Course:    course,
		Templates: tm,
		Converter: conv,
		Canvas:    cv,
		Wiki:      wiki,
		Ledger:    ledger,
		Log:       log,
	})
	return runner, cleanup, nil
}

// ledgerPath resolves the configured ledger database path against the
// class directory when it is relative.
func ledgerPath(cfg *config.Config) string {
	p := cfg.Store.DatabasePath
	if !filepath.IsAbs(p) {
		p = filepath.Join(cfg.Paths.ClassBase, p)
	}
	return p
}

func resolveTasks() ([]string, error) {
	if genAllTasks {
		return output.AvailableTasks, nil
	}
	if len(genTasks) == 0 {
		return nil, fmt.Errorf("nothing to do: pass --tasks or --all-tasks (see 'canversion tasks')")
	}
	return genTasks, nil
}

func needsCanvas(tasks []string) bool {
	for _, t := range tasks {
		if strings.HasPrefix(t, "canvas_") {
			return true
		}
	}
	return false
}

func needsDokuwiki(tasks []string) bool {
	for _, t := range tasks {
		if strings.HasPrefix(t, "dokuwiki_") {
			return true
		}
	}
	return false
}
