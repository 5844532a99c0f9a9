package main

import (
	"github.com/spf13/cobra"

	"canversion/internal/aggregate"
	"canversion/internal/loader"
	"canversion/internal/skeleton"
)

var skeletonCmd = &cobra.Command{
	Use:   "skeleton <class-id>",
	Short: "Create placeholder input files for a class",
	Long: `Reads the weekly schedule and assignments list, then creates empty
markdown files for every configured skeleton target (weekly topics,
lecture scripts, lecture outlines, assignment instructions). Existing
files are never overwritten.

Run this after filling in weekly_schedule.csv and assignments.csv to
stub out the content files you still have to write.`,
	Args: cobra.ExactArgs(1),
	RunE: runSkeleton,
}

func runSkeleton(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	// only the schedule and assignment tables matter here; fragment
	// directories are expected to be missing at this stage
	data := loader.Load(cfg, logger)
	proc := aggregate.NewProcessor(logger)
	weeks := proc.Weeks(data.Schedule, nil, nil)
	assignments := proc.Assignments(data.Assignments, data.Instructions)

	return skeleton.NewCreator(cfg, logger).Create(weeks, assignments)
}
