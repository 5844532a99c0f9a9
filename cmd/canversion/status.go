package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"canversion/internal/store"
)

var (
	statusHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusTaskStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusDimStyle    = lipgloss.NewStyle().Faint(true)
)

var statusCmd = &cobra.Command{
	Use:   "status <class-id>",
	Short: "Show what has been uploaded for a class",
	Long: `Lists the upload ledger for a class: every artifact that has been
pushed to Canvas, its content hash and when the last upload happened.
Artifacts whose content has not changed are skipped on the next
generate run.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	ledger, err := store.Open(ledgerPath(cfg))
	if err != nil {
		return err
	}
	defer ledger.Close()

	artifacts, err := ledger.Artifacts()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(artifacts) == 0 {
		fmt.Fprintln(out, "No uploads recorded yet.")
		return nil
	}

	fmt.Fprintln(out, statusHeaderStyle.Render(
		fmt.Sprintf("%-28s %-44s %-10s %s", "TASK", "SLUG", "HASH", "UPLOADED")))
	for _, a := range artifacts {
		hash := a.ContentHash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		fmt.Fprintf(out, "%s %-44s %s %s\n",
			statusTaskStyle.Render(fmt.Sprintf("%-28s", a.Task)),
			a.Slug,
			statusDimStyle.Render(fmt.Sprintf("%-10s", hash)),
			a.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, statusDimStyle.Render(
		fmt.Sprintf("%d artifacts in %s", len(artifacts), ledgerPath(cfg))))
	return nil
}
