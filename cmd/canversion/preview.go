package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"canversion/internal/aggregate"
	"canversion/internal/loader"
	"canversion/internal/render"
)

var (
	previewWeek   string
	previewStatic string
	previewRaw    bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <class-id>",
	Short: "Render a page to the terminal without publishing",
	Long: `Renders one page through the wiki templates and pretty-prints the
markdown in the terminal. Useful for checking content and template
changes before a generate run.

Examples:
  canversion preview anthro101 --week 3
  canversion preview anthro101 --static course_outline
  canversion preview anthro101 --week 3 --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewWeek, "week", "w", "", "preview the weekly page for this week number")
	previewCmd.Flags().StringVar(&previewStatic, "static", "", "preview the static page with this slug")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "print the raw markdown instead of styled output")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	data := loader.Load(cfg, logger)
	proc := aggregate.NewProcessor(logger)
	course := proc.BuildContext(data.Inputs(cfg))

	tm, err := render.NewManager(cfg.Paths.Templates, logger)
	if err != nil {
		return err
	}

	md, err := previewMarkdown(tm, course)
	if err != nil {
		return err
	}
	if previewRaw {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	styled, err := renderer.Render(md)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), styled)
	return nil
}

// previewMarkdown picks the requested page and renders it. With no flags
// the first week of the schedule is shown.
func previewMarkdown(tm *render.Manager, course map[string]any) (string, error) {
	if previewStatic != "" {
		pages, _ := course["static_pages_structured"].(map[string]aggregate.StaticPage)
		page, ok := pages[previewStatic]
		if !ok {
			return "", fmt.Errorf("no static page with slug %q", previewStatic)
		}
		return tm.Render("wiki/static_page.md.tmpl", map[string]any{
			"page":   page,
			"course": course,
		})
	}

	weeks, _ := course["weeks"].([]map[string]any)
	if len(weeks) == 0 {
		return "", fmt.Errorf("no weekly data to preview")
	}
	week := weeks[0]
	if previewWeek != "" {
		found := false
		for _, w := range weeks {
			if fmt.Sprintf("%v", w["week_number"]) == previewWeek {
				week = w
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("week %q not found in the schedule", previewWeek)
		}
	}
	return tm.Render("wiki/weekly_page.md.tmpl", map[string]any{
		"week":   week,
		"course": course,
	})
}
