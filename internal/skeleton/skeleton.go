// Package skeleton creates placeholder input files for a class so that
// authors can start writing content without inventing filenames. Files
// that already exist are never touched.
package skeleton

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"canversion/internal/config"
)

// weeklySuffixes maps the weekly skeleton target keys to the filename
// suffix appended after the week_NN stem.
var weeklySuffixes = map[string]string{
	"weekly_topics":    "_topic",
	"lecture_scripts":  "_script",
	"lecture_outlines": "_outline",
}

// Creator writes skeleton files under the class input directory.
type Creator struct {
	cfg *config.Config
	log *zap.Logger
}

func NewCreator(cfg *config.Config, log *zap.Logger) *Creator {
	return &Creator{cfg: cfg, log: log}
}

// Create writes one skeleton file per week for each weekly target in
// skeleton_file_targets, and one instructions file per assignment when
// the assignment_instructions target is configured. weeks and assignments
// come from the merged course data; only week_number, title and the
// instructions-file column are consulted.
func (c *Creator) Create(weeks, assignments []map[string]any) error {
	targets := c.cfg.SkeletonTargets
	if len(targets) == 0 {
		c.log.Info("no skeleton_file_targets configured, nothing to create")
		return nil
	}
	inputDir := c.cfg.Paths.ClassInput
	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		return fmt.Errorf("class input directory %s not found", inputDir)
	}

	for targetKey, dirKey := range targets {
		suffix, weekly := weeklySuffixes[targetKey]
		if !weekly {
			continue
		}
		dirName := c.cfg.InputSources.MarkdownDirs[dirKey]
		if dirName == "" {
			c.log.Warn("markdown directory key not found in input_sources, skipping target",
				zap.String("target", targetKey), zap.String("dir_key", dirKey))
			continue
		}
		targetDir := filepath.Join(inputDir, dirName)
		for _, week := range weeks {
			num := zfill(recString(week, "week_number"), 2)
			title := recString(week, "title")
			if title == "" {
				title = "Week " + num
			}
			path := filepath.Join(targetDir, "week_"+num+suffix+c.cfg.MarkdownExtension)
			c.ensure(path, "# "+title+"\n\n")
		}
	}

	dirKey, ok := targets["assignment_instructions"]
	if !ok || len(assignments) == 0 {
		return nil
	}
	dirName := c.cfg.InputSources.MarkdownDirs[dirKey]
	if dirName == "" {
		c.log.Warn("markdown directory key not found for assignment_instructions, skipping",
			zap.String("dir_key", dirKey))
		return nil
	}
	targetDir := filepath.Join(inputDir, dirName)
	for _, assign := range assignments {
		name := recString(assign, "instructions-file")
		if strings.TrimSpace(name) == "" {
			c.log.Warn("assignment has no instructions-file value, cannot create skeleton",
				zap.String("title", recString(assign, "title")))
			continue
		}
		title := recString(assign, "title")
		if title == "" {
			title = "Assignment Instructions"
		}
		path := filepath.Join(targetDir, filepath.Base(name))
		c.ensure(path, "# Assignment: "+title+"\n\n## Instructions\n\n")
	}
	return nil
}

// ensure writes the file with the initial content unless it exists.
func (c *Creator) ensure(path, content string) {
	if _, err := os.Stat(path); err == nil {
		c.log.Debug("file already exists, skipping", zap.String("path", path))
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.log.Error("failed to create skeleton directory", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		c.log.Error("failed to create skeleton file", zap.String("path", path), zap.Error(err))
		return
	}
	c.log.Info("created skeleton file", zap.String("path", path))
}

func recString(rec map[string]any, key string) string {
	if v, ok := rec[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
