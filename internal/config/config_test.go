package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadMergesGlobalAndClass(t *testing.T) {
	root := t.TempDir()
	globalPath := filepath.Join(root, "user_config", "global_config.yaml")
	writeFile(t, globalPath, `
paths:
  course_data_root_dir: `+root+`
user_details:
  name: Global User
canvas:
  base_url: https://lms.example.edu
pandoc:
  executable: /usr/local/bin/pandoc
`)
	writeFile(t, filepath.Join(root, "ANTH1001_S1", "class_config.yaml"), `
class_meta:
  title: Intro to Anthropology
  canvas_course_id: "4242"
canvas:
  timeout: 45s
input_sources:
  csv_files:
    weekly_schedule: schedule.csv
`)

	cfg, err := Load("ANTH1001_S1", globalPath)
	require.NoError(t, err)

	// class values override, global values survive
	assert.Equal(t, "Intro to Anthropology", cfg.ClassMeta.Title)
	assert.Equal(t, "https://lms.example.edu", cfg.Canvas.BaseURL)
	assert.Equal(t, "45s", cfg.Canvas.Timeout)
	assert.Equal(t, "/usr/local/bin/pandoc", cfg.Pandoc.Executable)
	assert.Equal(t, "Global User", cfg.UserDetails["name"])

	// map entries merge key by key, defaults survive for untouched keys
	assert.Equal(t, "schedule.csv", cfg.InputSources.CSVFiles["weekly_schedule"])
	assert.Equal(t, "assignments.csv", cfg.InputSources.CSVFiles["assignments"])

	// class id is always stamped from the argument
	assert.Equal(t, "ANTH1001_S1", cfg.ClassMeta.ID)

	assert.Equal(t, filepath.Join(root, "ANTH1001_S1"), cfg.Paths.ClassBase)
	assert.Equal(t, filepath.Join(root, "ANTH1001_S1", "input"), cfg.Paths.ClassInput)
	assert.Equal(t, filepath.Join(root, "templates"), cfg.Paths.Templates)
}

func TestLoadMissingClassConfigFails(t *testing.T) {
	root := t.TempDir()
	globalPath := filepath.Join(root, "global_config.yaml")
	writeFile(t, globalPath, "paths:\n  course_data_root_dir: "+root+"\n")

	_, err := Load("NOPE101", globalPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class_config.yaml")
}

func TestLoadMissingGlobalConfigUsesDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "C1", "class_config.yaml"), "class_meta:\n  title: T\n")
	t.Chdir(root)

	cfg, err := Load("C1", filepath.Join(root, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "pandoc", cfg.Pandoc.Executable)
	assert.Equal(t, ".md", cfg.MarkdownExtension)
	assert.Equal(t, "start", cfg.Dokuwiki.OverviewPageName)
}

func TestLoadEmptyClassID(t *testing.T) {
	_, err := Load("", "whatever.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	root := t.TempDir()
	globalPath := filepath.Join(root, "global_config.yaml")
	writeFile(t, globalPath, `
paths:
  course_data_root_dir: `+root+`
canvas:
  api_token: from-yaml
`)
	writeFile(t, filepath.Join(root, "C1", "class_config.yaml"), "class_meta:\n  title: T\n")

	t.Setenv("CANVAS_API_TOKEN", "from-env")
	t.Setenv("DOKUWIKI_BASE_PATH", "/srv/dokuwiki/data/pages")

	cfg, err := Load("C1", globalPath)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Canvas.APIToken)
	assert.Equal(t, "/srv/dokuwiki/data/pages", cfg.Dokuwiki.BasePath)
}

func TestValidateCanvas(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ValidateCanvas())

	cfg.Canvas.BaseURL = "https://lms.example.edu"
	cfg.Canvas.APIToken = "tok"
	assert.Error(t, cfg.ValidateCanvas())

	cfg.ClassMeta.CanvasCourseID = "99"
	assert.NoError(t, cfg.ValidateCanvas())
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Canvas.Timeout = "garbage"
	assert.Equal(t, "30s", cfg.GetCanvasTimeout().String())
	cfg.Pandoc.Timeout = ""
	assert.Equal(t, "2m0s", cfg.GetPandocTimeout().String())
}

func TestEnsureOutputDirs(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths.ClassOutput = filepath.Join(root, "out")
	require.NoError(t, cfg.EnsureOutputDirs())
	assert.DirExists(t, filepath.Join(root, "out", "canvas"))
	assert.DirExists(t, filepath.Join(root, "out", "dokuwiki"))
}

func TestGlobalConfigPathEnvOverride(t *testing.T) {
	t.Setenv("CANVERSION_CONFIG_DIR", "/etc/canversion")
	assert.Equal(t, filepath.Join("/etc/canversion", GlobalConfigFileName), GlobalConfigPath())
}
