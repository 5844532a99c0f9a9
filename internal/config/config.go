package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigFileName is the file holding institution-wide settings.
	GlobalConfigFileName = "global_config.yaml"
	// ClassConfigFileName is the per-class override file inside each class
	// directory.
	ClassConfigFileName = "class_config.yaml"
	// UserConfigDirName is the default directory holding the global config,
	// relative to the courses root.
	UserConfigDirName = "user_config"
)

// Config holds all canversion configuration: the merged result of the
// global file and one class's file, with class values winning.
type Config struct {
	// Class identity and Canvas/DokuWiki coordinates
	ClassMeta ClassMeta `yaml:"class_meta"`

	// Input file and directory mappings under the class input directory
	InputSources InputSources `yaml:"input_sources"`

	// Canvas LMS API
	Canvas CanvasConfig `yaml:"canvas"`

	// DokuWiki filesystem export
	Dokuwiki DokuwikiConfig `yaml:"dokuwiki"`

	// Pandoc document conversion
	Pandoc PandocConfig `yaml:"pandoc"`

	// Default publish flags for uploaded Canvas content
	CanvasDefaults CanvasContentDefaults `yaml:"canvas_content_defaults"`

	// Free-form staff and user details surfaced to templates
	TeachingStaff map[string]any `yaml:"teaching_staff"`
	UserDetails   map[string]any `yaml:"user_details"`

	// Extension of markdown fragment files, including the dot
	MarkdownExtension string `yaml:"markdown_extension"`

	// Skeleton targets: target key -> markdown_dirs key
	SkeletonTargets map[string]string `yaml:"skeleton_file_targets"`

	// Upload ledger
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Configurable path roots
	PathOverrides PathOverrides `yaml:"paths"`

	// Resolved at load time, never read from YAML
	Paths Paths `yaml:"-"`
}

// ClassMeta identifies the class being generated.
type ClassMeta struct {
	ID                string `yaml:"id"`
	DepartmentCode    string `yaml:"department_code"`
	UnitCode          string `yaml:"unit_code"`
	Semester          string `yaml:"semester"`
	Year              string `yaml:"year"`
	Title             string `yaml:"title"`
	Description       string `yaml:"description"`
	CanvasCourseID    string `yaml:"canvas_course_id"`
	DokuwikiNamespace string `yaml:"dokuwiki_namespace"`
}

// InputSources maps logical source keys to file and directory names under
// the class input directory. Entries here override the built-in defaults
// key by key.
type InputSources struct {
	YAMLFiles    map[string]string `yaml:"yaml_files"`
	CSVFiles     map[string]string `yaml:"csv_files"`
	MarkdownDirs map[string]string `yaml:"markdown_dirs"`
	StaticPages  []StaticPageDef   `yaml:"static_pages"`
}

// StaticPageDef declares one standalone content page.
type StaticPageDef struct {
	Slug       string `yaml:"slug"`
	Title      string `yaml:"title"`
	SourceFile string `yaml:"source_file"`
	Template   string `yaml:"template"`
}

// CanvasConfig configures the Canvas LMS REST client.
type CanvasConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"api_token"`
	Timeout  string `yaml:"timeout"`
}

// DokuwikiConfig configures the filesystem export into a DokuWiki
// data/pages tree.
type DokuwikiConfig struct {
	BasePath             string `yaml:"base_path"`
	OverviewPageName     string `yaml:"overview_page_name"`
	OverviewProseSlugKey string `yaml:"overview_prose_slug_key"`
}

// PandocConfig configures the external pandoc converter.
type PandocConfig struct {
	Executable            string `yaml:"executable"`
	DefaultCSLStyle       string `yaml:"default_csl_style"`
	ReferenceDocxSyllabus string `yaml:"reference_docx_syllabus"`
	Timeout               string `yaml:"timeout"`
}

// CanvasContentDefaults sets the publish state of newly uploaded content.
type CanvasContentDefaults struct {
	PublishPages       bool `yaml:"publish_pages"`
	PublishAssignments bool `yaml:"publish_assignments"`
}

// StoreConfig configures the SQLite upload ledger.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// PathOverrides holds the configurable path roots; everything else in
// Paths is derived.
type PathOverrides struct {
	CourseDataRootDir string `yaml:"course_data_root_dir"`
	TemplatesDir      string `yaml:"templates_dir"`
}

// Paths is the resolved directory layout for one class.
type Paths struct {
	CoursesRoot      string
	ClassBase        string
	ClassInput       string
	ClassOutput      string
	Templates        string
	GlobalConfigFile string
	ClassConfigFile  string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		InputSources: InputSources{
			YAMLFiles: map[string]string{
				"class_info":   "class_info.yaml",
				"bibliography": "bibliography.csl.yaml",
			},
			CSVFiles: map[string]string{
				"weekly_schedule":             "weekly_schedule.csv",
				"assignments":                 "assignments.csv",
				"weekly_keywords":             "weekly_keywords.csv",
				"weekly_outcomes":             "weekly_outcomes.csv",
				"weekly_brain_candy":          "weekly_brain_candy.csv",
				"weekly_discussion_questions": "weekly_discussion_questions.csv",
			},
			MarkdownDirs: map[string]string{
				"topics":                  "markdown_topics",
				"assignment_instructions": "markdown_assignments",
				"lecture_scripts":         "markdown_lectures",
				"lecture_outlines":        "markdown_lectures",
			},
		},
		Canvas: CanvasConfig{
			Timeout: "30s",
		},
		Dokuwiki: DokuwikiConfig{
			OverviewPageName:     "start",
			OverviewProseSlugKey: "class_overview_content",
		},
		Pandoc: PandocConfig{
			Executable: "pandoc",
			Timeout:    "120s",
		},
		MarkdownExtension: ".md",
		Store: StoreConfig{
			DatabasePath: "data/canversion.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "canversion.log",
		},
	}
}

// GlobalConfigPath determines the path to the global configuration file.
// CANVERSION_CONFIG_DIR overrides the default user_config directory under
// the current working directory.
func GlobalConfigPath() string {
	if dir := os.Getenv("CANVERSION_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, GlobalConfigFileName)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(UserConfigDirName, GlobalConfigFileName)
	}
	return filepath.Join(cwd, UserConfigDirName, GlobalConfigFileName)
}

// Load loads and merges the global and class-specific configuration for
// classID. The global file is optional; the class file is not. Class
// values override global ones key by key, recursively for nested maps.
func Load(classID, globalPath string) (*Config, error) {
	if classID == "" {
		return nil, fmt.Errorf("class id cannot be empty")
	}

	cfg := DefaultConfig()

	if err := mergeFile(cfg, globalPath, false); err != nil {
		return nil, err
	}

	coursesRoot := cfg.PathOverrides.CourseDataRootDir
	if coursesRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve courses root: %w", err)
		}
		coursesRoot = cwd
	}
	classBase := filepath.Join(coursesRoot, classID)
	classConfigPath := filepath.Join(classBase, ClassConfigFileName)

	if err := mergeFile(cfg, classConfigPath, true); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	cfg.ClassMeta.ID = classID

	templates := cfg.PathOverrides.TemplatesDir
	if templates == "" {
		templates = filepath.Join(coursesRoot, "templates")
	}
	cfg.Paths = Paths{
		CoursesRoot:      coursesRoot,
		ClassBase:        classBase,
		ClassInput:       filepath.Join(classBase, "input"),
		ClassOutput:      filepath.Join(classBase, "output"),
		Templates:        templates,
		GlobalConfigFile: globalPath,
		ClassConfigFile:  classConfigPath,
	}

	return cfg, nil
}

// EnsureOutputDirs creates the class output tree.
func (c *Config) EnsureOutputDirs() error {
	for _, dir := range []string{
		c.Paths.ClassOutput,
		filepath.Join(c.Paths.ClassOutput, "canvas"),
		filepath.Join(c.Paths.ClassOutput, "dokuwiki"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// mergeFile unmarshals path over the current config. Decoding into the
// populated struct is the merge: keys present in the file overwrite,
// everything else is left alone, map entries accumulate.
func mergeFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Secrets are
// expected to arrive this way rather than living in the YAML files.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("CANVAS_API_TOKEN"); token != "" {
		c.Canvas.APIToken = token
	}
	if url := os.Getenv("CANVAS_BASE_URL"); url != "" {
		c.Canvas.BaseURL = url
	}
	if path := os.Getenv("DOKUWIKI_BASE_PATH"); path != "" {
		c.Dokuwiki.BasePath = path
	}
	if path := os.Getenv("CANVERSION_DB"); path != "" {
		c.Store.DatabasePath = path
	}
}

// GetCanvasTimeout returns the Canvas HTTP timeout as a duration.
func (c *Config) GetCanvasTimeout() time.Duration {
	d, err := time.ParseDuration(c.Canvas.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetPandocTimeout returns the per-conversion pandoc timeout as a duration.
func (c *Config) GetPandocTimeout() time.Duration {
	d, err := time.ParseDuration(c.Pandoc.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// ValidateCanvas checks the settings the Canvas upload tasks need.
func (c *Config) ValidateCanvas() error {
	if c.Canvas.BaseURL == "" || c.Canvas.APIToken == "" {
		return fmt.Errorf("canvas base_url and api_token must be configured (set CANVAS_BASE_URL and CANVAS_API_TOKEN)")
	}
	if c.ClassMeta.CanvasCourseID == "" {
		return fmt.Errorf("class_meta.canvas_course_id must be configured")
	}
	return nil
}

// ValidateDokuwiki checks the settings the DokuWiki export tasks need.
func (c *Config) ValidateDokuwiki() error {
	if c.Dokuwiki.BasePath == "" {
		return fmt.Errorf("dokuwiki base_path (to data/pages) must be configured")
	}
	if c.ClassMeta.DokuwikiNamespace == "" {
		return fmt.Errorf("class_meta.dokuwiki_namespace must be configured")
	}
	return nil
}

// SourceFile returns the configured file name for a yaml_files or
// csv_files key, or the empty string.
func (s InputSources) SourceFile(category, key string) string {
	switch category {
	case "yaml_files":
		return s.YAMLFiles[key]
	case "csv_files":
		return s.CSVFiles[key]
	case "markdown_dirs":
		return s.MarkdownDirs[key]
	}
	return ""
}
