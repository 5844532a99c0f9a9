// Package convert turns rendered markdown into the delivery formats.
// Pandoc does the heavy lifting as a subprocess; when the executable is
// not installed, HTML conversion falls back to the built-in Goldmark
// renderer (without citation processing).
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

// hangingIndent is injected into each rendered bibliography entry so
// Canvas displays hanging indents without a stylesheet.
const hangingIndent = `style="padding-left: 2em; text-indent: -2em;"`

// Options control a single conversion.
type Options struct {
	// Bibliography is a path to a CSL YAML/JSON bibliography. When set,
	// citeproc runs and a CSL style is attached.
	Bibliography string
	// CSL overrides the converter's default CSL style path.
	CSL string
	// Standalone produces a full document instead of a body fragment.
	Standalone bool
	// ReferenceDocx styles DOCX output from a reference document.
	ReferenceDocx string
	// PDFEngine selects the pandoc PDF engine.
	PDFEngine string
	// ExtraArgs are appended verbatim to the pandoc command line.
	ExtraArgs []string
}

// Converter shells out to pandoc.
type Converter struct {
	executable string
	defaultCSL string
	timeout    time.Duration
	log        *zap.Logger
}

// NewConverter returns a Converter using the given pandoc executable and
// default CSL style path (either may be empty).
func NewConverter(executable, defaultCSL string, timeout time.Duration, log *zap.Logger) *Converter {
	if executable == "" {
		executable = "pandoc"
	}
	return &Converter{
		executable: executable,
		defaultCSL: defaultCSL,
		timeout:    timeout,
		log:        log,
	}
}

// ToHTML converts markdown to an HTML string, with bibliography entries
// post-processed for hanging indents.
func (c *Converter) ToHTML(ctx context.Context, markdown string, opts Options) (string, error) {
	args := c.buildArgs("html", opts)
	out, err := c.run(ctx, args, markdown)
	if err != nil {
		if isNotInstalled(err) {
			c.log.Warn("pandoc not found, falling back to built-in markdown renderer (citations not processed)")
			return fallbackHTML(markdown)
		}
		return "", err
	}
	return applyHangingIndent(out), nil
}

// applyHangingIndent styles each bibliography entry in place.
func applyHangingIndent(html string) string {
	return strings.ReplaceAll(html, `class="csl-entry"`, `class="csl-entry" `+hangingIndent)
}

// ToHTMLFile converts markdown to HTML and writes it to path.
func (c *Converter) ToHTMLFile(ctx context.Context, markdown, path string, opts Options) error {
	html, err := c.ToHTML(ctx, markdown, opts)
	if err != nil {
		return err
	}
	return writeOutput(path, []byte(html))
}

// ToDokuwiki converts markdown to DokuWiki syntax.
func (c *Converter) ToDokuwiki(ctx context.Context, markdown string, opts Options) (string, error) {
	return c.run(ctx, c.buildArgs("dokuwiki", opts), markdown)
}

// ToPDF converts markdown to a PDF at path.
func (c *Converter) ToPDF(ctx context.Context, markdown, path string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	args := append(c.buildArgs("pdf", opts), "-o", path)
	_, err := c.run(ctx, args, markdown)
	return err
}

// ToDocx converts markdown to a DOCX at path.
func (c *Converter) ToDocx(ctx context.Context, markdown, path string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	args := append(c.buildArgs("docx", opts), "-o", path)
	_, err := c.run(ctx, args, markdown)
	return err
}

// buildArgs assembles the pandoc argument list for a target format.
func (c *Converter) buildArgs(target string, opts Options) []string {
	args := []string{"-f", "markdown"}
	switch target {
	case "pdf":
		// pandoc infers PDF from the output filename
		if opts.PDFEngine != "" {
			args = append(args, "--pdf-engine="+opts.PDFEngine)
		}
		args = append(args, "--standalone")
	default:
		args = append(args, "-t", target)
		if opts.Standalone || target == "docx" {
			args = append(args, "--standalone")
		}
	}

	if opts.Bibliography != "" {
		args = append(args, "--bibliography", opts.Bibliography, "--citeproc")
		csl := opts.CSL
		if csl == "" {
			csl = c.defaultCSL
		}
		if csl != "" {
			args = append(args, "--csl", csl)
		} else {
			c.log.Debug("no CSL style configured for conversion with bibliography")
		}
	}

	if target == "docx" && opts.ReferenceDocx != "" {
		if _, err := os.Stat(opts.ReferenceDocx); err == nil {
			args = append(args, "--reference-doc="+opts.ReferenceDocx)
		} else {
			c.log.Warn("reference docx not found, using pandoc default styling",
				zap.String("path", opts.ReferenceDocx))
		}
	}

	return append(args, opts.ExtraArgs...)
}

// run executes pandoc with markdown on stdin and returns stdout.
func (c *Converter) run(ctx context.Context, args []string, markdown string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.executable, args...)
	cmd.Stdin = strings.NewReader(markdown)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug("running pandoc", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if isNotInstalled(err) {
			return "", fmt.Errorf("pandoc executable not found at %q: %w", c.executable, err)
		}
		return "", fmt.Errorf("pandoc failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stderr.Len() > 0 {
		c.log.Debug("pandoc stderr", zap.String("stderr", stderr.String()))
	}
	return stdout.String(), nil
}

func isNotInstalled(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

// fallbackHTML renders markdown with Goldmark (GitHub-flavored tables and
// strikethrough enabled) when pandoc is unavailable.
func fallbackHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("markdown fallback conversion failed: %w", err)
	}
	return buf.String(), nil
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
