// Package render turns a core.Summary into the static dashboard page.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"kpiboard/internal/core"
	appweb "kpiboard/web"
)

// TemplateName is the template executed for the page.
const TemplateName = "index.html"

// MonthView is one row of the monthly table.
type MonthView struct {
	Month            string
	ProductionLoss   int64
	SoldComponents   int64
	DevelopmentLoss  int64
	DevelopmentGates int64
	LastUpdated      string
}

// View carries the bindings available to the page template.
type View struct {
	MonthlyDataList []MonthView

	TotalProductionLoss   int64
	TotalSoldComponents   int64
	TotalDevelopmentLoss  int64
	TotalDevelopmentGates int64

	CurrentMonthProductionLoss   int64
	CurrentMonthSoldComponents   int64
	CurrentMonthDevelopmentLoss  int64
	CurrentMonthDevelopmentGates int64

	CurrentMonth string
	LastUpdated  string
	// BuildStamp changes on every build so browsers drop stale copies.
	BuildStamp string
}

// NewView maps a summary onto template bindings.
func NewView(s core.Summary) View {
	rows := make([]MonthView, 0, len(s.Months))
	for _, b := range s.Months {
		rows = append(rows, MonthView{
			Month:            b.Month,
			ProductionLoss:   b.ProductionLoss,
			SoldComponents:   b.SoldComponents,
			DevelopmentLoss:  b.DevelopmentLoss,
			DevelopmentGates: b.DevelopmentGates,
			LastUpdated:      b.LastUpdated.UTC().Format(core.TimestampLayout),
		})
	}
	return View{
		MonthlyDataList: rows,

		TotalProductionLoss:   s.Total.ProductionLoss,
		TotalSoldComponents:   s.Total.SoldComponents,
		TotalDevelopmentLoss:  s.Total.DevelopmentLoss,
		TotalDevelopmentGates: s.Total.DevelopmentGates,

		CurrentMonthProductionLoss:   s.CurrentMonth.ProductionLoss,
		CurrentMonthSoldComponents:   s.CurrentMonth.SoldComponents,
		CurrentMonthDevelopmentLoss:  s.CurrentMonth.DevelopmentLoss,
		CurrentMonthDevelopmentGates: s.CurrentMonth.DevelopmentGates,

		CurrentMonth: s.CurrentMonthName,
		LastUpdated:  s.LastUpdated(),
		BuildStamp:   strconv.FormatInt(s.GeneratedAt.Unix(), 10),
	}
}

type Renderer struct {
	tmpl *template.Template
}

// New loads the page template from dir, or from the embedded templates when
// dir is empty.
func New(dir string) (*Renderer, error) {
	if dir == "" {
		sub, err := fs.Sub(appweb.TemplatesFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("open embedded templates: %w", err)
		}
		return NewFromFS(sub)
	}
	return NewFromFS(os.DirFS(dir))
}

// NewFromFS parses TemplateName from fsys.
func NewFromFS(fsys fs.FS) (*Renderer, error) {
	t, err := template.New(TemplateName).
		Funcs(template.FuncMap{"format_number": FormatNumber}).
		ParseFS(fsys, TemplateName)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", TemplateName, err)
	}
	return &Renderer{tmpl: t}, nil
}

// Execute writes the rendered page to w.
func (r *Renderer) Execute(w io.Writer, s core.Summary) error {
	if err := r.tmpl.ExecuteTemplate(w, TemplateName, NewView(s)); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return nil
}

// RenderFile renders the page and replaces path atomically. On failure the
// previous file, if any, is left untouched.
func (r *Renderer) RenderFile(s core.Summary, path string) error {
	var buf bytes.Buffer
	if err := r.Execute(&buf, s); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}
