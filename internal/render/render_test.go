package render

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"kpiboard/internal/core"
)

var fixedNow = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{int64(0), "0"},
		{999, "999"},
		{1234, "1,234"},
		{int64(1234567), "1,234,567"},
		{-9876543, "-9,876,543"},
		{uint32(1000), "1,000"},
		{1234.9, "1,234"},
		{json.Number("2500"), "2,500"},
		{json.Number("2500.7"), "2,500"},
		{" 42000 ", "42,000"},
		{true, "1"},
	}
	for _, tt := range tests {
		got, err := FormatNumber(tt.in)
		if err != nil {
			t.Fatalf("FormatNumber(%#v) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("FormatNumber(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber_Errors(t *testing.T) {
	for _, in := range []any{"abc", "1.5", nil, math.NaN(), math.Inf(1), []int{1}, uint64(math.MaxUint64)} {
		if _, err := FormatNumber(in); err == nil {
			t.Errorf("FormatNumber(%#v) should fail", in)
		}
	}
}

func sampleSummary() core.Summary {
	return core.Aggregate(
		[]core.Record{
			{core.FieldMonth: "January", core.FieldProductionLoss: 1234.4, core.FieldSoldComponents: 5},
			{core.FieldMonth: "October", core.FieldProductionLoss: 3, core.FieldSoldComponents: 1200},
		},
		[]core.Record{{core.FieldMonth: "October", core.FieldDevelopmentLoss: 7, core.FieldDevelopmentGates: 2}},
		fixedNow,
	)
}

func TestNewView(t *testing.T) {
	v := NewView(sampleSummary())
	if len(v.MonthlyDataList) != 2 || v.MonthlyDataList[0].Month != "January" {
		t.Fatalf("unexpected rows %+v", v.MonthlyDataList)
	}
	if v.TotalProductionLoss != 1237 || v.TotalSoldComponents != 1205 {
		t.Fatalf("unexpected totals %+v", v)
	}
	if v.CurrentMonth != "October" || v.CurrentMonthSoldComponents != 1200 || v.CurrentMonthDevelopmentGates != 2 {
		t.Fatalf("unexpected current month bindings %+v", v)
	}
	if v.LastUpdated != "2026-10-14 09:30:00 UTC" {
		t.Fatalf("unexpected LastUpdated %q", v.LastUpdated)
	}
	if v.BuildStamp == "" {
		t.Fatal("expected a build stamp")
	}
}

func TestEmbeddedTemplate(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Execute(&buf, sampleSummary()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"no-cache",
		`content="` + NewView(sampleSummary()).BuildStamp + `"`,
		"1,234",
		"1,205",
		"October",
		"Last updated: 2026-10-14 09:30:00 UTC",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestEmbeddedTemplate_EmptySummary(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Execute(&buf, core.EmptySummary(fixedNow)); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), "No data available") {
		t.Fatal("empty summary should render the placeholder row")
	}
}

func TestTemplateDir(t *testing.T) {
	dir := t.TempDir()
	tpl := `{{range .MonthlyDataList}}{{.Month}}={{format_number .SoldComponents}};{{end}}`
	if err := os.WriteFile(filepath.Join(dir, TemplateName), []byte(tpl), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Execute(&buf, sampleSummary()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if buf.String() != "January=5;October=1,200;" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewFromFS_Errors(t *testing.T) {
	if _, err := NewFromFS(fstest.MapFS{}); err == nil {
		t.Fatal("expected error for missing template")
	}
	bad := fstest.MapFS{TemplateName: {Data: []byte(`{{.Broken`)}}
	if _, err := NewFromFS(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRenderFile(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "public", "index.html")
	if err := r.RenderFile(sampleSummary(), path); err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "KPI Dashboard") {
		t.Fatal("output does not look like the dashboard")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestRenderFile_ExecuteErrorKeepsPrevious(t *testing.T) {
	fsys := fstest.MapFS{TemplateName: {Data: []byte(`{{format_number .CurrentMonth}}`)}}
	r, err := NewFromFS(fsys)
	if err != nil {
		t.Fatalf("NewFromFS: %v", err)
	}
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := r.RenderFile(sampleSummary(), path); err == nil {
		t.Fatal("format_number on a month name should fail")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Fatalf("previous output was replaced: %q", data)
	}
}
