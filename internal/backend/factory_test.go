package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kpiboard/internal/config"
	"kpiboard/internal/sources"
	"kpiboard/internal/sources/airtable"
	"kpiboard/internal/sources/memory"
)

func quietFactory() Factory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sqlite").IsValid() {
		t.Error("sqlite is not a record source")
	}
	if got := GetBackendTypeStrings(); len(got) != 3 || got[0] != "airtable" {
		t.Errorf("unexpected backend strings %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	_, err := FromAppConfig(&config.Config{DataBackend: "bogus"})
	if err == nil || !strings.Contains(err.Error(), "valid: airtable, sheets, memory") {
		t.Fatalf("expected error listing valid backends, got %v", err)
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:      "airtable",
		AirtablePAT:      "pat",
		AirtableBaseID:   "app1",
		AirtableMaxPages: 7,
		DataDir:          "fixtures",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != AirtableBackend || cfg.AirtablePAT != "pat" || cfg.AirtableMaxPages != 7 || cfg.DataDirectory != "fixtures" {
		t.Fatalf("unexpected backend config %+v", cfg)
	}
}

func TestCreateSource_AirtableMissingCredentials(t *testing.T) {
	_, err := quietFactory().CreateSource(context.Background(), Config{Type: AirtableBackend})
	if !errors.Is(err, sources.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestCreateSource_Airtable(t *testing.T) {
	src, err := quietFactory().CreateSource(context.Background(), Config{
		Type:           AirtableBackend,
		AirtablePAT:    "pat",
		AirtableBaseID: "app1",
	})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if _, ok := src.(*airtable.Client); !ok {
		t.Fatalf("expected *airtable.Client, got %T", src)
	}
}

func TestCreateSource_Memory(t *testing.T) {
	src, err := quietFactory().CreateSource(context.Background(), Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if _, ok := src.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", src)
	}
}

func TestCreateSource_Invalid(t *testing.T) {
	f := quietFactory()
	if _, err := f.CreateSource(context.Background(), Config{Type: "nope"}); err == nil {
		t.Fatal("expected error for invalid type")
	}
	if _, err := f.CreateSource(context.Background(), Config{Type: SheetsBackend}); err == nil {
		t.Fatal("expected error for sheets without spreadsheet ID")
	}
}

func TestCreateSource_AirtableWithoutBaseID(t *testing.T) {
	src, err := quietFactory().CreateSource(context.Background(), Config{Type: AirtableBackend, AirtablePAT: "pat"})
	if err != nil {
		t.Fatalf("a missing base ID must not fail source creation: %v", err)
	}
	if _, err := src.FetchRecords(context.Background(), "Production"); !errors.Is(err, airtable.ErrMissingBaseID) {
		t.Fatalf("expected ErrMissingBaseID, got %v", err)
	}
}

func TestCreateSource_SourcesLogWithOwnComponent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[{"fields":{"Month":"May"}}]}`))
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	f := NewFactory(slog.New(slog.NewTextHandler(&buf, nil)))
	src, err := f.CreateSource(context.Background(), Config{
		Type:           AirtableBackend,
		AirtableAPIURL: srv.URL + "/v0",
		AirtableBaseID: "app1",
		AirtablePAT:    "pat",
		HTTPClient:     srv.Client(),
	})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if _, err := src.FetchRecords(context.Background(), "Production"); err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`msg="Initialized Airtable backend" component=backend`,
		`msg="Fetched Airtable table" component=airtable`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
