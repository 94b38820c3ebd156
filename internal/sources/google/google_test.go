package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kpiboard/internal/core"
	"kpiboard/internal/sources"

	goption "google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "sheet-1", nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", nil)
	if err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-1", nil)
	if !errors.Is(err, sources.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestNewSheetsService_MissingFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/non/existent/key.json")

	_, err := New(context.Background(), "sheet-1", nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestFetchRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/") || !strings.Contains(r.URL.Path, "Development") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("valueRenderOption"); got != "UNFORMATTED_VALUE" {
			t.Errorf("unexpected valueRenderOption %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"range": "Development!A1:C3",
			"majorDimension": "ROWS",
			"values": [
				["Month", "Development Loss", "Finished Development Gates"],
				["January", 3, "2"],
				["October", 1.5, 4]
			]
		}`))
	})

	recs, err := c.FetchRecords(context.Background(), "Development")
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %v", recs)
	}
	if got := core.CoerceInt(recs[0][core.FieldDevelopmentGates]); got != 2 {
		t.Fatalf("gates = %d", got)
	}
	if got := core.CoerceRounded(recs[1][core.FieldDevelopmentLoss]); got != 2 {
		t.Fatalf("loss = %d", got)
	}
}

func TestFetchRecords_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`))
	})

	_, err := c.FetchRecords(context.Background(), "Production")
	if err == nil || !strings.Contains(err.Error(), "read 'Production'") {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
}

func TestFetchRecords_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-1"}
	if _, err := c.FetchRecords(context.Background(), "Production"); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}
