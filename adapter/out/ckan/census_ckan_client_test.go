package ckan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://data.gov.uk", "https://data.gov.uk"},
		{"https://data.gov.uk/", "https://data.gov.uk"},
		{"data.gov.uk", "https://data.gov.uk"},
		{"https://data.gov.uk/api", "https://data.gov.uk"},
		{"https://data.gov.uk/api/", "https://data.gov.uk"},
		{"  https://data.gov.uk  ", "https://data.gov.uk"},
		{"https://example.org/catalog", "https://example.org/catalog"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/status_show", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": {
			"site_title": "Open Data Portal",
			"site_description": "City data",
			"ckan_version": "2.10.1",
			"error_emails_to": "[email protected]",
			"locale_default": "en",
			"extensions": ["datastore", "datapusher"]
		}}`))
	})
	mux.HandleFunc("/api/3/action/group_list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": ["environment", "transport"]}`))
	})
	mux.HandleFunc("/api/3/action/organization_list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": ["city-council"]}`))
	})
	mux.HandleFunc("/api/3/action/package_list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": ["budget-2024", "air-quality", "bus-routes"]}`))
	})
	return httptest.NewServer(mux)
}

func TestSurvey(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client := NewClientWithHTTP(srv.Client())

	meta, err := client.Survey(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Survey() error: %v", err)
	}

	if meta.SiteTitle != "Open Data Portal" {
		t.Errorf("SiteTitle = %q", meta.SiteTitle)
	}
	if meta.CKANVersion != "2.10.1" {
		t.Errorf("CKANVersion = %q", meta.CKANVersion)
	}
	if meta.NumGroups != 2 {
		t.Errorf("NumGroups = %d, want 2", meta.NumGroups)
	}
	if meta.NumOrganizations != 1 {
		t.Errorf("NumOrganizations = %d, want 1", meta.NumOrganizations)
	}
	if meta.NumDatasets != 3 {
		t.Errorf("NumDatasets = %d, want 3", meta.NumDatasets)
	}
	if len(meta.Extensions) != 2 {
		t.Errorf("Extensions = %v", meta.Extensions)
	}
}

func TestSurveyDeadPortalDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClientWithHTTP(srv.Client())

	meta, err := client.Survey(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Survey() should degrade, got error: %v", err)
	}
	if meta.SiteTitle != "" || meta.NumDatasets != 0 {
		t.Errorf("expected empty metadata, got %+v", meta)
	}
}

func TestSurveyUnusableURL(t *testing.T) {
	client := NewClientWithHTTP(http.DefaultClient)
	if _, err := client.Survey(context.Background(), ""); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestAlive(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client := NewClientWithHTTP(srv.Client())
	if !client.Alive(context.Background(), srv.URL) {
		t.Error("Alive() = false for healthy portal")
	}
}
