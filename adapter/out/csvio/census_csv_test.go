package csvio

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"census_server/core/domain"
)

func TestSourceLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portals.csv")

	input := "URL,Name,Description\n" +
		"https://data.gov.uk,UK Data,National portal\n" +
		",missing url,skipped\n" +
		"dados.gov.br,Dados Abertos,\n"

	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}

	portals, err := NewSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(portals) != 2 {
		t.Fatalf("got %d portals, want 2", len(portals))
	}
	if portals[0].URL != "https://data.gov.uk" || portals[0].Name != "UK Data" {
		t.Errorf("first portal = %+v", portals[0])
	}
	if portals[1].URL != "dados.gov.br" {
		t.Errorf("second portal = %+v", portals[1])
	}
}

func TestSourceMissingURLColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte("name,notes\nfoo,bar\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewSource(path).Load(context.Background()); err == nil {
		t.Error("expected error for csv without url column")
	}
}

func TestSinkWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	portals := []domain.Portal{
		{
			URL: "https://data.gov.uk",
			Classification: &domain.ClassificationResult{
				Category:   domain.CategoryGovernment,
				Confidence: 95.5,
				Stage:      "pattern",
			},
			Location: &domain.PortalLocation{
				Region:  domain.RegionEurope,
				Country: "United Kingdom",
			},
		},
		{
			URL:   "https://broken.example",
			Error: "portal unreachable",
		},
	}

	sink := NewSink(path)
	if err := sink.Write(context.Background(), portals); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][3] != "Government" || rows[1][4] != "95" {
		t.Errorf("classified row = %v", rows[1])
	}
	if rows[1][7] != "Europe" {
		t.Errorf("region cell = %q", rows[1][7])
	}
	if rows[2][12] != "portal unreachable" {
		t.Errorf("error cell = %q", rows[2][12])
	}
}

func TestSinkRewriteReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	sink := NewSink(path)

	one := []domain.Portal{{URL: "https://a.example"}}
	two := []domain.Portal{{URL: "https://a.example"}, {URL: "https://b.example"}}

	if err := sink.Write(context.Background(), one); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(context.Background(), two); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows after rewrite, want 3", len(rows))
	}
}
