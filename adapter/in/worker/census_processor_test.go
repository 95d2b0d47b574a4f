package worker

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"census_server/core/domain"
	"census_server/core/port/in"

	"github.com/rs/zerolog"
)

type fakeCensus struct {
	processed atomic.Int64
}

var _ in.CensusService = (*fakeCensus)(nil)

func (f *fakeCensus) Classify(url string) domain.ClassificationResult {
	return domain.ClassificationResult{
		Category:   domain.CategoryRegional,
		Confidence: 40,
		Stage:      "default",
	}
}

func (f *fakeCensus) NormalizeRegion(text string) domain.Region {
	return domain.RegionUncertain
}

func (f *fakeCensus) ProcessPortal(ctx context.Context, portal domain.Portal) domain.Portal {
	f.processed.Add(1)
	c := f.Classify(portal.URL)
	portal.Classification = &c
	return portal
}

func (f *fakeCensus) SurveyPortal(ctx context.Context, url string) (*domain.PortalMetadata, error) {
	return nil, nil
}

func (f *fakeCensus) ClassifyPortal(ctx context.Context, url string) (domain.ClassificationResult, error) {
	return f.Classify(url), nil
}

func (f *fakeCensus) LocatePortal(ctx context.Context, url string) (*domain.PortalLocation, error) {
	return &domain.PortalLocation{Region: domain.RegionUncertain}, nil
}

func (f *fakeCensus) GetPortal(ctx context.Context, url string) (*domain.Portal, error) {
	return nil, nil
}

func (f *fakeCensus) DeletePortal(ctx context.Context, url string) error {
	return nil
}

func (f *fakeCensus) ListPortals(ctx context.Context, req *in.ListPortalsRequest) (*in.ListPortalsResponse, error) {
	return &in.ListPortalsResponse{Portals: []*domain.Portal{}}, nil
}

func (f *fakeCensus) GetStats(ctx context.Context) (*in.CensusStats, error) {
	return &in.CensusStats{}, nil
}

func writeInputCSV(t *testing.T, path string, rows int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"url", "name"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < rows; i++ {
		if err := w.Write([]string{fmt.Sprintf("https://portal-%d.example.net", i), ""}); err != nil {
			t.Fatal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
}

// TestBatchProcessRunConcurrent pushes a large input through ProcessRun with
// high concurrency and a tight flush interval, so concurrent flush decisions
// overlap. Every input row must land in the output exactly once.
func TestBatchProcessRunConcurrent(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	output := filepath.Join(dir, "out.csv")
	writeInputCSV(t, input, 300)

	fake := &fakeCensus{}
	b := NewBatchProcessor(fake, 64)
	b.flushEvery = 3

	msg := NewMessage(JobBatchRun, map[string]any{
		"input_path":  input,
		"output_path": output,
	})

	if err := b.ProcessRun(context.Background(), msg); err != nil {
		t.Fatalf("ProcessRun: %v", err)
	}

	if got := fake.processed.Load(); got != 300 {
		t.Errorf("processed %d portals, want 300", got)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 301 {
		t.Fatalf("output has %d rows, want header + 300", len(rows))
	}

	seen := make(map[string]bool, 300)
	for _, row := range rows[1:] {
		if seen[row[0]] {
			t.Errorf("portal %s written twice", row[0])
		}
		seen[row[0]] = true
		if row[4] != "40" {
			t.Errorf("confidence cell = %q, want 40", row[4])
		}
	}
}

// TestPoolDeadLetterHandler drives an unparsable job through the pool and
// checks the dead letter callback fires once retries are exhausted.
func TestPoolDeadLetterHandler(t *testing.T) {
	fake := &fakeCensus{}
	handler := NewHandler(NewPortalProcessor(fake), NewBatchProcessor(fake, 1))

	config := DefaultPoolConfig()
	config.MaxWorkers = 2
	config.BatchSize = 1
	config.WorkerChanSize = 1
	config.MaxRetries = 0

	p := NewPool(handler, config, zerolog.Nop())

	dead := make(chan *Message, 1)
	p.SetDeadLetterHandler(func(msg *Message) {
		select {
		case dead <- msg:
		default:
		}
	})

	p.Start()
	defer p.Stop()

	// A numeric url fails payload decoding, so the job errors immediately.
	msg := NewMessage(JobPortalProcess, map[string]any{"url": 12345})
	if !p.Submit(msg) {
		t.Fatal("Submit rejected the job")
	}

	select {
	case got := <-dead:
		if got.ID != msg.ID {
			t.Errorf("dead letter job id = %s, want %s", got.ID, msg.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dead letter handler was not invoked")
	}
}
