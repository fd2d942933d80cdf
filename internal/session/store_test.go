package session

import (
	"sync"
	"testing"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

func TestStoreAppendAndSnapshot(t *testing.T) {
	store := NewStore()
	store.AppendTrial(models.TrialRecord{Trial: 1, Round: 1})
	store.AppendTrial(models.TrialRecord{Trial: 2, Round: 1})
	store.AppendSamples([]models.SampleRecord{
		{Trial: 1, Sample: 0},
		{Trial: 1, Sample: 1},
		{Trial: 2, Sample: 0},
	})

	if store.TrialCount() != 2 || store.SampleCount() != 3 {
		t.Fatalf("counts = %d/%d, want 2/3", store.TrialCount(), store.SampleCount())
	}

	// Snapshots are copies; mutating one must not affect the store.
	trials := store.Trials()
	trials[0].Trial = 99
	if store.Trials()[0].Trial != 1 {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestStoreTrialSamples(t *testing.T) {
	store := NewStore()
	store.AppendSamples([]models.SampleRecord{
		{Trial: 1, Sample: 0},
		{Trial: 2, Sample: 0},
		{Trial: 1, Sample: 1},
	})

	got := store.TrialSamples(1)
	if len(got) != 2 {
		t.Fatalf("trial 1 samples = %d, want 2", len(got))
	}
	for _, r := range got {
		if r.Trial != 1 {
			t.Errorf("foreign sample in trial filter: %+v", r)
		}
	}
	if store.TrialSamples(3) != nil {
		t.Error("unknown trial should return nil")
	}
}

func TestStoreCaptureFirstUploadWins(t *testing.T) {
	store := NewStore()
	store.SetCapture(5, []byte("first"))
	store.SetCapture(5, []byte("second"))

	if got := string(store.Capture(5)); got != "first" {
		t.Errorf("capture = %q, want the first upload", got)
	}
	if store.Capture(6) != nil {
		t.Error("missing capture should be nil")
	}
}

func TestStoreConcurrentReadersAndWriter(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			store.AppendTrial(models.TrialRecord{Trial: i})
			store.AppendSamples([]models.SampleRecord{{Trial: i}})
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = store.Trials()
				_ = store.TrialSamples(i)
			}
		}()
	}
	wg.Wait()

	if store.TrialCount() != 100 {
		t.Errorf("final trial count = %d, want 100", store.TrialCount())
	}
}
