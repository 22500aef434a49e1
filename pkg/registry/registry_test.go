package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/FelipeRosa/lnd-exporter/pkg/collector"
)

func snapshot(names ...string) *collector.Snapshot {
	records := make([]collector.Record, len(names))
	for i, name := range names {
		records[i] = collector.Record{Name: name, Value: 1}
	}

	return &collector.Snapshot{TakenAt: time.Now(), Records: records}
}

func TestCurrent_NotReadyBeforeFirstPublish(t *testing.T) {
	r := New()

	if _, ok := r.Current(); ok {
		t.Fatal("Current on fresh registry: expected ok=false, got true")
	}
}

func TestPublish_AssignsIncreasingGenerations(t *testing.T) {
	r := New()

	for want := uint64(1); want <= 3; want++ {
		r.Publish(snapshot("lnd_block_height"))

		snap, ok := r.Current()
		if !ok {
			t.Fatal("Current after Publish: expected ok=true")
		}
		if snap.Generation != want {
			t.Errorf("generation: got %d, want %d", snap.Generation, want)
		}
	}
}

func TestCurrent_ReturnsLatest(t *testing.T) {
	r := New()

	r.Publish(snapshot("a"))
	r.Publish(snapshot("a", "b"))

	snap, _ := r.Current()
	if len(snap.Records) != 2 {
		t.Errorf("records: got %d, want 2", len(snap.Records))
	}
}

func TestCurrent_HeldSnapshotUnaffectedByPublish(t *testing.T) {
	r := New()

	r.Publish(snapshot("a"))
	held, _ := r.Current()

	r.Publish(snapshot("a", "b", "c"))

	if held.Generation != 1 {
		t.Errorf("held generation: got %d, want 1", held.Generation)
	}
	if len(held.Records) != 1 {
		t.Errorf("held records: got %d, want 1", len(held.Records))
	}
}

func TestConcurrentReaders_GenerationsNonDecreasing(t *testing.T) {
	r := New()
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			var last uint64
			for {
				select {
				case <-done:
					return
				default:
				}

				snap, ok := r.Current()
				if !ok {
					continue
				}

				if snap.Generation < last {
					t.Errorf("generation went backwards: %d after %d",
						snap.Generation, last)
					return
				}
				last = snap.Generation
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		r.Publish(snapshot("lnd_block_height"))
	}

	close(done)
	wg.Wait()

	snap, _ := r.Current()
	if snap.Generation != 1000 {
		t.Errorf("final generation: got %d, want 1000", snap.Generation)
	}
}
