package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("runs every site in input order", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		factory := func(site string) (*Pipeline, error) {
			p := New()
			p.AddStep(&mockStep{name: "visit", doFunc: func(context.Context, *Run) error {
				n := running.Add(1)
				defer running.Add(-1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				return nil
			}})
			return p, nil
		}

		sites := []string{"http://a.example", "http://b.example", "http://c.example", "http://d.example"}
		bp := NewBatchProcessor(factory, WithConcurrency(2))
		runs, err := bp.ProcessBatch(context.Background(), sites)
		if err != nil {
			t.Fatalf("ProcessBatch: %v", err)
		}
		if len(runs) != len(sites) {
			t.Fatalf("got %d runs, want %d", len(runs), len(sites))
		}
		for i, run := range runs {
			if run == nil || run.Site != sites[i] {
				t.Errorf("runs[%d] = %+v, want site %s", i, run, sites[i])
				continue
			}
			if len(run.PerformedSteps) != 1 {
				t.Errorf("runs[%d].PerformedSteps = %v", i, run.PerformedSteps)
			}
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency = %d, want at most 2", peak.Load())
		}
	})

	t.Run("failures stay in their run", func(t *testing.T) {
		t.Parallel()

		errFactory := errors.New("no profile")
		errStep := errors.New("step failed")
		factory := func(site string) (*Pipeline, error) {
			switch site {
			case "bad-factory":
				return nil, errFactory
			case "bad-step":
				p := New()
				p.AddStep(&mockStep{name: "fail", doFunc: func(context.Context, *Run) error { return errStep }})
				return p, nil
			}
			return New(), nil
		}

		var seen atomic.Int32
		bp := NewBatchProcessor(factory)
		err := bp.ProcessBatchWithCallback(context.Background(),
			[]string{"bad-factory", "bad-step", "good"},
			func(run *Run, index int) {
				seen.Add(1)
				switch index {
				case 0:
					if !errors.Is(run.Err, errFactory) {
						t.Errorf("run 0 Err = %v, want %v", run.Err, errFactory)
					}
				case 1:
					if !errors.Is(run.Err, errStep) {
						t.Errorf("run 1 Err = %v, want %v", run.Err, errStep)
					}
				case 2:
					if run.Err != nil {
						t.Errorf("run 2 Err = %v", run.Err)
					}
				}
			})
		if err != nil {
			t.Fatalf("ProcessBatchWithCallback: %v", err)
		}
		if seen.Load() != 3 {
			t.Errorf("callback called %d times, want 3", seen.Load())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func(string) (*Pipeline, error) { return New(), nil })
		_, err := bp.ProcessBatch(ctx, []string{"http://a.example"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ProcessBatch error = %v, want context.Canceled", err)
		}
	})
}
