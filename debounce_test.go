package brokerhub

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_KeepsLastCall(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Value
	done := make(chan struct{})

	for _, term := range []string{"i", "in", "inf", "infy"} {
		d.Do(func() {
			calls.Add(1)
			last.Store(term)
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(40 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if got := last.Load(); got != "infy" {
		t.Errorf("last = %v, want infy", got)
	}
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	ran := false
	d.Do(func() { ran = true })
	d.Flush()
	if !ran {
		t.Error("Flush() did not run the pending call")
	}

	ran = false
	d.Do(func() { ran = true })
	d.Stop()
	d.Flush()
	if ran {
		t.Error("Stop() did not drop the pending call")
	}
}

func TestDebouncer_LateTimerDoesNotRunNewerCall(t *testing.T) {
	const delay = 30 * time.Millisecond
	d := NewDebouncer(delay)

	for i := 0; i < 50; i++ {
		d.Do(func() {})
		// Supersede the first call right around the moment its timer fires.
		time.Sleep(delay)
		ran := make(chan time.Time, 1)
		start := time.Now()
		d.Do(func() { ran <- time.Now() })

		select {
		case at := <-ran:
			if quiet := at.Sub(start); quiet < delay/2 {
				t.Fatalf("iteration %d: newer call ran after %v, want a quiet period of %v", i, quiet, delay)
			}
		case <-time.After(time.Second):
			t.Fatalf("iteration %d: newer call never ran", i)
		}
		d.Stop()
	}
}
