package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	name  string
	delay time.Duration
	err   error
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{HTML: "<html>" + f.name + "</html>", EngineName: f.name}, nil
}

func TestDispatcher_FirstEngineWins(t *testing.T) {
	fast := &fakeEngine{name: "http"}
	slow := &fakeEngine{name: "rod"}
	mem := NewDomainMemory(0)
	d := NewDispatcher(mem, Stage{Engine: fast}, Stage{Engine: slow, After: time.Second})

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://rusutsu.com/lifts"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "http" {
		t.Errorf("winner = %q, want http", res.EngineName)
	}
	if slow.calls.Load() != 0 {
		t.Error("escalated engine should not start once the race is won")
	}
	if got := mem.Get("rusutsu.com"); got != "http" {
		t.Errorf("memory = %q, want http", got)
	}
}

func TestDispatcher_EscalatesOnFailure(t *testing.T) {
	static := &fakeEngine{name: "http", err: errors.New("page looks client-rendered")}
	browser := &fakeEngine{name: "rod"}
	mem := NewDomainMemory(0)
	d := NewDispatcher(mem, Stage{Engine: static}, Stage{Engine: browser, After: 10 * time.Millisecond})

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://rusutsu.com/weather"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "rod" {
		t.Errorf("winner = %q, want rod", res.EngineName)
	}
	if got := mem.Get("rusutsu.com"); got != "rod" {
		t.Errorf("memory = %q, want rod", got)
	}

	// The remembered engine is used directly on the next fetch.
	if _, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://rusutsu.com/lifts"}); err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if static.calls.Load() != 1 {
		t.Errorf("static engine calls = %d, want 1", static.calls.Load())
	}
}

func TestDispatcher_AllFail(t *testing.T) {
	first := errors.New("shell page")
	crash := errors.New("browser crashed")
	mem := NewDomainMemory(0)
	d := NewDispatcher(mem,
		Stage{Engine: &fakeEngine{name: "http", err: first}},
		Stage{Engine: &fakeEngine{name: "rod", err: crash, delay: 5 * time.Millisecond}},
	)

	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com"})
	if !errors.Is(err, first) || !errors.Is(err, crash) {
		t.Fatalf("err = %v, want both engine errors", err)
	}
	if got := mem.Get("example.com"); got != "" {
		t.Errorf("memory = %q after total failure", got)
	}
}

func TestDispatcher_StaleMemoryFallsBackToRace(t *testing.T) {
	broken := &fakeEngine{name: "rod", err: errors.New("crash")}
	ok := &fakeEngine{name: "http"}
	mem := NewDomainMemory(0)
	mem.Set("example.com", "rod")

	d := NewDispatcher(mem, Stage{Engine: ok}, Stage{Engine: broken, After: time.Second})
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "http" {
		t.Errorf("winner = %q", res.EngineName)
	}
	if got := mem.Get("example.com"); got != "http" {
		t.Errorf("memory = %q, want http", got)
	}
}

func TestDomainMemory_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewDomainMemory(time.Minute)
	mem.now = func() time.Time { return now }

	mem.Set("a.com", "rod")
	if got := mem.Get("a.com"); got != "rod" {
		t.Fatalf("Get = %q", got)
	}
	now = now.Add(2 * time.Minute)
	if got := mem.Get("a.com"); got != "" {
		t.Errorf("expired entry returned %q", got)
	}
}

func TestBrowserHealth(t *testing.T) {
	h := NewBrowserHealth()
	if h.ShouldRelaunch() {
		t.Fatal("fresh browser should not be relaunched")
	}
	h.RecordFailure()
	h.RecordFailure()
	h.RecordSuccess()
	h.RecordFailure()
	if h.ShouldRelaunch() {
		t.Fatal("score 2.5 should not trigger relaunch")
	}
	h.RecordFailure()
	if !h.ShouldRelaunch() {
		t.Error("score 3.5 should trigger relaunch")
	}

	aged := NewBrowserHealth()
	aged.now = func() time.Time { return aged.launched.Add(maxAge) }
	if !aged.ShouldRelaunch() {
		t.Error("old browser should be relaunched")
	}
}
