package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Stage is one step of the auto strategy: Engine joins the race After the
// race began.
type Stage struct {
	Engine Engine
	After  time.Duration
}

// Dispatcher implements the "auto" strategy. The static fetch starts first
// and the browser joins after its escalation delay; the first page obtained
// wins and its engine is remembered for the resort's host.
type Dispatcher struct {
	stages []Stage
	memory *DomainMemory
}

// NewDispatcher creates a Dispatcher over stages, cheapest first.
func NewDispatcher(memory *DomainMemory, stages ...Stage) *Dispatcher {
	return &Dispatcher{stages: stages, memory: memory}
}

// Dispatch returns the first successful result. When every stage fails the
// stage errors are joined.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	host := hostOf(req.URL)

	if eng := d.remembered(host); eng != nil {
		res, err := eng.Fetch(ctx, req)
		if err == nil || ctx.Err() != nil {
			return res, err
		}
		slog.Info("remembered engine failed; escalating from the start",
			"host", host, "engine", eng.Name(), "error", err)
		d.memory.Delete(host)
	}

	res, err := d.race(ctx, req)
	if err != nil {
		return nil, err
	}
	d.memory.Set(host, res.EngineName)
	return res, nil
}

func (d *Dispatcher) remembered(host string) Engine {
	name := d.memory.Get(host)
	if name == "" {
		return nil
	}
	for _, st := range d.stages {
		if st.Engine.Name() == name {
			return st.Engine
		}
	}
	return nil
}

type outcome struct {
	res *FetchResult
	err error
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, len(d.stages))
	for _, st := range d.stages {
		go func() {
			if !waitFor(raceCtx, st.After) {
				done <- outcome{err: raceCtx.Err()}
				return
			}
			res, err := st.Engine.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", st.Engine.Name(), "url", req.URL, "error", err)
				err = fmt.Errorf("%s: %w", st.Engine.Name(), err)
			}
			done <- outcome{res: res, err: err}
		}()
	}

	var errs []error
	for range d.stages {
		o := <-done
		if o.err == nil {
			slog.Debug("engine won", "engine", o.res.EngineName, "url", req.URL)
			return o.res, nil
		}
		if !errors.Is(o.err, context.Canceled) || ctx.Err() != nil {
			errs = append(errs, o.err)
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("dispatcher: no engine fetched %s", req.URL)
	}
	return nil, errors.Join(errs...)
}

// waitFor blocks for d and reports whether ctx is still live afterwards.
func waitFor(ctx context.Context, d time.Duration) bool {
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return ctx.Err() == nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
