package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"vault-inventory/core/lease"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrUnknownPass is returned for a pass name that was never registered.
	ErrUnknownPass = errors.New("unknown reconciliation pass")
	// ErrPassBusy is returned when another process holds the pass lease.
	ErrPassBusy = errors.New("reconciliation pass already running")
)

type entry struct {
	pass     Pass
	interval time.Duration
}

// Scheduler runs passes periodically and on demand.
type Scheduler struct {
	logger   *zap.Logger
	locker   lease.Locker
	leaseTTL time.Duration

	mu        sync.RWMutex
	entries   []entry
	byName    map[string]int
	last      map[string]Report
	observers []func(Report)

	sf singleflight.Group
	wg sync.WaitGroup
}

// NewScheduler creates a scheduler using locker for cross-process exclusion.
func NewScheduler(logger *zap.Logger, locker lease.Locker, leaseTTL time.Duration) *Scheduler {
	if locker == nil {
		locker = lease.NewLocalLocker()
	}
	if leaseTTL <= 0 {
		leaseTTL = 10 * time.Minute
	}
	return &Scheduler{
		logger:   logger,
		locker:   locker,
		leaseTTL: leaseTTL,
		byName:   make(map[string]int),
		last:     make(map[string]Report),
	}
}

// Register adds a pass. A zero interval registers it for manual runs only.
func (s *Scheduler) Register(p Pass, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.byName[p.Name()]; ok {
		s.entries[idx] = entry{pass: p, interval: interval}
		return
	}
	s.byName[p.Name()] = len(s.entries)
	s.entries = append(s.entries, entry{pass: p, interval: interval})
}

// OnReport registers an observer called after every completed run.
func (s *Scheduler) OnReport(fn func(Report)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Passes returns registered pass names in registration order.
func (s *Scheduler) Passes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.pass.Name())
	}
	return names
}

// RunPass runs the named pass now, joining an in-flight run if there is one.
func (s *Scheduler) RunPass(ctx context.Context, name string) (Report, error) {
	s.mu.RLock()
	idx, ok := s.byName[name]
	var p Pass
	if ok {
		p = s.entries[idx].pass
	}
	s.mu.RUnlock()

	if !ok {
		return Report{Pass: name}, fmt.Errorf("%w: %s", ErrUnknownPass, name)
	}
	return s.run(ctx, p)
}

// RunAll runs every registered pass in order. Failures are captured in the
// returned reports; they never stop the remaining passes.
func (s *Scheduler) RunAll(ctx context.Context) []Report {
	names := s.Passes()
	reports := make([]Report, 0, len(names))
	for _, name := range names {
		report, err := s.RunPass(ctx, name)
		if err != nil && report.Error == "" && !report.Skipped {
			report.Error = err.Error()
		}
		reports = append(reports, report)
	}
	return reports
}

// LastReports returns the most recent report of each pass, sorted by name.
func (s *Scheduler) LastReports() []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]Report, 0, len(s.last))
	for _, r := range s.last {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Pass < reports[j].Pass })
	return reports
}

// Start launches one ticker loop per pass with a positive interval. Loops stop
// when ctx is cancelled; call Wait to block until they have exited.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	entries := append([]entry(nil), s.entries...)
	s.mu.RUnlock()

	for _, e := range entries {
		if e.interval <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
}

// Wait blocks until all loops started by Start have returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	s.logger.Info("Reconciliation pass scheduled",
		zap.String("pass", e.pass.Name()),
		zap.Duration("interval", e.interval),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.run(ctx, e.pass); errors.Is(err, ErrPassBusy) {
				s.logger.Debug("Pass held elsewhere, skipping tick", zap.String("pass", e.pass.Name()))
			}
		}
	}
}

func (s *Scheduler) run(ctx context.Context, p Pass) (Report, error) {
	name := p.Name()

	v, err, _ := s.sf.Do(name, func() (any, error) {
		release, ok, err := s.locker.TryAcquire(ctx, name, s.leaseTTL)
		if err != nil {
			s.logger.Error("Failed to acquire pass lease", zap.String("pass", name), zap.Error(err))
			return Report{Pass: name, Error: err.Error()}, fmt.Errorf("acquire lease for %s: %w", name, err)
		}
		if !ok {
			return Report{Pass: name, Skipped: true}, ErrPassBusy
		}
		defer release()

		started := time.Now().UTC()
		report, err := safeRun(ctx, p)
		report.Pass = name
		report.StartedAt = started
		report.FinishedAt = time.Now().UTC()

		if err != nil {
			report.Error = err.Error()
			s.logger.Error("Reconciliation pass failed",
				zap.String("pass", name),
				zap.Duration("duration", report.Duration()),
				zap.Error(err),
			)
		} else {
			s.logger.Info("Reconciliation pass completed",
				zap.String("pass", name),
				zap.Int("affected", report.Affected),
				zap.Int("failures", len(report.Failures)),
				zap.Duration("duration", report.Duration()),
			)
		}

		s.record(report)
		return report, err
	})

	return v.(Report), err
}

func (s *Scheduler) record(r Report) {
	s.mu.Lock()
	s.last[r.Pass] = r
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(r)
	}
}

// safeRun turns a panicking pass into an error.
func safeRun(ctx context.Context, p Pass) (report Report, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pass %s panicked: %v", p.Name(), rec)
		}
	}()
	return p.Run(ctx)
}
