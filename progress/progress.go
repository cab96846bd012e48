// Package progress implements the periodic progress reporter (spec §4.8): a
// ticking task that emits a Snapshot until cancelled, guaranteeing one
// final emission so totals are not lost.
//
// Grounded on the teacher's lifecycle.go shutdown sequencing (signal cancel ->
// await worker -> run optional final work -> release), applied here to a
// ticking goroutine instead of a worker pool; spec §5 "Disposal" mandates the
// same shape for every periodic worker in the system.
package progress

import (
	"sync"
	"time"

	"github.com/ygrebnov/rivulet/metrics"
)

// Snapshot is one progress report.
type Snapshot struct {
	ItemsCompleted      int64
	TotalItems          *int64 // nil if unknown
	PercentComplete     *float64
	ItemsPerSecond      float64
	Elapsed             time.Duration
	EstimatedRemaining  *time.Duration
}

// Config configures a Reporter.
type Config struct {
	// ReportInterval is the emission cadence. Default: 100ms.
	ReportInterval time.Duration

	// OnProgress is invoked with each Snapshot, including the final one
	// emitted during Close. Invoked from the reporter's own goroutine;
	// callers must not block it.
	OnProgress func(Snapshot)

	// HasTotal enables PercentComplete/EstimatedRemaining computation from
	// TotalItems on every Snapshot.
	HasTotal bool

	// TotalItems is the expected item count, used only when HasTotal is true.
	TotalItems int64
}

// Reporter runs OnProgress on a fixed cadence until Close.
type Reporter struct {
	cfg   Config
	start time.Time

	completed int64
	mu        sync.Mutex

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// New constructs and starts a Reporter. Callers must call Close; it is
// idempotent.
func New(cfg Config) *Reporter {
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = 100 * time.Millisecond
	}
	r := &Reporter{
		cfg:    cfg,
		start:  time.Now(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go r.run()
	return r
}

// Add increments the completed-items counter, read by the next snapshot.
func (r *Reporter) Add(n int64) {
	r.mu.Lock()
	r.completed += n
	r.mu.Unlock()
}

func (r *Reporter) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.emit()
			return
		case <-ticker.C:
			r.emit()
		}
	}
}

func (r *Reporter) emit() {
	if r.cfg.OnProgress == nil {
		return
	}

	r.mu.Lock()
	completed := r.completed
	r.mu.Unlock()

	elapsed := time.Since(r.start)
	var perSec float64
	if elapsed > 0 {
		perSec = float64(completed) / elapsed.Seconds()
	}

	snap := Snapshot{ItemsCompleted: completed, ItemsPerSecond: perSec, Elapsed: elapsed}

	if r.cfg.HasTotal {
		total := r.cfg.TotalItems
		snap.TotalItems = &total
		if total > 0 {
			pct := float64(completed) / float64(total) * 100
			snap.PercentComplete = &pct
			if perSec > 0 {
				remaining := time.Duration(float64(total-completed)/perSec) * time.Second
				snap.EstimatedRemaining = &remaining
			}
		}
	}

	safeEmit(r.cfg.OnProgress, snap)
}

func safeEmit(cb func(Snapshot), s Snapshot) {
	defer func() {
		if recover() != nil {
			metrics.Default().CallbackFailures.Add(1)
		}
	}()
	cb(s)
}

// Close signals the reporter to stop, waits for one final emission, and
// releases its goroutine. Idempotent.
func (r *Reporter) Close() {
	r.once.Do(func() {
		close(r.stopCh)
		<-r.doneCh
	})
}
