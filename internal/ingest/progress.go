package ingest

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage.
const percentMultiplier = 100

// Progress tracks an import run. It is safe for concurrent reads while the
// importer updates it.
type Progress struct {
	mu sync.RWMutex

	total            int
	processed        int
	imported         int
	failed           int
	totalBatches     int
	processedBatches int
	startTime        time.Time
}

func newProgress(total, totalBatches int) *Progress {
	return &Progress{total: total, totalBatches: totalBatches, startTime: time.Now()}
}

func (p *Progress) addBatch(imported, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imported += imported
	p.failed += failed
	p.processed += imported + failed
	p.processedBatches++
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.startTime)
	snap := ProgressSnapshot{
		Total:            p.total,
		Processed:        p.processed,
		Imported:         p.imported,
		Failed:           p.failed,
		TotalBatches:     p.totalBatches,
		ProcessedBatches: p.processedBatches,
		Elapsed:          elapsed,
	}
	if p.total > 0 {
		snap.PercentComplete = float64(p.processed) / float64(p.total) * percentMultiplier
	}
	if p.processed > 0 {
		perItem := elapsed / time.Duration(p.processed)
		snap.Remaining = perItem * time.Duration(p.total-p.processed)
	}
	return snap
}

// ProgressSnapshot is an immutable view of import progress.
type ProgressSnapshot struct {
	Total            int           `json:"total"`
	Processed        int           `json:"processed"`
	Imported         int           `json:"imported"`
	Failed           int           `json:"failed"`
	TotalBatches     int           `json:"total_batches"`
	ProcessedBatches int           `json:"processed_batches"`
	PercentComplete  float64       `json:"percent_complete"`
	Elapsed          time.Duration `json:"elapsed"`
	Remaining        time.Duration `json:"remaining"`
}

// Done reports whether every entry has been processed.
func (s ProgressSnapshot) Done() bool { return s.Processed >= s.Total }
