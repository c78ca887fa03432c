// Package events publishes ledger change events. The store stays the source
// of truth; publishers only mirror committed changes to an audit log or a
// Kafka topic for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/carbonledger/internal/engine"
)

// Config selects where ledger events go. Both sinks may be enabled.
type Config struct {
	// AuditLog is a file that receives one JSON event per line.
	AuditLog string `yaml:"audit_log,omitempty" json:"audit_log,omitempty"`
	// Kafka publishes to a topic when brokers are set.
	Kafka KafkaConfig `yaml:"kafka,omitempty" json:"kafka,omitempty"`
}

// Enabled reports whether any sink is configured.
func (c Config) Enabled() bool {
	return c.AuditLog != "" || len(c.Kafka.Brokers) > 0
}

// WriterPublisher writes each event as one JSON line.
type WriterPublisher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterPublisher returns a publisher writing NDJSON to w.
func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{w: w}
}

// Publish implements engine.Publisher.
func (p *WriterPublisher) Publish(_ context.Context, ev engine.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	data = append(data, '\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Multi fans an event out to every publisher concurrently, returning their
// joined errors. One failing publisher never cancels the others.
type Multi []engine.Publisher

// Publish implements engine.Publisher.
func (m Multi) Publish(ctx context.Context, ev engine.Event) error {
	errs := make([]error, len(m))
	var g errgroup.Group
	for i, p := range m {
		g.Go(func() error {
			errs[i] = p.Publish(ctx, ev)
			return errs[i]
		})
	}
	// Wait reports only the first failure; the rest are kept in errs.
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

// Open builds the publishers cfg enables. The returned close function
// releases them all; it is safe to call when nothing was opened.
func Open(cfg Config) (engine.Publisher, func() error, error) {
	var (
		pubs    Multi
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if cfg.AuditLog != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.AuditLog), 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating audit log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening audit log: %w", err)
		}
		pubs = append(pubs, NewWriterPublisher(f))
		closers = append(closers, f.Close)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		pubs = append(pubs, kp)
		closers = append(closers, kp.Close)
	}

	return pubs, closeAll, nil
}
