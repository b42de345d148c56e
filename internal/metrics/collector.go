package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates minification counters. One collector may be shared
// by concurrent Minify calls; every method is also safe on a nil receiver,
// which records nothing.
type Collector struct {
	stats             Stats
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// Stats is a snapshot of the collected counters.
type Stats struct {
	// Documents
	Documents   int64 `json:"documents"`
	ParseErrors int64 `json:"parse_errors"`

	// Size
	BytesIn  int64 `json:"bytes_in"`
	BytesOut int64 `json:"bytes_out"`

	// Transformations
	CommentsRemoved   int64 `json:"comments_removed"`
	ElementsRemoved   int64 `json:"elements_removed"`
	AttributesRemoved int64 `json:"attributes_removed"`

	// Delegated script, style and URL minification
	DelegateCalls    int64 `json:"delegate_calls"`
	DelegateFailures int64 `json:"delegate_failures"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		stats:             Stats{StartTime: now},
		operationCounters: make(map[string]*int64),
		startTime:         now,
	}
}

// RecordDocument records one finished document and its sizes.
func (c *Collector) RecordDocument(bytesIn, bytesOut int) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.stats.Documents, 1)
	atomic.AddInt64(&c.stats.BytesIn, int64(bytesIn))
	atomic.AddInt64(&c.stats.BytesOut, int64(bytesOut))
}

// IncrementParseError records a document rejected by the parser.
func (c *Collector) IncrementParseError() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.stats.ParseErrors, 1)
}

func (c *Collector) IncrementCommentRemoved() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.stats.CommentsRemoved, 1)
}

func (c *Collector) IncrementElementRemoved() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.stats.ElementsRemoved, 1)
}

// AddAttributesRemoved records n attributes dropped from one element.
func (c *Collector) AddAttributesRemoved(n int) {
	if c == nil || n == 0 {
		return
	}
	atomic.AddInt64(&c.stats.AttributesRemoved, int64(n))
}

// RecordDelegateCall records one call to a script, style or URL minifier.
func (c *Collector) RecordDelegateCall(failed bool) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.stats.DelegateCalls, 1)
	if failed {
		atomic.AddInt64(&c.stats.DelegateFailures, 1)
	}
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	c.AddCustomCounter(name, 1)
}

// AddCustomCounter adds n to a custom named counter.
func (c *Collector) AddCustomCounter(name string, n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, n)
	} else {
		newCounter := n
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns the current counters.
func (c *Collector) GetMetrics() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Documents:         atomic.LoadInt64(&c.stats.Documents),
		ParseErrors:       atomic.LoadInt64(&c.stats.ParseErrors),
		BytesIn:           atomic.LoadInt64(&c.stats.BytesIn),
		BytesOut:          atomic.LoadInt64(&c.stats.BytesOut),
		CommentsRemoved:   atomic.LoadInt64(&c.stats.CommentsRemoved),
		ElementsRemoved:   atomic.LoadInt64(&c.stats.ElementsRemoved),
		AttributesRemoved: atomic.LoadInt64(&c.stats.AttributesRemoved),
		DelegateCalls:     atomic.LoadInt64(&c.stats.DelegateCalls),
		DelegateFailures:  atomic.LoadInt64(&c.stats.DelegateFailures),
		StartTime:         c.stats.StartTime,
		Uptime:            time.Since(c.startTime),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	result := make(map[string]int64)
	if c == nil {
		return result
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.StoreInt64(&c.stats.Documents, 0)
	atomic.StoreInt64(&c.stats.ParseErrors, 0)
	atomic.StoreInt64(&c.stats.BytesIn, 0)
	atomic.StoreInt64(&c.stats.BytesOut, 0)
	atomic.StoreInt64(&c.stats.CommentsRemoved, 0)
	atomic.StoreInt64(&c.stats.ElementsRemoved, 0)
	atomic.StoreInt64(&c.stats.AttributesRemoved, 0)
	atomic.StoreInt64(&c.stats.DelegateCalls, 0)
	atomic.StoreInt64(&c.stats.DelegateFailures, 0)

	now := time.Now()
	c.stats.StartTime = now
	c.operationCounters = make(map[string]*int64)
	c.startTime = now
}

// Merge adds the counters of other to c.
func (c *Collector) Merge(other *Collector) {
	if c == nil || other == nil || c == other {
		return
	}
	m := other.GetMetrics()
	atomic.AddInt64(&c.stats.Documents, m.Documents)
	atomic.AddInt64(&c.stats.ParseErrors, m.ParseErrors)
	atomic.AddInt64(&c.stats.BytesIn, m.BytesIn)
	atomic.AddInt64(&c.stats.BytesOut, m.BytesOut)
	atomic.AddInt64(&c.stats.CommentsRemoved, m.CommentsRemoved)
	atomic.AddInt64(&c.stats.ElementsRemoved, m.ElementsRemoved)
	atomic.AddInt64(&c.stats.AttributesRemoved, m.AttributesRemoved)
	atomic.AddInt64(&c.stats.DelegateCalls, m.DelegateCalls)
	atomic.AddInt64(&c.stats.DelegateFailures, m.DelegateFailures)

	for name, n := range other.GetCustomCounters() {
		c.AddCustomCounter(name, n)
	}
}

// CompressionRatio returns output bytes over input bytes, 1.0 before any
// document has been recorded.
func (c *Collector) CompressionRatio() float64 {
	m := c.GetMetrics()
	if m.BytesIn == 0 {
		return 1.0
	}
	return float64(m.BytesOut) / float64(m.BytesIn)
}

// DelegateFailureRate returns the percentage of delegate calls that failed.
func (c *Collector) DelegateFailureRate() float64 {
	m := c.GetMetrics()
	if m.DelegateCalls == 0 {
		return 0.0
	}
	return float64(m.DelegateFailures) / float64(m.DelegateCalls) * 100.0
}
