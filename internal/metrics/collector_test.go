package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	if collector == nil {
		t.Fatal("NewCollector() returned nil")
	}

	if collector.operationCounters == nil {
		t.Fatal("operationCounters not initialized")
	}

	metrics := collector.GetMetrics()
	if metrics.Documents != 0 {
		t.Errorf("Expected no documents, got %d", metrics.Documents)
	}

	if ratio := collector.CompressionRatio(); ratio != 1.0 {
		t.Errorf("Expected initial compression ratio 1.0, got %f", ratio)
	}
}

func TestDocumentMetrics(t *testing.T) {
	collector := NewCollector()

	collector.RecordDocument(1000, 600)
	collector.RecordDocument(1000, 400)
	collector.IncrementParseError()

	metrics := collector.GetMetrics()
	if metrics.Documents != 2 {
		t.Errorf("Expected 2 documents, got %d", metrics.Documents)
	}

	if metrics.BytesIn != 2000 || metrics.BytesOut != 1000 {
		t.Errorf("Expected 2000 bytes in and 1000 out, got %d and %d", metrics.BytesIn, metrics.BytesOut)
	}

	if metrics.ParseErrors != 1 {
		t.Errorf("Expected 1 parse error, got %d", metrics.ParseErrors)
	}

	if ratio := collector.CompressionRatio(); ratio != 0.5 {
		t.Errorf("Expected compression ratio 0.5, got %f", ratio)
	}
}

func TestTransformationMetrics(t *testing.T) {
	collector := NewCollector()

	collector.IncrementCommentRemoved()
	collector.IncrementCommentRemoved()
	collector.IncrementElementRemoved()
	collector.AddAttributesRemoved(3)
	collector.AddAttributesRemoved(0)

	metrics := collector.GetMetrics()
	if metrics.CommentsRemoved != 2 {
		t.Errorf("Expected 2 comments removed, got %d", metrics.CommentsRemoved)
	}

	if metrics.ElementsRemoved != 1 {
		t.Errorf("Expected 1 element removed, got %d", metrics.ElementsRemoved)
	}

	if metrics.AttributesRemoved != 3 {
		t.Errorf("Expected 3 attributes removed, got %d", metrics.AttributesRemoved)
	}
}

func TestDelegateFailureRate(t *testing.T) {
	collector := NewCollector()

	if rate := collector.DelegateFailureRate(); rate != 0.0 {
		t.Errorf("Expected 0%% failure rate with no calls, got %.1f%%", rate)
	}

	collector.RecordDelegateCall(false)
	collector.RecordDelegateCall(false)
	collector.RecordDelegateCall(false)
	collector.RecordDelegateCall(true)

	// 1 failure out of 4 calls
	if rate := collector.DelegateFailureRate(); rate != 25.0 {
		t.Errorf("Expected 25.0%% failure rate, got %.1f%%", rate)
	}
}

func TestCustomCounters(t *testing.T) {
	collector := NewCollector()

	collector.IncrementCustomCounter("script")
	collector.IncrementCustomCounter("script")
	collector.IncrementCustomCounter("style")

	counters := collector.GetCustomCounters()

	if counters["script"] != 2 {
		t.Errorf("Expected script count 2, got %d", counters["script"])
	}

	if counters["style"] != 1 {
		t.Errorf("Expected style count 1, got %d", counters["style"])
	}
}

func TestNilCollector(t *testing.T) {
	var collector *Collector

	collector.RecordDocument(10, 5)
	collector.IncrementCommentRemoved()
	collector.RecordDelegateCall(true)
	collector.IncrementCustomCounter("x")
	collector.Reset()

	if metrics := collector.GetMetrics(); metrics.Documents != 0 {
		t.Errorf("Expected zero metrics from nil collector, got %d documents", metrics.Documents)
	}

	if counters := collector.GetCustomCounters(); len(counters) != 0 {
		t.Errorf("Expected no custom counters, got %d", len(counters))
	}
}

func TestMetricsReset(t *testing.T) {
	collector := NewCollector()

	collector.RecordDocument(100, 50)
	collector.IncrementElementRemoved()
	collector.RecordDelegateCall(true)
	collector.IncrementCustomCounter("test_counter")

	if collector.GetMetrics().Documents == 0 {
		t.Error("Expected non-zero documents before reset")
	}

	collector.Reset()

	metrics := collector.GetMetrics()
	if metrics.Documents != 0 || metrics.BytesIn != 0 || metrics.ElementsRemoved != 0 {
		t.Errorf("Expected zero counters after reset, got %+v", metrics)
	}

	if metrics.DelegateFailures != 0 {
		t.Errorf("Expected delegate failures to be 0 after reset, got %d", metrics.DelegateFailures)
	}

	if counters := collector.GetCustomCounters(); len(counters) != 0 {
		t.Errorf("Expected custom counters to be empty after reset, got %d", len(counters))
	}
}

func TestMerge(t *testing.T) {
	total := NewCollector()
	call := NewCollector()
	call.RecordDocument(100, 40)
	call.IncrementCommentRemoved()
	call.AddAttributesRemoved(3)
	call.RecordDelegateCall(true)
	call.IncrementCustomCounter("delegate_js")

	total.Merge(call)
	total.Merge(call)
	total.Merge(nil)
	total.Merge(total)

	metrics := total.GetMetrics()
	if metrics.Documents != 2 || metrics.BytesIn != 200 || metrics.BytesOut != 80 {
		t.Errorf("Unexpected document counters: %+v", metrics)
	}
	if metrics.CommentsRemoved != 2 || metrics.AttributesRemoved != 6 {
		t.Errorf("Unexpected transformation counters: %+v", metrics)
	}
	if metrics.DelegateCalls != 2 || metrics.DelegateFailures != 2 {
		t.Errorf("Unexpected delegate counters: %+v", metrics)
	}
	if got := total.GetCustomCounters()["delegate_js"]; got != 2 {
		t.Errorf("Expected delegate_js=2, got %d", got)
	}

	var nilCollector *Collector
	nilCollector.Merge(call)
}

func TestStatsJSON(t *testing.T) {
	collector := NewCollector()
	collector.RecordDocument(10, 4)

	data, err := json.Marshal(collector.GetMetrics())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded["bytes_out"] != float64(4) {
		t.Errorf("Expected bytes_out 4, got %v", decoded["bytes_out"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	collector := NewCollector()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				collector.RecordDocument(10, 5)
				collector.RecordDelegateCall(i%10 == 0)
				collector.IncrementCustomCounter("worker")
				_ = collector.GetMetrics()
			}
		}()
	}
	wg.Wait()

	metrics := collector.GetMetrics()
	if metrics.Documents != 400 {
		t.Errorf("Expected 400 documents, got %d", metrics.Documents)
	}

	if metrics.DelegateFailures != 40 {
		t.Errorf("Expected 40 delegate failures, got %d", metrics.DelegateFailures)
	}

	if counters := collector.GetCustomCounters(); counters["worker"] != 400 {
		t.Errorf("Expected worker count 400, got %d", counters["worker"])
	}
}

func TestAddCustomCounter(t *testing.T) {
	collector := NewCollector()
	collector.AddCustomCounter("fragments_protected", 3)
	collector.IncrementCustomCounter("fragments_protected")

	if got := collector.GetCustomCounters()["fragments_protected"]; got != 4 {
		t.Errorf("Expected 4 protected fragments, got %d", got)
	}

	var nilCollector *Collector
	nilCollector.AddCustomCounter("x", 1)
	if counters := nilCollector.GetCustomCounters(); len(counters) != 0 {
		t.Errorf("Expected no counters on nil collector, got %v", counters)
	}
}
