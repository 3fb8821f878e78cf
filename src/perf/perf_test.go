package perf

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBlocks(t *testing.T) {
	rp := MakeNewRequestPerf("GET [^/$]", "GET", "/")
	outer := rp.StartBlock("MIDDLEWARE", "Load common data")
	inner := rp.StartBlock("SQL", "Fetch articles")
	inner.End()
	rp.EndRequest()

	assert.Len(t, rp.Blocks, 2)
	for _, block := range rp.Blocks {
		assert.False(t, block.End.IsZero(), "block %s was not closed", block.Description)
	}
	assert.False(t, rp.End.Before(rp.Start))

	// ending an already-closed block is harmless
	outer.End()
}

func TestNilPerf(t *testing.T) {
	var rp *RequestPerf
	b := rp.StartBlock("SQL", "nothing")
	b.End()
	rp.EndRequest()

	assert.Nil(t, ExtractPerf(context.Background()))
}

func TestCollector(t *testing.T) {
	collector, job := RunPerfCollector()
	defer func() {
		job.Cancel()
		<-job.Finished()
	}()

	rp := MakeNewRequestPerf("GET [^/collector-test$]", "GET", "/collector-test")
	rp.Status = 200
	rp.StartBlock("SQL", "Collector test query")
	time.Sleep(time.Millisecond)
	rp.EndRequest()
	collector.SubmitRun(rp)

	storage := collector.GetPerfCopy()
	if assert.Len(t, storage.AllRequests, 1) {
		assert.Equal(t, "/collector-test", storage.AllRequests[0].Path)
	}
	assert.GreaterOrEqual(t, testutil.CollectAndCount(RequestDuration, "inkwell_request_duration_seconds"), 1)
}

func TestCollectorStopped(t *testing.T) {
	collector, job := RunPerfCollector()
	job.Cancel()
	<-job.Finished()

	done := make(chan struct{})
	go func() {
		collector.SubmitRun(MakeNewRequestPerf("GET [^/$]", "GET", "/"))
		assert.Empty(t, collector.GetPerfCopy().AllRequests)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stopped collector blocked")
	}
}
