package perf

import (
	"context"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/jobs"
)

type RequestPerf struct {
	Route  string
	Path   string // the path actually matched
	Method string
	Status int
	Start  time.Time
	End    time.Time
	Blocks []PerfBlock
}

func MakeNewRequestPerf(route string, method string, path string) *RequestPerf {
	return &RequestPerf{
		Start:  time.Now(),
		Route:  route,
		Path:   path,
		Method: method,
	}
}

func (rp *RequestPerf) EndRequest() {
	if rp == nil {
		return
	}

	for i := range rp.Blocks {
		if rp.Blocks[i].End.IsZero() {
			rp.Blocks[i].End = time.Now()
		}
	}
	rp.End = time.Now()
}

func (rp *RequestPerf) Duration() time.Duration {
	return rp.End.Sub(rp.Start)
}

type BlockHandle struct {
	rp  *RequestPerf
	idx int
}

// Starts a timed block. Calling End on the returned handle closes it. Safe to
// call on a nil RequestPerf, in which case nothing is recorded.
func (rp *RequestPerf) StartBlock(category, description string) *BlockHandle {
	if rp == nil {
		return &BlockHandle{}
	}

	rp.Blocks = append(rp.Blocks, PerfBlock{
		Start:       time.Now(),
		Category:    category,
		Description: description,
	})
	return &BlockHandle{rp: rp, idx: len(rp.Blocks) - 1}
}

func (b *BlockHandle) End() {
	if b == nil || b.rp == nil {
		return
	}

	if b.rp.Blocks[b.idx].End.IsZero() {
		b.rp.Blocks[b.idx].End = time.Now()
	}
}

func (rp *RequestPerf) MsFromStart(block *PerfBlock) float64 {
	return float64(block.Start.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

type PerfBlock struct {
	Start       time.Time
	End         time.Time
	Category    string
	Description string
}

func (pb *PerfBlock) Duration() time.Duration {
	return pb.End.Sub(pb.Start)
}

func (pb *PerfBlock) DurationMs() float64 {
	return float64(pb.Duration().Nanoseconds()) / 1000 / 1000
}

type perfContextKeyType struct{}

var PerfContextKey = perfContextKeyType{}

func ExtractPerf(ctx context.Context) *RequestPerf {
	iperf := ctx.Value(PerfContextKey)
	if iperf == nil {
		return nil
	}
	return iperf.(*RequestPerf)
}

// How many finished requests the collector keeps around for inspection.
const recentRequestsLimit = 200

type PerfStorage struct {
	AllRequests []RequestPerf
}

type PerfCollector struct {
	In          chan<- *RequestPerf
	RequestCopy chan<- (chan<- PerfStorage)

	stopped <-chan struct{}
}

// Runs a background job that records finished requests in prometheus and
// keeps the most recent ones in memory.
func RunPerfCollector() (*PerfCollector, *jobs.Job) {
	in := make(chan *RequestPerf)
	requestCopy := make(chan (chan<- PerfStorage))

	var storage PerfStorage

	job := jobs.New("perf collector")
	go func() {
		defer job.Finish()

		for {
			select {
			case perf := <-in:
				observeRequest(perf)
				storage.AllRequests = append(storage.AllRequests, *perf)
				if len(storage.AllRequests) > recentRequestsLimit {
					storage.AllRequests = storage.AllRequests[len(storage.AllRequests)-recentRequestsLimit:]
				}
			case resultChan := <-requestCopy:
				copied := PerfStorage{AllRequests: make([]RequestPerf, len(storage.AllRequests))}
				copy(copied.AllRequests, storage.AllRequests)
				resultChan <- copied
			case <-job.Canceled():
				return
			}
		}
	}()

	return &PerfCollector{
		In:          in,
		RequestCopy: requestCopy,
		stopped:     job.Finished(),
	}, job
}

// Runs submitted after the collector has stopped are dropped.
func (perfCollector *PerfCollector) SubmitRun(run *RequestPerf) {
	select {
	case perfCollector.In <- run:
	case <-perfCollector.stopped:
	}
}

// Returns an empty copy once the collector has stopped.
func (perfCollector *PerfCollector) GetPerfCopy() *PerfStorage {
	resultChan := make(chan PerfStorage, 1)
	select {
	case perfCollector.RequestCopy <- resultChan:
	case <-perfCollector.stopped:
		return &PerfStorage{}
	}
	perfStorageCopy := <-resultChan
	return &perfStorageCopy
}
