/*
Package jobs runs background work that the website can cancel and wait on
during shutdown.
*/
package jobs

import (
	"context"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"github.com/rs/zerolog"
)

type Job struct {
	Name   string
	Ctx    context.Context
	Logger *zerolog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string) *Job {
	logger := logging.With().Str("job", name).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.AttachLoggerToContext(&logger, ctx)
	return &Job{
		Name:   name,
		Ctx:    ctx,
		Logger: &logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Asks the job to stop by canceling its context.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) Canceled() <-chan struct{} {
	return j.Ctx.Done()
}

// Marks the job as done. Called by the job itself.
func (j *Job) Finish() *Job {
	close(j.done)
	return j
}

func (j *Job) Finished() <-chan struct{} {
	return j.done
}

type Jobs []*Job

// Cancels every job and waits until they all finish or the timeout expires.
// Returns the names of the jobs that did not finish in time.
func (jobs Jobs) CancelAndWait(timeout time.Duration) []string {
	allDoneChan := make(chan struct{})
	for _, job := range jobs {
		job.Cancel()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	go func() {
		for _, job := range jobs {
			<-job.Finished()
		}
		close(allDoneChan)
	}()

	select {
	case <-timer.C:
		return jobs.ListUnfinished()
	case <-allDoneChan:
		return nil
	}
}

func (jobs Jobs) ListUnfinished() []string {
	unfinished := []string{}
	for _, job := range jobs {
		select {
		case <-job.Finished():
			continue
		default:
			unfinished = append(unfinished, job.Name)
		}
	}
	return unfinished
}
