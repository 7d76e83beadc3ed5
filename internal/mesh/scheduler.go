package mesh

import (
	"time"

	"endless-chess/internal/config"
)

// Items processed between clock checks; keeps time.Now off the hot path.
const schedulerChunk = 64

// Job is one chunked build tracked by the scheduler.
type Job struct {
	total     int
	done      int
	step      func(i int)
	cancelled func() bool
	complete  func(finished bool)
}

// Progress returns items done and the total for the external status
// collaborator.
func (j *Job) Progress() (done, total int) {
	return j.done, j.total
}

// Scheduler interleaves long mesh builds with the host frame loop. All work
// runs on the caller's thread; "concurrency" is cooperative: Update runs
// chunks until the frame budget elapses, then yields back to the loop.
// Cancellation flags are observed at every chunk boundary.
type Scheduler struct {
	jobs []*Job

	// injectable for tests
	budget func() time.Duration
	now    func() time.Time
}

// NewScheduler creates a scheduler using the configured frame budget.
func NewScheduler() *Scheduler {
	return &Scheduler{
		budget: config.GetFrameBudget,
		now:    time.Now,
	}
}

// Submit queues a chunked job. step is called once per work item in order;
// cancelled is polled at chunk boundaries; complete fires exactly once with
// finished=false when the job was cancelled before running out of items.
func (s *Scheduler) Submit(total int, step func(int), cancelled func() bool, complete func(finished bool)) *Job {
	j := &Job{total: total, step: step, cancelled: cancelled, complete: complete}
	s.jobs = append(s.jobs, j)
	return j
}

// Pending returns the number of queued jobs.
func (s *Scheduler) Pending() int {
	return len(s.jobs)
}

// Update runs queued jobs in FIFO order until the frame budget elapses.
// Call once per frame.
func (s *Scheduler) Update() {
	s.run(s.now().Add(s.budget()))
}

// RunToCompletion drains every queued job ignoring the frame budget. Used
// for synchronous initial builds where there is no frame to yield to.
func (s *Scheduler) RunToCompletion() {
	for len(s.jobs) > 0 {
		s.run(s.now().Add(time.Hour))
	}
}

func (s *Scheduler) run(deadline time.Time) {
	for len(s.jobs) > 0 {
		j := s.jobs[0]
		if j.cancelled != nil && j.cancelled() {
			s.jobs = s.jobs[1:]
			j.complete(false)
			continue
		}
		for j.done < j.total {
			end := j.done + schedulerChunk
			if end > j.total {
				end = j.total
			}
			for i := j.done; i < end; i++ {
				j.step(i)
			}
			j.done = end
			if s.now().After(deadline) {
				if j.done < j.total {
					return // yield; resume next Update
				}
				break
			}
			if j.cancelled != nil && j.cancelled() {
				break
			}
		}
		if j.done < j.total {
			// left the loop via cancellation; unwind without completing
			s.jobs = s.jobs[1:]
			j.complete(false)
			continue
		}
		s.jobs = s.jobs[1:]
		j.complete(true)
		if s.now().After(deadline) {
			return
		}
	}
}
