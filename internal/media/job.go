package media

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// jobState tracks one download's lifecycle.
type jobState int

const (
	jobIdle jobState = iota
	jobProbing
	jobRunning
	jobSucceeded
	jobFailed
)

// validTransitions guards state entry the same way a lifecycle manager
// would: terminal states are never left, and a late probe start cannot
// demote a running job.
var validTransitions = map[jobState][]jobState{
	jobIdle:    {jobProbing, jobRunning, jobFailed},
	jobProbing: {jobRunning, jobFailed},
	jobRunning: {jobSucceeded, jobFailed},
}

// job is the transient state of one in-flight download. It exists only for
// the duration of that request and is owned exclusively by it.
type job struct {
	id      string
	started time.Time

	mu       sync.Mutex
	state    jobState
	duration float64 // total media duration in seconds; 0 while unknown

	lastBytes    int64
	lastSampleAt time.Time
	lastPercent  float64
	lastElapsed  float64

	failed  bool
	tailBuf []byte
}

// progressUpdate is one computed progress event, ready for the sink.
type progressUpdate struct {
	pct     float64
	speed   string
	elapsed float64
	bytes   int64
	total   float64 // 0 while the duration is unknown
}

func newJob(now time.Time) *job {
	return &job{
		id:      uuid.NewString(),
		started: now,
		state:   jobIdle,
	}
}

// enter moves the job to s if the transition is valid; invalid entries are
// ignored so racing observers cannot corrupt the lifecycle.
func (j *job) enter(s jobState) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, allowed := range validTransitions[j.state] {
		if allowed == s {
			j.state = s
			return true
		}
	}
	return false
}

// fail flips the one-shot failure flag. Only the first caller gets true;
// everything downstream of a second fatal signal must stay silent.
func (j *job) fail() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failed {
		return false
	}
	j.failed = true
	j.state = jobFailed
	return true
}

// setDuration records the probed total duration.
func (j *job) setDuration(seconds float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.duration = seconds
}

// observe folds one diagnostic chunk into the job. ok reports whether the
// chunk carried a progress sample; send reports whether an event should be
// emitted (false once the job has failed).
func (j *job) observe(chunk string, now time.Time) (progressUpdate, bool, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.appendTail(chunk)

	sample, ok := parseProgress(chunk)
	if !ok {
		return progressUpdate{}, false, false
	}
	if j.failed || j.state == jobSucceeded {
		return progressUpdate{}, true, false
	}

	total := j.duration
	dur := total
	if dur <= 0 {
		dur = fallbackDurationSec
	}

	pct := sample.elapsed / dur * 100
	// Cap below 100 until the process actually exits: data may still be
	// flushing, and the duration itself may be an estimate.
	if pct > 99 {
		pct = 99
	}
	// Sent percentages never regress, even if the duration was learned
	// mid-download and shifted the math.
	if pct < j.lastPercent {
		pct = j.lastPercent
	}

	speed := j.rate(sample, now)

	j.lastPercent = pct
	j.lastElapsed = sample.elapsed
	if sample.bytes > 0 {
		j.lastBytes = sample.bytes
	}
	j.lastSampleAt = now

	return progressUpdate{
		pct:     pct,
		speed:   formatSpeed(speed),
		elapsed: sample.elapsed,
		bytes:   sample.bytes,
		total:   total,
	}, true, true
}

// rate estimates current throughput, preferring the instantaneous
// delta-based figure and falling back to the cumulative average when the
// delta is not positive. Caller holds j.mu.
func (j *job) rate(s progressSample, now time.Time) float64 {
	if !j.lastSampleAt.IsZero() {
		deltaBytes := s.bytes - j.lastBytes
		deltaT := now.Sub(j.lastSampleAt).Seconds()
		if deltaBytes > 0 && deltaT > 0 {
			return float64(deltaBytes) / deltaT
		}
	}
	elapsed := now.Sub(j.started).Seconds()
	if elapsed <= 0 || s.bytes <= 0 {
		return 0
	}
	return float64(s.bytes) / elapsed
}

// averageRate is the cumulative throughput over the whole job.
func (j *job) averageRate(now time.Time) float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	elapsed := now.Sub(j.started).Seconds()
	if elapsed <= 0 || j.lastBytes <= 0 {
		return 0
	}
	return float64(j.lastBytes) / elapsed
}

// final returns the last observed elapsed time, byte count and known total
// duration, for the terminal 100% event.
func (j *job) final() (elapsed float64, bytes int64, total float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastElapsed, j.lastBytes, j.duration
}

// tail returns the retained end of the diagnostic stream.
func (j *job) tail() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return string(j.tailBuf)
}

// appendTail keeps the last stderrTailMax bytes of diagnostics. Caller
// holds j.mu.
func (j *job) appendTail(chunk string) {
	j.tailBuf = append(j.tailBuf, chunk...)
	if over := len(j.tailBuf) - stderrTailMax; over > 0 {
		j.tailBuf = j.tailBuf[over:]
	}
}
