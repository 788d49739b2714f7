// Package progress carries the textual progress stream emitted by the
// harvesting pipeline. Callers receive plain single-line messages through a
// Func; structured Events additionally feed the registered sinks.
package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Phase labels which pipeline stage produced an event.
type Phase string

// Pipeline phases in execution order.
const (
	PhaseRun      Phase = "run"
	PhaseFastPath Phase = "fast-path"
	PhaseCollect  Phase = "phase1"
	PhaseResolve  Phase = "phase2"
	PhaseEnrich   Phase = "phase3"
	PhaseDownload Phase = "phase4"
)

// Event is a single progress milestone. Message is the exact line handed to
// the caller; Done/Total carry the optional completion fraction (both zero
// when no fraction applies).
type Event struct {
	// RunID identifies one pipeline invocation.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the reporter.
	TS time.Time
	// Phase denotes which pipeline stage emitted the event.
	Phase Phase
	// Message is the caller-visible text line.
	Message string
	// Done and Total carry the "k/total" fraction when one applies.
	Done  int
	Total int
	// Err flags per-item failures surfaced on the channel.
	Err bool
}

// Sink consumes structured progress events. Implementations must not block;
// the pipeline emits from its single sequential task.
type Sink interface {
	Consume(evt Event)
}

// Func is the caller-facing progress channel: invoked once per line.
// Callers may parse "Phase N:" prefixes and "k/total" fractions but must
// treat unrecognized messages as display-only.
type Func func(msg string)

// Reporter fans progress out to the caller Func and any sinks. A nil
// Reporter is valid and drops everything, so components can treat progress
// as optional.
type Reporter struct {
	runID uuid.UUID
	fn    Func
	sinks []Sink
}

// NewReporter builds a Reporter with a fresh run ID. fn may be nil.
func NewReporter(fn Func, sinks ...Sink) *Reporter {
	return &Reporter{
		runID: uuid.New(),
		fn:    fn,
		sinks: sinks,
	}
}

// RunID returns the identifier for this pipeline invocation.
func (r *Reporter) RunID() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.runID
}

// Emitf formats and publishes a progress line.
func (r *Reporter) Emitf(phase Phase, format string, args ...any) {
	r.publish(Event{Phase: phase, Message: fmt.Sprintf(format, args...)})
}

// Countf publishes a line carrying a done/total fraction.
func (r *Reporter) Countf(phase Phase, done, total int, format string, args ...any) {
	r.publish(Event{
		Phase:   phase,
		Message: fmt.Sprintf(format, args...),
		Done:    done,
		Total:   total,
	})
}

// Failf publishes a per-item failure. Failures never block completion but
// must always be visible on the channel.
func (r *Reporter) Failf(phase Phase, format string, args ...any) {
	r.publish(Event{Phase: phase, Message: fmt.Sprintf(format, args...), Err: true})
}

func (r *Reporter) publish(evt Event) {
	if r == nil {
		return
	}
	evt.RunID = r.runID
	evt.TS = time.Now().UTC()
	if r.fn != nil {
		r.fn(evt.Message)
	}
	for _, s := range r.sinks {
		s.Consume(evt)
	}
}

var fractionPattern = regexp.MustCompile(`(\d+)/(\d+)`)

// ParseFraction extracts the last "k/total" fraction from a progress line.
// Returns ok=false when the line carries none; callers must not assume
// every message matches.
func ParseFraction(msg string) (done, total int, ok bool) {
	matches := fractionPattern.FindAllStringSubmatch(msg, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}
	last := matches[len(matches)-1]
	done, err := strconv.Atoi(last[1])
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(last[2])
	if err != nil {
		return 0, 0, false
	}
	return done, total, true
}
