package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSink struct {
	events []Event
}

func (c *captureSink) Consume(evt Event) {
	c.events = append(c.events, evt)
}

func TestReporterFansOut(t *testing.T) {
	var lines []string
	sink := &captureSink{}
	r := NewReporter(func(msg string) { lines = append(lines, msg) }, sink)

	r.Emitf(PhaseCollect, "Phase 1: found %d references", 7)
	r.Countf(PhaseResolve, 3, 7, "Phase 2: resolved 3/7")
	r.Failf(PhaseResolve, "Phase 2: entry 4 failed")

	require.Equal(t, []string{
		"Phase 1: found 7 references",
		"Phase 2: resolved 3/7",
		"Phase 2: entry 4 failed",
	}, lines)

	require.Len(t, sink.events, 3)
	require.Equal(t, PhaseCollect, sink.events[0].Phase)
	require.Equal(t, 3, sink.events[1].Done)
	require.Equal(t, 7, sink.events[1].Total)
	require.True(t, sink.events[2].Err)
	for _, evt := range sink.events {
		require.Equal(t, r.RunID(), evt.RunID)
		require.False(t, evt.TS.IsZero())
	}
}

func TestNilReporterIsSafe(t *testing.T) {
	var r *Reporter
	r.Emitf(PhaseRun, "ignored")
	r.Failf(PhaseRun, "ignored")
	require.Equal(t, uuid.Nil, r.RunID())
}

func TestParseFraction(t *testing.T) {
	cases := []struct {
		msg        string
		done, tot  int
		ok         bool
	}{
		{"Phase 2: resolved 3/7", 3, 7, true},
		{"Phase 3 done: 12/12 queried", 12, 12, true},
		{"Phase 1: scanning", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		done, tot, ok := ParseFraction(tc.msg)
		require.Equal(t, tc.ok, ok, tc.msg)
		require.Equal(t, tc.done, done, tc.msg)
		require.Equal(t, tc.tot, tot, tc.msg)
	}
}

func TestLogSinkNilLogger(t *testing.T) {
	s := NewLogSink(nil)
	s.Consume(Event{Phase: PhaseRun, Message: "ok"})
	s.Consume(Event{Phase: PhaseResolve, Message: "bad", Err: true})
}

func TestLogSinkWithLogger(t *testing.T) {
	s := NewLogSink(zap.NewNop())
	s.Consume(Event{Phase: PhaseEnrich, Message: "queried 5/10", Done: 5, Total: 10})
}

func TestPromSinkCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSink(reg)
	require.NoError(t, err)

	s.Consume(Event{Phase: PhaseCollect})
	s.Consume(Event{Phase: PhaseCollect})
	s.Consume(Event{Phase: PhaseDownload, Err: true})

	require.InDelta(t, 2, testutil.ToFloat64(s.events.WithLabelValues("phase1")), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(s.failures.WithLabelValues("phase4")), 0.001)
}

func TestPromSinkDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSink(reg)
	require.NoError(t, err)
	_, err = NewPromSink(reg)
	require.Error(t, err)
}
