/*
Package metrics provides small per-connection counters, adapted from the
metrics.Metric/metrics.Gauge pattern the teacher client wires through
map[string]metrics.Metric in its ClientConn. The server side tracks the
same shape of thing (bytes moved, frames rendered) for one connection's
lifetime rather than across a whole process, so there is no registry: a
connection just owns a small struct of named gauges and logs them at close.
*/
package metrics

import "sync/atomic"

// Metric is anything that accumulates an int64 value over a connection's
// lifetime.
type Metric interface {
	Adjust(delta int64)
	Value() int64
}

// Gauge is an atomically-updated running total. Only a connection's own
// goroutine touches its metrics in this server (everything is sequential
// within one connection, §5), but atomic.Int64
// keeps the type safe to reuse if that ever changes.
type Gauge struct {
	v atomic.Int64
}

// Adjust adds delta (positive or negative) to the gauge.
func (g *Gauge) Adjust(delta int64) { g.v.Add(delta) }

// Value returns the gauge's current total.
func (g *Gauge) Value() int64 { return g.v.Load() }

// Set of named per-connection counters.
type Set struct {
	BytesSent     Gauge
	BytesReceived Gauge
	FramesSent    Gauge
}

// Snapshot returns the current values as a map suitable for logging.
func (s *Set) Snapshot() map[string]int64 {
	return map[string]int64{
		"bytes-sent":     s.BytesSent.Value(),
		"bytes-received": s.BytesReceived.Value(),
		"frames-sent":    s.FramesSent.Value(),
	}
}
