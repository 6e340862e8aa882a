package session

import (
	"github.com/rcrowley/go-metrics"
)

// Metrics exposes per-session counters on a dedicated go-metrics registry.
type Metrics struct {
	Registry metrics.Registry

	// PDUSent counts frames written to the socket.
	PDUSent metrics.Counter
	// PDUReceived counts frames read off the socket.
	PDUReceived metrics.Counter
	// Requests meters outbound request rate.
	Requests metrics.Meter
	// PendingSize mirrors the pending table size.
	PendingSize metrics.Gauge
	// QueueDepth mirrors the processor queue depth.
	QueueDepth metrics.Gauge
}

func newMetrics(pending func() int64, queue func() int64) *Metrics {
	m := &Metrics{
		Registry:    metrics.NewRegistry(),
		PDUSent:     metrics.NewCounter(),
		PDUReceived: metrics.NewCounter(),
		Requests:    metrics.NewMeter(),
	}
	m.PendingSize = metrics.NewFunctionalGauge(pending)
	m.QueueDepth = metrics.NewFunctionalGauge(queue)
	m.Registry.Register("pdu.sent", m.PDUSent)
	m.Registry.Register("pdu.received", m.PDUReceived)
	m.Registry.Register("requests.rate", m.Requests)
	m.Registry.Register("pending.size", m.PendingSize)
	m.Registry.Register("queue.depth", m.QueueDepth)
	return m
}
