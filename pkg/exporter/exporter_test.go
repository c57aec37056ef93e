package exporter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"gotest.tools/v3/assert"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
)

func TestCollectorReportsProtocolCounters(t *testing.T) {
	c := NewCollector("tcpls_test", []string{"id"}, nil, func(error) {})

	c.FrameDispatched(tcplsframe.Ping)
	c.FrameDispatched(tcplsframe.Ping)
	c.FrameDispatched(tcplsframe.Ack)
	c.AckStaged()
	c.AckDropped()
	c.PingReceived()
	c.BytesQueued(10)
	c.BytesSent(7)

	reg := prometheus.NewRegistry()
	assert.NilError(t, reg.Register(c))

	families, err := reg.Gather()
	assert.NilError(t, err)

	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			found[mf.GetName()] += v
		}
	}

	assert.Equal(t, found["tcpls_test_acks_staged_total"], float64(1))
	assert.Equal(t, found["tcpls_test_acks_dropped_total"], float64(1))
	assert.Equal(t, found["tcpls_test_pings_received_total"], float64(1))
	assert.Equal(t, found["tcpls_test_bytes_queued_total"], float64(10))
	assert.Equal(t, found["tcpls_test_bytes_sent_total"], float64(7))
	assert.Equal(t, found["tcpls_test_frames_dispatched_total"], float64(3))
}

func TestNewCollectorHasNoConns(t *testing.T) {
	c := NewCollector("tcpls_test2", nil, nil, func(error) {})
	assert.Equal(t, len(c.conns), 0)
}
