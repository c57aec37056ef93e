/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Package exporter unifies TCPLS protocol-level counters (frames
// dispatched, ACKs staged/dropped, pings received, bytes queued/sent)
// with the OS-level socket diagnostics in pkg/diag, exposed as a single
// prometheus.Collector (SPEC_FULL.md "Diagnostics").
//
// It is grounded on the teacher's TCPInfoCollector: the conns
// map/mutex/Describe/Collect/Add/Remove shape is unchanged, but each
// connection's tcp_info is resolved through pkg/diag instead of
// pkg/linux, and a second family of descriptors reports the protocol
// counters fed by Connection.SetMetrics.
package exporter

import (
	"fmt"
	"net"
	"sync"

	"github.com/higebu/netfd"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tcpls-go/tcpls/pkg/diag"
	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
)

type connEntry struct {
	fd     int
	labels []string
}

type diagMetric struct {
	description *prometheus.Desc
	supplier    func(info *diag.Info, labelValues []string) prometheus.Metric
}

// Collector is a prometheus.Collector reporting both socket-level
// tcp_info (one sample per registered net.Conn, gathered lazily on
// Collect) and process-wide TCPLS protocol counters (updated eagerly as
// Connection calls the tcpls.MetricsRecorder methods below).
type Collector struct {
	mu    sync.Mutex
	conns map[net.Conn]connEntry

	logger func(error)
	diags  []diagMetric

	framesDispatched *prometheus.CounterVec
	acksStaged       prometheus.Counter
	acksDropped      prometheus.Counter
	pingsReceived    prometheus.Counter
	bytesQueued      prometheus.Counter
	bytesSent        prometheus.Counter
}

// NewCollector builds a Collector. connectionLabels name the per-conn
// label values supplied to Add; constLabels are fixed for the process,
// mirroring the teacher's NewTCPInfoCollector signature.
func NewCollector(
	prefix string,
	connectionLabels []string,
	constLabels prometheus.Labels,
	errorLoggingCallback func(error),
) *Collector {
	c := &Collector{
		conns:  make(map[net.Conn]connEntry),
		logger: errorLoggingCallback,

		framesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   prefix,
			Name:        "frames_dispatched_total",
			Help:        "TCPLS frames dispatched by ProcessRecord, by frame type.",
			ConstLabels: constLabels,
		}, []string{"frame_type"}),
		acksStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   prefix,
			Name:        "acks_staged_total",
			Help:        "ACK frames appended to the outgoing control buffer.",
			ConstLabels: constLabels,
		}),
		acksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   prefix,
			Name:        "acks_dropped_total",
			Help:        "ACK frames dropped because the control buffer was full.",
			ConstLabels: constLabels,
		}),
		pingsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   prefix,
			Name:        "pings_received_total",
			Help:        "PING frames seen by ProcessRecord.",
			ConstLabels: constLabels,
		}),
		bytesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   prefix,
			Name:        "bytes_queued_total",
			Help:        "Bytes handed to Connection.SetData for sending.",
			ConstLabels: constLabels,
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   prefix,
			Name:        "bytes_sent_total",
			Help:        "Bytes assembled into outgoing records by BuildRecord.",
			ConstLabels: constLabels,
		}),
	}
	c.diags = diagMetricSuppliers(prefix, connectionLabels, constLabels)
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	for _, m := range c.diags {
		descs <- m.description
	}
	c.framesDispatched.Describe(descs)
	descs <- c.acksStaged.Desc()
	descs <- c.acksDropped.Desc()
	descs <- c.pingsReceived.Desc()
	descs <- c.bytesQueued.Desc()
	descs <- c.bytesSent.Desc()
}

// Collect implements prometheus.Collector: it samples tcp_info for every
// registered connection, dropping and logging any that no longer
// resolve to a live fd, and emits the protocol counters unconditionally.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for conn, entry := range c.conns {
		info, err := diag.Query(uintptr(entry.fd))
		if err != nil {
			c.logger(fmt.Errorf("tcpls: error querying socket diagnostics (removing conn %v -> %v): %w",
				conn.LocalAddr(), conn.RemoteAddr(), err))
			delete(c.conns, conn)
			continue
		}
		for _, m := range c.diags {
			metrics <- m.supplier(info, entry.labels)
		}
	}

	c.framesDispatched.Collect(metrics)
	metrics <- c.acksStaged
	metrics <- c.acksDropped
	metrics <- c.pingsReceived
	metrics <- c.bytesQueued
	metrics <- c.bytesSent
}

// Add registers conn for per-scrape socket diagnostics, resolving its fd
// via netfd the same way the teacher's collector does.
func (c *Collector) Add(conn net.Conn, labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conns[conn] = connEntry{
		fd:     netfd.GetFdFromConn(conn),
		labels: labels,
	}
}

// Remove stops reporting tcp_info for conn.
func (c *Collector) Remove(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.conns, conn)
}

// The methods below satisfy tcpls.MetricsRecorder structurally; this
// package does not import the root package, and Connection.SetMetrics
// accepts any value with this method set.

// FrameDispatched increments the per-type dispatch counter.
func (c *Collector) FrameDispatched(t tcplsframe.Type) {
	c.framesDispatched.WithLabelValues(t.String()).Inc()
}

// AckStaged increments the staged-ACK counter.
func (c *Collector) AckStaged() { c.acksStaged.Inc() }

// AckDropped increments the dropped-ACK counter.
func (c *Collector) AckDropped() { c.acksDropped.Inc() }

// PingReceived increments the received-PING counter.
func (c *Collector) PingReceived() { c.pingsReceived.Inc() }

// BytesQueued adds n to the queued-bytes counter.
func (c *Collector) BytesQueued(n int) { c.bytesQueued.Add(float64(n)) }

// BytesSent adds n to the sent-bytes counter.
func (c *Collector) BytesSent(n int) { c.bytesSent.Add(float64(n)) }
