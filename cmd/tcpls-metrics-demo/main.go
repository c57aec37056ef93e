/**
 * Copyright (c) 2022, Xerra Earth Observation Institute.
 * Copyright (c) 2025, Simeon Miteff.
 *
 * See LICENSE.TXT in the root directory of this source tree.
 */

// Command tcpls-metrics-demo serves pkg/exporter.Collector's metrics
// over HTTP, tracking every connection accepted by a plain HTTP server
// the same way the teacher's exporter_example2 does (socket diagnostics
// only; it does not itself speak TCPLS).
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"

	"github.com/tcpls-go/tcpls/pkg/exporter"
)

func main() {
	hostname, err := os.Hostname()
	if err != nil {
		panic(err)
	}

	collector := exporter.NewCollector(
		"tcpls",
		[]string{"id", "remote_host"},
		prometheus.Labels{
			"app":      "tcpls-metrics-demo",
			"hostname": hostname,
		},
		func(err error) {
			fmt.Println(err)
		},
	)
	prometheus.MustRegister(collector)

	server := http.Server{
		Addr: ":18080",
		ConnState: func(conn net.Conn, state http.ConnState) {
			switch state {
			case http.StateNew:
				collector.Add(conn, []string{xid.New().String(), conn.RemoteAddr().String()})
			case http.StateClosed:
				collector.Remove(conn)
			}
		},
	}

	http.Handle("/metrics", promhttp.Handler())
	if err := server.ListenAndServe(); err != nil {
		panic(err)
	}
}
