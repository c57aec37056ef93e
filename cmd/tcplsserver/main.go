// Command tcplsserver is a demo TCPLS server, grounded on the original
// tcpls-server example: it accepts TLS connections, assigns each one a
// server-role TCPLS Connection, and runs one of two modes per
// connection: echo stream 0 back to the sender, or silently receive
// and log whatever streams the client opens (SPEC_FULL.md
// "Supplemented features").
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tcpls-go/tcpls"
	"github.com/tcpls-go/tcpls/internal/tlsadapter"
	"github.com/tcpls-go/tcpls/pkg/tcplsnet"
)

var (
	addr     string
	certFile string
	keyFile  string
	verbose  bool
)

func main() {
	root := &cobra.Command{
		Use:   "tcplsserver",
		Short: "Accept TCPLS connections and echo or receive their streams.",
	}
	root.PersistentFlags().StringVar(&addr, "addr", ":4433", "listen address")
	root.PersistentFlags().StringVar(&certFile, "cert", "", "TLS certificate file (PEM)")
	root.PersistentFlags().StringVar(&keyFile, "key", "", "TLS private key file (PEM)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "emit trace-level logging")

	root.AddCommand(echoCmd())
	root.AddCommand(receiveCmd())

	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func setupLogging() {
	if verbose {
		logrus.SetLevel(logrus.TraceLevel)
	}
}

func listen() (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tcplsserver: loading certificate: %w", err)
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	return tls.Listen("tcp", addr, cfg)
}

func reportStats(c *tcplsnet.Conn, state int) {
	logrus.WithFields(logrus.Fields{
		"state":   tcplsnet.StateMap[state],
		"traceId": c.TraceID.String(),
	}).Info("tcplsserver: connection event")
}

// serve runs a TLS accept loop, handing each connection to handle in
// its own goroutine. TCPLS's per-connection state is single-threaded
// (spec.md §5); concurrency only exists across connections, never
// within one.
func serve(handle func(ctx context.Context, ncon net.Conn, wrapped *tcplsnet.Conn, adapter *tlsadapter.Adapter, conn *tcpls.Connection)) error {
	setupLogging()
	ln, err := listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	logrus.WithField("addr", addr).Info("tcplsserver: listening")

	nextConnID := uint32(1)
	for {
		ncon, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("tcplsserver: accept: %w", err)
		}

		conn := tcpls.New(nextConnID, tcpls.Server)
		nextConnID++

		ctx := context.Background()
		wrapped := tcplsnet.Wrap(ctx, ncon, conn, reportStats)
		tlsConn, ok := ncon.(*tls.Conn)
		if !ok {
			logrus.Error("tcplsserver: listener did not produce a *tls.Conn")
			wrapped.Close()
			continue
		}
		adapter := tlsadapter.New(tlsConn)

		go handle(ctx, ncon, wrapped, adapter, conn)
	}
}

func echoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "echo",
		Short: "Echo stream 0's data back to the client on receipt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(func(ctx context.Context, ncon net.Conn, wrapped *tcplsnet.Conn, adapter *tlsadapter.Adapter, conn *tcpls.Connection) {
				defer wrapped.Close()
				echoed := 0
				for {
					plaintext, err := adapter.ReadPlaintext()
					if err != nil {
						logrus.WithError(err).Debug("tcplsserver: connection closed")
						return
					}
					if err := conn.ProcessRecord(plaintext); err != nil {
						logrus.WithError(err).Warn("tcplsserver: process record failed")
						return
					}

					data, err := conn.GetStreamData(0)
					if err != nil || len(data) == echoed {
						continue
					}
					conn.SetData(data[echoed:])
					echoed = len(data)

					record, err := conn.BuildRecord()
					if err != nil {
						logrus.WithError(err).Warn("tcplsserver: build record failed")
						return
					}
					if err := adapter.WritePlaintext(record); err != nil {
						logrus.WithError(err).Debug("tcplsserver: write failed")
						return
					}
					conn.UpdateTLSRecordSequence(adapter.CurrentTLSRecordSequence())
				}
			})
		},
	}
}

func receiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receive",
		Short: "Accept streams and log a per-stream summary without echoing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(func(ctx context.Context, ncon net.Conn, wrapped *tcplsnet.Conn, adapter *tlsadapter.Adapter, conn *tcpls.Connection) {
				defer wrapped.Close()
				for {
					plaintext, err := adapter.ReadPlaintext()
					if err != nil {
						logrus.WithField("streams", conn.StreamsReceivedInfo()).
							WithError(err).Info("tcplsserver: connection closed")
						return
					}
					if err := conn.ProcessRecord(plaintext); err != nil {
						logrus.WithError(err).Warn("tcplsserver: process record failed")
						return
					}
				}
			})
		},
	}
}
