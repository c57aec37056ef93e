// Command tcplsclient is a demo TCPLS client, grounded on the original
// tcpls-client example: it dials a TLS server, multiplexes TCPLS
// frames over the session, and exercises the protocol's ping and
// stream modes (SPEC_FULL.md "Supplemented features").
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tcpls-go/tcpls"
	"github.com/tcpls-go/tcpls/internal/tlsadapter"
	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
	"github.com/tcpls-go/tcpls/pkg/tcplsnet"
	"github.com/tcpls-go/tcpls/pkg/tcplsstream"
)

var (
	addr     string
	insecure bool
	verbose  bool
)

func main() {
	root := &cobra.Command{
		Use:   "tcplsclient",
		Short: "Connect to a TCPLS server and exercise its ping or stream modes.",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "localhost:4433", "server address")
	root.PersistentFlags().BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "emit trace-level logging")

	root.AddCommand(pingCmd())
	root.AddCommand(streamCmd())

	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func setupLogging() {
	if verbose {
		logrus.SetLevel(logrus.TraceLevel)
	}
}

// dial completes a TLS handshake, wraps the resulting connection for
// diagnostics, and seeds a client-role TCPLS Connection over it.
func dial(ctx context.Context) (*tcplsnet.Conn, *tlsadapter.Adapter, *tcpls.Connection, error) {
	ncon, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tcplsclient: dial: %w", err)
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	tlsConn := tls.Client(ncon, &tls.Config{InsecureSkipVerify: insecure, ServerName: host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("tcplsclient: tls handshake: %w", err)
	}

	conn := tcpls.New(0, tcpls.Client)
	wrapped := tcplsnet.Wrap(ctx, tlsConn, conn, reportStats)
	adapter := tlsadapter.New(tlsConn)
	return wrapped, adapter, conn, nil
}

func reportStats(c *tcplsnet.Conn, state int) {
	logrus.WithFields(logrus.Fields{
		"state":   tcplsnet.StateMap[state],
		"traceId": c.TraceID.String(),
	}).Info("tcplsclient: connection event")
}

func pingCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Send PING frames and wait for an ACK after each one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			ctx := cmd.Context()

			wrapped, adapter, conn, err := dial(ctx)
			if err != nil {
				return err
			}
			defer wrapped.Close()

			for i := 0; i < count; i++ {
				conn.InvertAck()

				if err := adapter.WritePlaintext([]byte{byte(tcplsframe.Ping)}); err != nil {
					return fmt.Errorf("tcplsclient: send ping: %w", err)
				}
				conn.UpdateTLSRecordSequence(adapter.CurrentTLSRecordSequence())

				for !conn.HasReceivedAck() {
					plaintext, err := adapter.ReadPlaintext()
					if err != nil {
						return fmt.Errorf("tcplsclient: read: %w", err)
					}
					if err := conn.ProcessRecord(plaintext); err != nil {
						return fmt.Errorf("tcplsclient: process record: %w", err)
					}
				}

				logrus.WithField("ack", conn.LastAckInfo()).Infof("ping %d/%d acked", i+1, count)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of pings to send")
	return cmd
}

func streamCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Send one or more files, each on its own TCPLS stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			if len(files) == 0 {
				return fmt.Errorf("tcplsclient: stream requires at least one --file")
			}
			ctx := cmd.Context()

			wrapped, adapter, conn, err := dial(ctx)
			if err != nil {
				return err
			}
			defer wrapped.Close()

			streamID := uint32(2) // 0 is the connection's default stream (SetData)
			for _, name := range files {
				data, err := os.ReadFile(name)
				if err != nil {
					return fmt.Errorf("tcplsclient: reading %s: %w", name, err)
				}
				s := tcplsstream.NewBuilder(streamID).AddData(data).Build()
				conn.AttachStream(s, streamID)
				logrus.WithFields(logrus.Fields{"file": name, "stream_id": streamID, "bytes": len(data)}).
					Info("tcplsclient: queued file on stream")
				streamID += 2
			}

			for conn.HasData() {
				record, err := conn.BuildRecord()
				if err != nil {
					return fmt.Errorf("tcplsclient: build record: %w", err)
				}
				if err := adapter.WritePlaintext(record); err != nil {
					return fmt.Errorf("tcplsclient: write: %w", err)
				}
				conn.UpdateTLSRecordSequence(adapter.CurrentTLSRecordSequence())
			}

			logrus.WithField("streams", conn.StreamsReceivedInfo()).Info("tcplsclient: all data sent")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&files, "file", nil, "file to send (repeatable)")
	return cmd
}
