// Package tcpls implements the TCPLS (TCP-over-TLS extended) framing
// layer: a multi-stream, in-record framed protocol riding inside the
// plaintext payload of an underlying TLS 1.2/1.3 record stream
// (spec.md §1).
//
// This package owns the connection engine — the frame dispatcher, record
// assembler, ACK bookkeeping, and stream registry. Per-stream buffering
// lives in pkg/tcplsstream; the wire format lives in pkg/tcplsframe. TLS
// itself (handshake, record encryption/sequencing) and socket I/O are
// external collaborators, consumed through the TLSSession interface.
package tcpls

// Role distinguishes which side of a TCPLS connection this process is.
// The core does not enforce stream-id parity conventions that follow
// from it (client-initiated even, server-initiated odd) — spec.md §3
// leaves that to the user.
type Role int

const (
	Client Role = iota
	Server
)

func (r Role) String() string {
	if r == Server {
		return "server"
	}
	return "client"
}
