package tlsadapter

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.NilError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "tcpls-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	assert.NilError(t, err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func TestWritePlaintextAdvancesSequence(t *testing.T) {
	cert := selfSignedCert(t)
	clientPipe, serverPipe := net.Pipe()

	serverConn := tls.Server(serverPipe, &tls.Config{Certificates: []tls.Certificate{cert}})
	clientConn := tls.Client(clientPipe, &tls.Config{InsecureSkipVerify: true})

	done := make(chan error, 1)
	go func() { done <- serverConn.Handshake() }()
	assert.NilError(t, clientConn.Handshake())
	assert.NilError(t, <-done)

	client := New(clientConn)
	assert.Equal(t, client.CurrentTLSRecordSequence(), uint64(0))

	recvDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := serverConn.Read(buf)
		recvDone <- buf[:n]
	}()

	assert.NilError(t, client.WritePlaintext([]byte("hello tcpls")))
	assert.Equal(t, client.CurrentTLSRecordSequence(), uint64(1))

	got := <-recvDone
	assert.Equal(t, string(got), "hello tcpls")

	assert.Assert(t, client.WantsRead())
	assert.Assert(t, client.WantsWrite())
}
