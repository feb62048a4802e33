package network

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"sync/atomic"
	"time"

	quic "github.com/quic-go/quic-go"

	"dsnode/internal/debuglog"
)

const alpn = "dsnode-lines"

// EnvDevTLSCA points clients at a PEM file to trust instead of the built-in dev certificate.
const EnvDevTLSCA = "DSNODE_DEVTLS_CA"

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// devTLSCert is deterministic so a relay can verify a listener without any
// key exchange. It is only fit for development clusters.
func devTLSCert() (tls.Certificate, []byte, error) {
	seed := sha256.Sum256([]byte("dsnode-quic-dev-key"))
	priv := ed25519.NewKeyFromSeed(seed[:])
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).Add(100 * 365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
	}
	der, err := x509.CreateCertificate(zeroReader{}, &template, &template, priv.Public(), priv)
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, der, nil
}

func serverTLSConfig() (*tls.Config, error) {
	cert, _, err := devTLSCert()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpn},
	}, nil
}

func clientTLSConfig(insecure bool, caPath string) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true, NextProtos: []string{alpn}}, nil
	}
	if env := os.Getenv(EnvDevTLSCA); env != "" {
		caPath = env
	}
	pool := x509.NewCertPool()
	if caPath != "" {
		data, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("read ca: %w", err)
		}
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("no certificates in %s", caPath)
		}
	} else {
		_, der, err := devTLSCert()
		if err != nil {
			return nil, err
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, err
		}
		pool.AddCert(cert)
	}
	return &tls.Config{RootCAs: pool, NextProtos: []string{alpn}}, nil
}

// DevCAPEM returns the dev certificate in PEM form, for clients that load a CA file.
func DevCAPEM() ([]byte, error) {
	_, der, err := devTLSCert()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), nil
}

// Handler serves one session on a bidirectional stream. Reading returns
// io.EOF once the peer has closed its write side.
type Handler func(ctx context.Context, remote string, rw io.ReadWriter) error

type ListenOptions struct {
	MaxConnsPerIP   int
	MaxStreamsPerIP int
}

// Listener accepts QUIC connections and runs a Handler per stream.
type Listener struct {
	ln      *quic.Listener
	limiter *ipLimiter
	closed  atomic.Bool
}

func Listen(addr string, opts ListenOptions) (*Listener, error) {
	tlsConf, err := serverTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := quic.ListenAddr(addr, tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("quic listen %s: %w", addr, err)
	}
	return &Listener{ln: ln, limiter: newIPLimiter(opts.MaxConnsPerIP, opts.MaxStreamsPerIP)}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *Listener) Close() error {
	l.closed.Store(true)
	return l.ln.Close()
}

// Serve blocks until ctx is done or the listener is closed. A failing session
// only resets its own stream.
func (l *Listener) Serve(ctx context.Context, handle Handler) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	for {
		conn, err := l.ln.Accept(ctx)
		if err != nil {
			if l.closed.Load() || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("quic accept: %w", err)
		}
		ip := remoteIP(conn.RemoteAddr())
		if !l.limiter.acquireConn(ip) {
			debuglog.Debugf("conn limit reached for %s", ip)
			_ = conn.CloseWithError(1, "too many connections")
			continue
		}
		go l.serveConn(ctx, conn, ip, handle)
	}
}

func (l *Listener) serveConn(ctx context.Context, conn *quic.Conn, ip string, handle Handler) {
	defer l.limiter.releaseConn(ip)
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			debuglog.Debugf("accept stream from %s: %v", ip, err)
			return
		}
		if !l.limiter.acquireStream(ip) {
			debuglog.Debugf("stream limit reached for %s", ip)
			stream.CancelRead(1)
			stream.CancelWrite(1)
			continue
		}
		go func(s *quic.Stream) {
			defer l.limiter.releaseStream(ip)
			if err := handle(ctx, ip, s); err != nil {
				debuglog.Logf("session from %s failed: %v", ip, err)
				s.CancelRead(2)
				s.CancelWrite(2)
				return
			}
			_ = s.Close()
		}(stream)
	}
}

func remoteIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

type DialOptions struct {
	Insecure bool
	CAPath   string
}

// Conn is the client side of one session stream.
type Conn struct {
	conn   *quic.Conn
	stream *quic.Stream
}

func Dial(ctx context.Context, addr string, opts DialOptions) (*Conn, error) {
	tlsConf, err := clientTLSConfig(opts.Insecure, opts.CAPath)
	if err != nil {
		return nil, err
	}
	conn, err := quic.DialAddr(ctx, addr, tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("quic dial %s: %w", addr, err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "")
		return nil, fmt.Errorf("open stream: %w", err)
	}
	return &Conn{conn: conn, stream: stream}, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.stream.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.stream.Write(p)
}

// CloseWrite signals end of input to the remote session.
func (c *Conn) CloseWrite() error {
	return c.stream.Close()
}

func (c *Conn) Close() error {
	return c.conn.CloseWithError(0, "")
}
