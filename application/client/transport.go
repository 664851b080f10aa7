package client

import (
	"bytes"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/photochain-sys/photochain-go/application"
	"github.com/photochain-sys/photochain-go/client"
	"github.com/photochain-sys/photochain-go/protocol"
)

// connTimeout bounds one whole request/response exchange.
const connTimeout = 30 * time.Second

// A Transport sends each request over its own connection to a
// photochain server, TLS for "tcp" addresses and plain for "unix"
// ones. It half-closes the write side after the request so the server
// sees EOF, then reads the response until EOF.
type Transport struct {
	address    string
	skipVerify bool
}

var _ client.Transport = (*Transport)(nil)

// NewTransport creates a Transport for the given scheme://address
// server address.
func NewTransport(address string, skipVerify bool) *Transport {
	return &Transport{address: address, skipVerify: skipVerify}
}

// Do marshals the request, performs one exchange with the server, and
// decodes the response according to the request type.
func (t *Transport) Do(req *protocol.Request) (*protocol.Response, error) {
	msg, err := application.MarshalRequest(req.Type, req.Request)
	if err != nil {
		return nil, err
	}
	res, err := t.send(msg)
	if err != nil {
		return nil, err
	}
	return application.UnmarshalResponse(req.Type, res), nil
}

func (t *Transport) send(msg []byte) ([]byte, error) {
	u, err := url.Parse(t.address)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return t.sendTCP(u.Host, msg)
	case "unix":
		return sendUnix(u.Path, msg)
	default:
		return nil, errors.New("client: unknown network type " + u.Scheme)
	}
}

func (t *Transport) sendTCP(host string, msg []byte) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", host, connTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	tlsConn := tls.Client(conn, &tls.Config{InsecureSkipVerify: t.skipVerify})
	if _, err := tlsConn.Write(msg); err != nil {
		return nil, err
	}
	if err := tlsConn.CloseWrite(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, tlsConn); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sendUnix(path string, msg []byte) ([]byte, error) {
	unixaddr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUnix("unix", nil, unixaddr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	if _, err := conn.Write(msg); err != nil {
		return nil, err
	}
	if err := conn.CloseWrite(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
