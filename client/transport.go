package client

import (
	"github.com/photochain-sys/photochain-go/protocol"
	"github.com/photochain-sys/photochain-go/server"
)

// A Transport delivers one request to a photochain server and returns
// its response. Implementations exist for in-process servers (tests,
// embedded setups) and for the TCP transport in the application layer.
type Transport interface {
	Do(req *protocol.Request) (*protocol.Response, error)
}

// A LocalTransport calls a Service in-process.
type LocalTransport struct {
	service server.Service
}

var _ Transport = (*LocalTransport)(nil)

// NewLocalTransport wraps an in-process service as a Transport.
func NewLocalTransport(s server.Service) *LocalTransport {
	return &LocalTransport{service: s}
}

func (t *LocalTransport) Do(req *protocol.Request) (*protocol.Response, error) {
	return server.Dispatch(t.service, req), nil
}
