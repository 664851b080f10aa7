package server

import (
	"github.com/photochain-sys/photochain-go/application"
	"github.com/photochain-sys/photochain-go/protocol"
	svc "github.com/photochain-sys/photochain-go/server"
	"github.com/photochain-sys/photochain-go/storage/kv/leveldbkv"
)

// A PhotoServer represents a photochain reference server.
// It wraps a photo service with a network layer which
// handles requests/responses and their encoding/decoding.
// A PhotoServer also supports concurrent handling of requests.
type PhotoServer struct {
	*application.ServerBase
	service *svc.PhotoServer
}

// NewPhotoServer creates a new reference implementation of
// a photochain server.
func NewPhotoServer(conf *Config) (*PhotoServer, error) {
	// determine this server's request permissions
	perms := make(map[*application.ServerAddress]map[int]bool)

	for i := 0; i < len(conf.Addresses); i++ {
		addr := conf.Addresses[i]
		perms[addr.ServerAddress] = make(map[int]bool)
		for t := protocol.RegisterType; t <= protocol.GetAlbumType; t++ {
			perms[addr.ServerAddress][t] = true
		}
		perms[addr.ServerAddress][protocol.RegisterType] = addr.AllowRegistration
	}

	store, err := openStore(conf.DatabasePath)
	if err != nil {
		return nil, err
	}

	sb := application.NewServerBase(conf.CommonConfig, "Listen", perms)

	server := &PhotoServer{
		ServerBase: sb,
		service:    svc.NewPhotoServer(store),
	}

	return server, nil
}

func openStore(dbPath string) (svc.Storage, error) {
	if dbPath == "" {
		return svc.NewMemStore(), nil
	}
	db, err := leveldbkv.OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	return svc.NewKVStore(db), nil
}

// HandleRequests validates the request message and passes it to the
// appropriate operation handler according to the request type.
func (server *PhotoServer) HandleRequests(req *protocol.Request) *protocol.Response {
	return svc.Dispatch(server.service, req)
}

// Run implements the main functionality of the photo server.
// It listens for all declared connections with corresponding
// permissions.
func (server *PhotoServer) Run(addrs []*Address) {
	hasRegistrationPerm := false
	for i := 0; i < len(addrs); i++ {
		addr := addrs[i]
		hasRegistrationPerm = hasRegistrationPerm || addr.AllowRegistration
		if addr.AllowRegistration {
			server.Verb = "Accepting registrations"
		}

		server.ListenAndHandle(addr.ServerAddress, server.HandleRequests)
	}

	if !hasRegistrationPerm {
		server.Logger().Warn("None of the addresses permit registration")
	}
}

// Shutdown closes all of the server's connections, shuts down the
// network layer and closes the underlying store.
func (server *PhotoServer) Shutdown() error {
	if err := server.ServerBase.Shutdown(); err != nil {
		return err
	}
	return server.service.Store().Close()
}
