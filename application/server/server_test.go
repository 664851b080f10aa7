package server

import (
	"bytes"
	"path"
	"testing"

	"github.com/photochain-sys/photochain-go/application"
	appclient "github.com/photochain-sys/photochain-go/application/client"
	"github.com/photochain-sys/photochain-go/application/testutil"
	"github.com/photochain-sys/photochain-go/client"
	"github.com/photochain-sys/photochain-go/protocol"
)

func testConfig(t *testing.T, sock string, allowRegistration bool) *Config {
	t.Helper()
	addrs := []*Address{
		{
			ServerAddress:     &application.ServerAddress{Address: "unix://" + sock},
			AllowRegistration: allowRegistration,
		},
	}
	logger := &application.LoggerConfig{Environment: "development"}
	return NewConfig("", "toml", addrs, logger, path.Join(path.Dir(sock), "db"))
}

func TestServeClientOverUnixSocket(t *testing.T) {
	sock := path.Join(t.TempDir(), "photochain.sock")
	conf := testConfig(t, sock, true)
	serv, err := NewPhotoServer(conf)
	if err != nil {
		t.Fatal(err)
	}
	serv.Run(conf.Addresses)
	defer serv.Shutdown()

	alice, err := client.New("alice", nil, appclient.NewTransport("unix://"+sock, false))
	if err != nil {
		t.Fatal(err)
	}
	if err := alice.Register(); err != nil {
		t.Fatal(err)
	}
	id, err := alice.PutPhoto([]byte("over the wire"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := alice.GetPhoto(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("over the wire")) {
		t.Fatal("photo differs after the network round trip")
	}

	// a second device sees the history through the same endpoint
	sibling, err := client.New("alice", alice.Secret(),
		appclient.NewTransport("unix://"+sock, false))
	if err != nil {
		t.Fatal(err)
	}
	if err := sibling.Login(); err != nil {
		t.Fatal(err)
	}
	if err := sibling.Synchronize(); err != nil {
		t.Fatal(err)
	}
	ids, err := sibling.ListPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatal("sibling device does not see the photo")
	}
}

func TestRegistrationPermissionPerAddress(t *testing.T) {
	sock := path.Join(t.TempDir(), "photochain.sock")
	conf := testConfig(t, sock, false)
	serv, err := NewPhotoServer(conf)
	if err != nil {
		t.Fatal(err)
	}
	serv.Run(conf.Addresses)
	defer serv.Shutdown()

	msg, err := application.MarshalRequest(protocol.RegisterType, &protocol.RegisterRequest{
		Username:   "alice",
		AuthSecret: []byte("secret"),
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := testutil.NewUnixClient(msg, sock)
	if err != nil {
		t.Fatal(err)
	}
	res := application.UnmarshalResponse(protocol.RegisterType, raw)
	if res.Error != protocol.ErrMalformedMessage {
		t.Fatalf("expected ErrMalformedMessage on a read-only address, got %v", res.Error)
	}

	// non-registration requests still pass through
	msg, err = application.MarshalRequest(protocol.SynchronizeFriendType,
		&protocol.SynchronizeFriendRequest{FriendUsername: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	raw, err = testutil.NewUnixClient(msg, sock)
	if err != nil {
		t.Fatal(err)
	}
	res = application.UnmarshalResponse(protocol.SynchronizeFriendType, raw)
	if res.Error != protocol.ReqSuccess {
		t.Fatalf("expected ReqSuccess, got %v", res.Error)
	}
}
