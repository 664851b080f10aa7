// Package application implements the network layer shared by the
// photochain executables: configuration loading, structured logging,
// JSON encoding of protocol messages, and a listener base that accepts
// client connections over TLS TCP or Unix sockets.
package application
