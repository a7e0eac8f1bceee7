// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bufio"
	"io"
	"net"
	"sync"
	"testing"
)

// Backend is a fake REPL backend listening on 127.0.0.1.
type Backend struct {
	// Address is the host:port clients dial.
	Address string

	// Lines delivers every line received from any client, in arrival
	// order per connection.
	Lines <-chan string

	// Accepted receives once per accepted connection.
	Accepted <-chan struct{}

	listener net.Listener

	mutex       sync.Mutex
	connections []net.Conn
}

// NewBackend starts a Backend. The listener and every accepted
// connection are closed when the test completes.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewBackend: listen: %v", err)
	}

	lines := make(chan string, 256)
	accepted := make(chan struct{}, 16)
	backend := &Backend{
		Address:  listener.Addr().String(),
		Lines:    lines,
		Accepted: accepted,
		listener: listener,
	}
	t.Cleanup(func() {
		listener.Close()
		backend.DropConnections()
	})

	go func() {
		for {
			connection, acceptError := listener.Accept()
			if acceptError != nil {
				return
			}
			backend.mutex.Lock()
			backend.connections = append(backend.connections, connection)
			backend.mutex.Unlock()
			accepted <- struct{}{}

			go func() {
				scanner := bufio.NewScanner(connection)
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()
		}
	}()

	return backend
}

// Reply writes line followed by a newline to every open connection.
func (b *Backend) Reply(t *testing.T, line string) {
	t.Helper()
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, connection := range b.connections {
		if _, err := io.WriteString(connection, line+"\n"); err != nil {
			t.Fatalf("Backend.Reply: %v", err)
		}
	}
}

// DropConnections closes every accepted connection, as a backend
// process exiting would. The listener keeps accepting.
func (b *Backend) DropConnections() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, connection := range b.connections {
		connection.Close()
	}
	b.connections = nil
}

// UnreachableAddress returns a loopback address that refuses
// connections: it binds an ephemeral port and releases it immediately.
func UnreachableAddress(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("UnreachableAddress: listen: %v", err)
	}
	address := listener.Addr().String()
	listener.Close()
	return address
}
