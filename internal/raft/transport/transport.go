// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package transport

import (
	"context"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/holomush/mudcore/internal/raft"
)

// Server exposes a raft.Node as the Raft gRPC service for other nodes
// in the static peer set to call.
type Server struct {
	node *raft.Node
	grpc *grpc.Server
}

// NewServer wraps node and registers it against the manual ServiceDesc.
func NewServer(node *raft.Node) *Server {
	s := &Server{node: node, grpc: grpc.NewServer()}
	s.grpc.RegisterService(&serviceDesc, s)
	return s
}

// GRPCServer returns the underlying *grpc.Server so callers can Serve
// it on a net.Listener alongside other services (oklog/run group).
func (s *Server) GRPCServer() *grpc.Server { return s.grpc }

func (s *Server) AppendEntries(ctx context.Context, req *raft.AppendEntriesRequest) (*raft.AppendEntriesResponse, error) {
	if err := s.node.Append(ctx, req.Entries); err != nil {
		return nil, err
	}
	return &raft.AppendEntriesResponse{Term: req.Term, Success: true}, nil
}

func (s *Server) InstallSnapshot(ctx context.Context, req *raft.InstallSnapshotRequest) (*Ack, error) {
	if err := s.node.InstallSnapshot(ctx, req.Data); err != nil {
		return nil, err
	}
	return &Ack{}, nil
}

// Client implements raft.Transport over grpc.ClientConn, one
// connection per peer, reusing the raftjson content-subtype codec
// registered in codec.go.
type Client struct {
	dialOpts []grpc.DialOption
	conns    map[string]*grpc.ClientConn
}

// NewClient builds a Client that dials peers insecurely (the static
// node set is expected to run on a trusted private network, matching
// the teacher's plaintext inter-plugin transport default).
func NewClient() *Client {
	return &Client{
		dialOpts: []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
		conns:    make(map[string]*grpc.ClientConn),
	}
}

func (c *Client) connFor(addr string) (*grpc.ClientConn, error) {
	if conn, ok := c.conns[addr]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return nil, oops.In("raft_transport").Wrapf(err, "dial peer %s", addr)
	}
	c.conns[addr] = conn
	return conn, nil
}

func (c *Client) AppendEntries(ctx context.Context, peer raft.Peer, req raft.AppendEntriesRequest) (raft.AppendEntriesResponse, error) {
	conn, err := c.connFor(peer.Addr)
	if err != nil {
		return raft.AppendEntriesResponse{}, err
	}
	var resp raft.AppendEntriesResponse
	err = conn.Invoke(ctx, "/"+serviceName+"/AppendEntries", &req, &resp, grpc.CallContentSubtype(codecName))
	if err != nil {
		return raft.AppendEntriesResponse{}, oops.In("raft_transport").Wrapf(err, "AppendEntries to %s", peer.ID)
	}
	return resp, nil
}

func (c *Client) InstallSnapshot(ctx context.Context, peer raft.Peer, req raft.InstallSnapshotRequest) error {
	conn, err := c.connFor(peer.Addr)
	if err != nil {
		return err
	}
	var ack Ack
	err = conn.Invoke(ctx, "/"+serviceName+"/InstallSnapshot", &req, &ack, grpc.CallContentSubtype(codecName))
	if err != nil {
		return oops.In("raft_transport").Wrapf(err, "InstallSnapshot to %s", peer.ID)
	}
	return nil
}

// Close tears down every dialed connection.
func (c *Client) Close() error {
	var first error
	for _, conn := range c.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
