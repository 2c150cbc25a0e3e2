// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package transport

import (
	"context"

	"google.golang.org/grpc"

	"github.com/holomush/mudcore/internal/raft"
)

const serviceName = "holomush.raft.v1.Raft"

// Handler is implemented by Server and invoked by the generated-style
// dispatch table below.
type Handler interface {
	AppendEntries(ctx context.Context, req *raft.AppendEntriesRequest) (*raft.AppendEntriesResponse, error)
	InstallSnapshot(ctx context.Context, req *raft.InstallSnapshotRequest) (*Ack, error)
}

// Ack is InstallSnapshot's empty acknowledgement.
type Ack struct{}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AppendEntries", Handler: appendEntriesHandler},
		{MethodName: "InstallSnapshot", Handler: installSnapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/raft/transport",
}

func appendEntriesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(raft.AppendEntriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).AppendEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AppendEntries"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).AppendEntries(ctx, req.(*raft.AppendEntriesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func installSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(raft.InstallSnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).InstallSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/InstallSnapshot"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).InstallSnapshot(ctx, req.(*raft.InstallSnapshotRequest))
	}
	return interceptor(ctx, in, info, handler)
}
