// Package grpcserver implements the read side of the marketplace over gRPC.
//
// Messages are google.protobuf.Struct values so the service needs no
// generated stubs: ServiceDesc below is registered directly on a
// *grpc.Server. The package handles only transport concerns: metadata
// extraction, error mapping and conversion between domain values and
// Structs.
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"jobsync/marketplace-service/internal/access"
	"jobsync/marketplace-service/internal/marketplace"
	"jobsync/marketplace-service/internal/session"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "jobsync.marketplace.v1.Marketplace"

// MarketplaceServer is the server API of the Marketplace service.
type MarketplaceServer interface {
	GetJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SearchJobs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CountJobs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListMyBids(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Marketplace service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetJob", Handler: unary("GetJob", MarketplaceServer.GetJob)},
		{MethodName: "SearchJobs", Handler: unary("SearchJobs", MarketplaceServer.SearchJobs)},
		{MethodName: "CountJobs", Handler: unary("CountJobs", MarketplaceServer.CountJobs)},
		{MethodName: "ListMyBids", Handler: unary("ListMyBids", MarketplaceServer.ListMyBids)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobsync/marketplace/v1/marketplace.proto",
}

// Register mounts srv on s.
func Register(s *grpc.Server, srv MarketplaceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type rpc func(MarketplaceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call rpc) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MarketplaceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(MarketplaceServer), ctx, req.(*structpb.Struct))
		})
	}
}

// ─── Dependencies ────────────────────────────────────────────────────────────

// JobReader is the part of the Job Store the server reads.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*marketplace.Job, error)
}

// Searcher is the query service.
type Searcher interface {
	Search(ctx context.Context, p marketplace.SearchParams) ([]marketplace.Job, error)
	Count(ctx context.Context, f marketplace.Filter) (int64, error)
}

// BidLister is the part of the Bid Store the server reads.
type BidLister interface {
	ListByFilter(ctx context.Context, ownerEmail, category string) ([]marketplace.Bid, error)
}

// Server implements MarketplaceServer.
type Server struct {
	jobs   JobReader
	search Searcher
	bids   BidLister
	auth   *session.Authenticator
	log    *zap.Logger
}

// NewServer constructs a Server over the given stores and query service.
func NewServer(jobs JobReader, search Searcher, bids BidLister, auth *session.Authenticator, log *zap.Logger) *Server {
	return &Server{jobs: jobs, search: search, bids: bids, auth: auth, log: log}
}

// ─── RPC implementations ─────────────────────────────────────────────────────

// GetJob returns the job named by {"id"}.
func (s *Server) GetJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	job, err := s.jobs.GetByID(ctx, stringField(in, "id"))
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return toStruct(job)
}

// SearchJobs runs a paginated search: {"page","size","filter","search","sort"}.
func (s *Server) SearchJobs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	jobs, err := s.search.Search(ctx, marketplace.SearchParams{
		Page:   intField(in, "page"),
		Size:   intField(in, "size"),
		Filter: filterFrom(in),
		Sort:   stringField(in, "sort"),
	})
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return toStruct(map[string]any{"jobs": jobs})
}

// CountJobs counts the jobs matching {"filter","search"}.
func (s *Server) CountJobs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n, err := s.search.Count(ctx, filterFrom(in))
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return toStruct(map[string]any{"count": n})
}

// ListMyBids lists the bids of {"email"}, optionally narrowed by
// {"category"}. The caller must own email.
func (s *Server) ListMyBids(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.callerFromCtx(ctx)
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	owner := stringField(in, "email")
	if err := access.AuthorizeOwner(caller, owner); err != nil {
		return nil, s.toGRPCError(err)
	}

	bids, err := s.bids.ListByFilter(ctx, owner, stringField(in, "category"))
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return toStruct(map[string]any{"bids": bids})
}

// ─── Interceptors ────────────────────────────────────────────────────────────

// UnaryLogger logs every unary call with its code and duration.
func UnaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("rpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("took", time.Since(start).Truncate(time.Microsecond)),
		)
		return resp, err
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// callerFromCtx verifies the "authorization: Bearer <token>" metadata.
func (s *Server) callerFromCtx(ctx context.Context) (marketplace.Identity, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return marketplace.Identity{}, marketplace.ErrUnauthorized
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return marketplace.Identity{}, marketplace.ErrUnauthorized
	}
	return s.auth.FromBearer(vals[0])
}

// toGRPCError maps domain errors to gRPC status errors.
func (s *Server) toGRPCError(err error) error {
	var ve *marketplace.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Msg)
	case errors.Is(err, marketplace.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized access")
	case errors.Is(err, marketplace.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden access")
	case errors.Is(err, marketplace.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, marketplace.ErrInvalidID), errors.Is(err, marketplace.ErrInvalidPagination):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, marketplace.ErrDuplicateBid):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, marketplace.ErrStorageUnavailable):
		s.log.Error("rpc storage failure", zap.Error(err))
		return status.Error(codes.Unavailable, "storage unavailable")
	}
	s.log.Error("rpc failed", zap.Error(err))
	return status.Error(codes.Internal, "internal server error")
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// intField accepts whole numbers within int32 and numeric strings; anything
// else is 0 and is rejected downstream as invalid pagination.
func intField(in *structpb.Struct, key string) int {
	v := in.GetFields()[key]
	switch v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := v.GetNumberValue()
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0
		}
		return int(f)
	case *structpb.Value_StringValue:
		if n, err := strconv.Atoi(v.GetStringValue()); err == nil {
			return n
		}
	}
	return 0
}

func filterFrom(in *structpb.Struct) marketplace.Filter {
	return marketplace.Filter{Category: stringField(in, "filter"), Text: stringField(in, "search")}
}

// toStruct converts v to a Struct through its JSON encoding, so field names
// match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
