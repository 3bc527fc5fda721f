package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// VisitLogServiceHandler is implemented by the server.
type VisitLogServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
	ListProperties(context.Context, *connect.Request[ListPropertiesRequest]) (*connect.Response[ListPropertiesResponse], error)
	CreateProperty(context.Context, *connect.Request[CreatePropertyRequest]) (*connect.Response[CreatePropertyResponse], error)
	ListVisits(context.Context, *connect.Request[ListVisitsRequest]) (*connect.Response[ListVisitsResponse], error)
	ListVisitsByProperty(context.Context, *connect.Request[ListVisitsByPropertyRequest]) (*connect.Response[ListVisitsResponse], error)
	CreateVisit(context.Context, *connect.Request[CreateVisitRequest]) (*connect.Response[CreateVisitResponse], error)
}

// NewVisitLogServiceHandler builds an HTTP handler for svc and returns the
// path prefix to mount it on.
func NewVisitLogServiceHandler(svc VisitLogServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(RegisterProcedure, connect.NewUnaryHandler(RegisterProcedure, svc.Register, opts...))
	mux.Handle(LoginProcedure, connect.NewUnaryHandler(LoginProcedure, svc.Login, opts...))
	mux.Handle(GetCurrentUserProcedure, connect.NewUnaryHandler(GetCurrentUserProcedure, svc.GetCurrentUser, opts...))
	mux.Handle(ListPropertiesProcedure, connect.NewUnaryHandler(ListPropertiesProcedure, svc.ListProperties, opts...))
	mux.Handle(CreatePropertyProcedure, connect.NewUnaryHandler(CreatePropertyProcedure, svc.CreateProperty, opts...))
	mux.Handle(ListVisitsProcedure, connect.NewUnaryHandler(ListVisitsProcedure, svc.ListVisits, opts...))
	mux.Handle(ListVisitsByPropertyProcedure, connect.NewUnaryHandler(ListVisitsByPropertyProcedure, svc.ListVisitsByProperty, opts...))
	mux.Handle(CreateVisitProcedure, connect.NewUnaryHandler(CreateVisitProcedure, svc.CreateVisit, opts...))

	return "/" + ServiceName + "/", mux
}
