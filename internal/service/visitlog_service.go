package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/middleware"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/repository"
	"github.com/mmynk/visitlog/internal/rpc"
)

var _ rpc.VisitLogServiceHandler = (*VisitLogService)(nil)

// VisitLogService implements the VisitLogService RPC interface. The acting
// user of each call comes from the request context, so the repositories must
// be built with middleware.ContextResolver.
type VisitLogService struct {
	accounts   *auth.Accounts
	jwtManager *auth.JWTManager
	properties *repository.PropertyRepository
	visits     *repository.VisitRepository
	logger     *slog.Logger
}

// NewVisitLogService creates the service.
func NewVisitLogService(
	accounts *auth.Accounts,
	jwtManager *auth.JWTManager,
	properties *repository.PropertyRepository,
	visits *repository.VisitRepository,
	logger *slog.Logger,
) *VisitLogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisitLogService{
		accounts:   accounts,
		jwtManager: jwtManager,
		properties: properties,
		visits:     visits,
		logger:     logger,
	}
}

// Register creates a new user account and returns a signed token for it.
func (s *VisitLogService) Register(ctx context.Context, req *connect.Request[rpc.RegisterRequest]) (*connect.Response[rpc.AuthResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	user, err := s.accounts.Register(ctx, auth.RegisterParams{
		Email:  req.Msg.Email,
		Name:   req.Msg.Name,
		Phone:  req.Msg.Phone,
		Secret: req.Msg.Password,
	})
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, rpc.ToConnectError(err)
	}

	return s.issue(user.Public())
}

// Login authenticates a user and returns a signed token.
func (s *VisitLogService) Login(ctx context.Context, req *connect.Request[rpc.LoginRequest]) (*connect.Response[rpc.AuthResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	user, err := s.accounts.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, rpc.ToConnectError(err)
	}

	return s.issue(user.Public())
}

// GetCurrentUser returns the stored account behind the bearer token.
func (s *VisitLogService) GetCurrentUser(ctx context.Context, _ *connect.Request[rpc.GetCurrentUserRequest]) (*connect.Response[rpc.GetCurrentUserResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, rpc.ToConnectError(models.ErrNotAuthenticated)
	}

	user, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return nil, rpc.ToConnectError(err)
	}
	return connect.NewResponse(&rpc.GetCurrentUserResponse{User: user.Public()}), nil
}

func (s *VisitLogService) ListProperties(ctx context.Context, _ *connect.Request[rpc.ListPropertiesRequest]) (*connect.Response[rpc.ListPropertiesResponse], error) {
	properties, err := s.properties.List(ctx)
	if err != nil {
		return nil, rpc.ToConnectError(err)
	}
	return connect.NewResponse(&rpc.ListPropertiesResponse{Properties: properties}), nil
}

func (s *VisitLogService) CreateProperty(ctx context.Context, req *connect.Request[rpc.CreatePropertyRequest]) (*connect.Response[rpc.CreatePropertyResponse], error) {
	property, err := s.properties.Create(ctx, models.PropertyInput{
		Name:        req.Msg.Name,
		Address:     req.Msg.Address,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, rpc.ToConnectError(err)
	}
	return connect.NewResponse(&rpc.CreatePropertyResponse{Property: property}), nil
}

func (s *VisitLogService) ListVisits(ctx context.Context, _ *connect.Request[rpc.ListVisitsRequest]) (*connect.Response[rpc.ListVisitsResponse], error) {
	visits, err := s.visits.ListAll(ctx)
	if err != nil {
		return nil, rpc.ToConnectError(err)
	}
	return connect.NewResponse(&rpc.ListVisitsResponse{Visits: visits}), nil
}

func (s *VisitLogService) ListVisitsByProperty(ctx context.Context, req *connect.Request[rpc.ListVisitsByPropertyRequest]) (*connect.Response[rpc.ListVisitsResponse], error) {
	visits, err := s.visits.ListByProperty(ctx, req.Msg.PropertyID)
	if err != nil {
		return nil, rpc.ToConnectError(err)
	}
	return connect.NewResponse(&rpc.ListVisitsResponse{Visits: visits}), nil
}

func (s *VisitLogService) CreateVisit(ctx context.Context, req *connect.Request[rpc.CreateVisitRequest]) (*connect.Response[rpc.CreateVisitResponse], error) {
	visit, err := s.visits.Create(ctx, models.VisitInput{
		PropertyID:   req.Msg.PropertyID,
		VisitDate:    req.Msg.VisitDate,
		NeedsParking: req.Msg.NeedsParking,
		Reason:       req.Msg.Reason,
	})
	if err != nil {
		return nil, rpc.ToConnectError(err)
	}
	return connect.NewResponse(&rpc.CreateVisitResponse{Visit: visit}), nil
}

func (s *VisitLogService) issue(user models.PublicUser) (*connect.Response[rpc.AuthResponse], error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Token issued", "user_id", user.ID)
	return connect.NewResponse(&rpc.AuthResponse{User: user, Token: token}), nil
}
