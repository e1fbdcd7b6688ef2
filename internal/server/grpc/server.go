package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Payments is the purchase side used by the transport.
type Payments interface {
	CreateIntent(ctx context.Context, userID, contentID string) (*services.CreatedIntent, error)
	ConfirmIntent(ctx context.Context, intentID, userID string) error
}

// Tokens issues and resolves download tokens.
type Tokens interface {
	IssueToken(ctx context.Context, userID, contentID, format string) (*services.IssuedToken, error)
	ResolveToken(ctx context.Context, tokenValue string) (*services.ResolvedToken, error)
}

// Library lists what a user owns.
type Library interface {
	List(ctx context.Context, userID string) ([]*models.Ownership, error)
}

type GRPCServer struct {
	address   string
	payments  Payments
	tokens    Tokens
	library   Library
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, p Payments, t Tokens, lib Library, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		payments:  p,
		tokens:    t,
		library:   lib,
		jwtSecret: []byte(secretKey),
	}
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve is Run over an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.accessTokenInterceptor))

	Register(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(common.StoreServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
