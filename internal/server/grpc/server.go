package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	templates *services.TemplateService
	exports   *services.ExportService
	logger    logging.Logger
	jwtSecret []byte
	maxMsg    int
}

// NewGRPCServer prepares a server on address a. maxMsg bounds messages in
// both directions; zero or less means common.DefaultMaxMessageSize.
func NewGRPCServer(a string, l logging.Logger, ts *services.TemplateService, es *services.ExportService, secretKey string, maxMsg int) (*GRPCServer, error) {
	if maxMsg <= 0 {
		maxMsg = common.DefaultMaxMessageSize
	}
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		templates: ts,
		exports:   es,
		jwtSecret: []byte(secretKey),
		maxMsg:    maxMsg,
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.MaxRecvMsgSize(s.maxMsg),
		grpc.MaxSendMsgSize(s.maxMsg),
	)
	srv.RegisterService(&TemplateServiceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
