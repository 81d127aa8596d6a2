package rpc

import (
	"context"
	"net"
	"time"

	middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// NewServer creates a gRPC server with svc registered behind the recovery,
// metrics and logging interceptors
func NewServer(svc VerifierServer) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(
			recovery.UnaryServerInterceptor(
				recovery.WithRecoveryHandlerContext(recoveryHandler),
			),
			grpc_prometheus.UnaryServerInterceptor,
			loggingInterceptor,
		)),
	}
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, svc)
	reflection.Register(srv)
	grpc_prometheus.Register(srv)
	return srv
}

// Serve listens on address until ctx is done
func Serve(ctx context.Context, srv *grpc.Server, address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", address)
	}
	return ServeListener(ctx, srv, lis)
}

// ServeListener serves on lis until ctx is done, then stops gracefully
func ServeListener(ctx context.Context, srv *grpc.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", lis.Addr().String()).Info("gRPC server listening")
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "grpc server")
	case <-ctx.Done():
	}

	log.Info("Shutting down gRPC server")
	srv.GracefulStop()
	return nil
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	entry := log.WithFields(logrus.Fields{
		"method":  info.FullMethod,
		"code":    status.Code(err).String(),
		"latency": time.Since(start),
	})
	if err != nil {
		entry.WithError(err).Debug("Request failed")
	} else {
		entry.Debug("Request served")
	}
	return resp, err
}

func recoveryHandler(ctx context.Context, p interface{}) error {
	log.WithField("panic", p).Error("Recovered from panic in gRPC handler")
	return status.Errorf(codes.Internal, "internal error")
}
