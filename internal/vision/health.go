package vision

// #region imports
import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// #endregion

// #region probe

// ProbeHealth asks the detection service's gRPC health endpoint whether
// service is SERVING. Any other answer wraps ErrDetectorUnavailable.
func ProbeHealth(ctx context.Context, addr, service string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("%w: grpc dial %s: %v", ErrDetectorUnavailable, addr, err)
	}
	defer conn.Close()

	return probeWith(ctx, healthpb.NewHealthClient(conn), service)
}

func probeWith(ctx context.Context, client healthpb.HealthClient, service string) error {
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("%w: health rpc: %v", ErrDetectorUnavailable, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: status %s", ErrDetectorUnavailable, resp.GetStatus())
	}
	return nil
}

// #endregion
