package mux

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"malt-scraper/internal/config"
	"malt-scraper/internal/grpc/server"
	"malt-scraper/internal/logging"
	"malt-scraper/internal/profiles"
	"malt-scraper/pkg/models"
)

type nopService struct{}

func (nopService) ProcessProfile(ctx context.Context, url string) (*profiles.Result, error) {
	return &profiles.Result{Record: &models.ProfileRecord{}}, nil
}

func (nopService) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	return &models.Profile{ProfileID: profileID}, nil
}

func TestMultiplexer_ServesHTTPAndGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})

	m := NewMultiplexer(config.Default().Server, server.NewServer(nopService{}, logging.NewNop()), handler, logging.NewNop())
	m.Serve(lis)

	resp, err := http.Get("http://" + m.Address() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	conn, err := grpc.NewClient(m.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: server.ProfileServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.GetStatus())

	req, err := structpb.NewStruct(map[string]interface{}{"profile_id": "jdoe"})
	require.NoError(t, err)
	out, err := server.NewProfileServiceClient(conn).GetProfile(ctx, req)
	require.NoError(t, err)
	assert.True(t, out.GetFields()["status"].GetBoolValue())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	conn.Close()
	assert.NoError(t, m.Stop(stopCtx))
}
