package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BearBump/OrderTrack/config"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type stubService struct{}

func (stubService) GetTracking(ctx context.Context, ref string) (models.TrackingView, error) {
	if ref != "BF-1001" {
		return models.TrackingView{}, errors.Wrap(tracking.ErrNotFound, ref)
	}
	return models.TrackingView{
		OrderNumber:     "BF-1001",
		Status:          "ASSIGNED",
		OrderItems:      []models.LineItem{},
		ProofOfDelivery: []string{},
		Timeline:        []models.TimelineEntry{},
	}, nil
}

func startTrackAPI(t *testing.T) string {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan string, 1)
	opts := trackAPIOpts{
		grpcAddr:     "127.0.0.1:0",
		httpAddr:     "127.0.0.1:0",
		grpcDialAddr: "127.0.0.1:0", // будет подменён внутри runTrackAPI
		swaggerPath:  sw,
		onListen:     func(_grpcAddr, httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- runTrackAPI(ctx, opts, stubService{}) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(3 * time.Second):
			t.Error("timeout waiting servers to stop")
		}
	})

	select {
	case addr := <-addrCh:
		return "http://" + addr
	case err := <-errCh:
		t.Fatalf("track-api exited: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("track-api did not start")
	}
	return ""
}

func TestRunTrackAPI_ServesSwaggerAndHealth(t *testing.T) {
	base := startTrackAPI(t)

	resp, err := http.Get(base + "/swagger.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "\"swagger\"")

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunTrackAPI_TrackingThroughGateway(t *testing.T) {
	base := startTrackAPI(t)

	// gateway дозванивается до gRPC лениво
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/v1/tracking/BF-1001")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var got map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			return false
		}
		return got["orderNumber"] == "BF-1001" && got["status"] == "ASSIGNED"
	}, 3*time.Second, 50*time.Millisecond)

	resp, err := http.Get(base + "/v1/tracking/BF-404")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunTrackAPI_MissingSwagger(t *testing.T) {
	err := runTrackAPI(context.Background(), trackAPIOpts{swaggerPath: filepath.Join(t.TempDir(), "nope.json")}, stubService{})
	require.Error(t, err)
}

func TestNewDispatchProvider(t *testing.T) {
	cfg := &config.Config{}
	require.Nil(t, newDispatchProvider(cfg, nil))

	cfg.OrderTrack.DispatchMode = "fake"
	require.NotNil(t, newDispatchProvider(cfg, nil))

	cfg.OrderTrack.DispatchMode = "shipday"
	cfg.OrderTrack.DispatchAPIKey = "k"
	require.NotNil(t, newDispatchProvider(cfg, nil))
}

func TestBootstrapHelpers(t *testing.T) {
	require.Equal(t, 3*time.Second, millis(0, 3000))
	require.Equal(t, 250*time.Millisecond, millis(250, 3000))

	cfg := &config.Config{}
	require.Equal(t, "order.facts_learned", factsTopic(cfg))
	cfg.Kafka.FactsLearnedTopicName = "custom"
	require.Equal(t, "custom", factsTopic(cfg))
}

func TestDispatchRetries(t *testing.T) {
	cfg := &config.Config{}
	require.Equal(t, 2, dispatchRetries(cfg))

	zero, negative, five := 0, -1, 5
	cfg.OrderTrack.DispatchMaxRetries = &zero
	require.Equal(t, 0, dispatchRetries(cfg))
	cfg.OrderTrack.DispatchMaxRetries = &negative
	require.Equal(t, 2, dispatchRetries(cfg))
	cfg.OrderTrack.DispatchMaxRetries = &five
	require.Equal(t, 5, dispatchRetries(cfg))
}
