package roboflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"solar-drone-bot/internal/domain/entity"
	"solar-drone-bot/internal/infrastructure/metrics"
)

func testImage() *entity.Image {
	return entity.NewImage([]byte("jpeg-bytes"), "image/jpeg")
}

func TestClient_Detect_SendsExpectedRequest(t *testing.T) {
	img := testImage()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "secret", r.URL.Query().Get("api_key"))
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, img.Payload(), string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"time":0.1,"image":{"width":640,"height":480},"predictions":[{"x":100,"y":100,"width":40,"height":40,"confidence":0.9,"class":"dust","class_id":0,"detection_id":"abc"}]}`)
	}))
	defer srv.Close()

	m := metrics.New()
	client := NewClient(Config{APIKey: "secret", Endpoint: srv.URL}, m, nil)

	dets, err := client.Detect(context.Background(), img)
	require.NoError(t, err)
	require.Equal(t, []entity.Detection{{
		X: 100, Y: 100, Width: 40, Height: 40, Confidence: 0.9,
		Class: "dust", DetectionID: "abc",
	}}, dets)
	require.Equal(t, 1.0, testutil.ToFloat64(m.InferenceRequests.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestClient_Detect_MissingPredictionsIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"time":0.1}`)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, nil, nil)

	dets, err := client.Detect(context.Background(), testImage())
	require.NoError(t, err)
	require.NotNil(t, dets)
	require.Empty(t, dets)
}

func TestClient_Detect_ServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model crashed"}`)
	}))
	defer srv.Close()

	m := metrics.New()
	client := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, m, nil)

	_, err := client.Detect(context.Background(), testImage())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "model crashed", apiErr.Message)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 1.0, testutil.ToFloat64(m.InferenceRequests.WithLabelValues(metrics.OutcomeError)))
}

func TestClient_Detect_PlainTextErrorUsesStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, nil, nil)

	_, err := client.Detect(context.Background(), testImage())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Forbidden", apiErr.Message)
}

func TestClient_Detect_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"predictions":[`)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: srv.URL}, nil, nil)

	_, err := client.Detect(context.Background(), testImage())
	require.ErrorContains(t, err, "decode response")
}

func TestClient_Detect_MissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL}, nil, nil)

	_, err := client.Detect(context.Background(), testImage())
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Zero(t, calls.Load())
}

func TestClient_Detect_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: srv.URL, Timeout: 50 * time.Millisecond}, nil, nil)

	_, err := client.Detect(context.Background(), testImage())
	require.ErrorContains(t, err, "send request")
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil, nil)
	require.Equal(t, DefaultEndpoint, client.cfg.Endpoint)
}
