package vertexd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/vertex-source/internal/vertex"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/logger"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
)

func TestHTTPServerHealthz(t *testing.T) {
	srv := NewHTTPServer(newPointService(t))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestHTTPServerSource(t *testing.T) {
	srv := NewHTTPServer(newPointService(t))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/source", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var d Description
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	require.Equal(t, "gamma", d.Particle)
	require.Equal(t, "ready", d.State)
	require.Equal(t, "point", d.Source.Name)
}

func TestHTTPServerSourceMethodNotAllowed(t *testing.T) {
	srv := NewHTTPServer(newPointService(t))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/source", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHTTPServerGenerateVertices(t *testing.T) {
	srv := NewHTTPServer(newPointService(t))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/vertices", strings.NewReader(`{"count": 4, "time_ns": 12.5}`))

	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Count    int                      `json:"count"`
		Vertices []models.KinematicRecord `json:"vertices"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 4, body.Count)
	require.Len(t, body.Vertices, 4)
	for _, v := range body.Vertices {
		require.Equal(t, 12.5, v.Time)
		require.Equal(t, 1.0, v.Energy)
	}
}

func TestHTTPServerGenerateBadRequests(t *testing.T) {
	srv := NewHTTPServer(newPointService(t))

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"count":`},
		{"zero count", `{"count": 0}`},
		{"negative time", `{"count": 1, "time_ns": -5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/vertices", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(rr, req)
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHTTPServerGenerateMethodNotAllowed(t *testing.T) {
	srv := NewHTTPServer(newPointService(t))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/vertices", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHTTPServerGenerateRateLimited(t *testing.T) {
	svc := newPointService(t)
	svc.SetRateLimit(1)
	srv := NewHTTPServer(svc)

	got := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/vertices", strings.NewReader(`{"count": 1}`))
		srv.Handler().ServeHTTP(rr, req)
		got = append(got, rr.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, got)
}

func TestHTTPServerFailedSource(t *testing.T) {
	gen, err := vertex.Open(&brokenModel{}, vertex.Options{Source: "broken", Logger: logger.Discard()})
	require.NoError(t, err)
	srv := NewHTTPServer(NewService(gen, nil, "fixed"))

	var got []int
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/v1/vertices", strings.NewReader(`{"count": 2}`)),
		httptest.NewRequest(http.MethodPost, "/v1/vertices", strings.NewReader(`{"count": 1}`)),
		httptest.NewRequest(http.MethodGet, "/healthz", nil),
	} {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		got = append(got, rr.Code)
	}
	require.Equal(t, []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable}, got)
}
