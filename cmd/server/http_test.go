package main

import (
	"StickyBus/internal/core/ports"
	"StickyBus/internal/sticky"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusSource struct {
	bus string
}

func (s *statusSource) Provisions() []ports.Provision {
	return []ports.Provision{ports.Provide(func() (daemonStatus, error) {
		return daemonStatus{Bus: s.bus, State: "running"}, nil
	})}
}

func TestHealthz(t *testing.T) {
	nopLogger := zerolog.Nop()
	buses := sticky.NewBusRegistry(sticky.Options{}, &nopLogger)
	buses.Get("home").Register(context.Background(), &statusSource{bus: "home"})
	buses.Get("garden")

	rec := httptest.NewRecorder()
	newMux(buses).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []busHealth{
		{Name: "garden", Participants: 0, Providers: []string{}},
		{Name: "home", Participants: 1, Providers: []string{"main.daemonStatus"}},
	}, resp.Buses)
}

func TestMetricsEndpoint(t *testing.T) {
	nopLogger := zerolog.Nop()
	rec := httptest.NewRecorder()
	newMux(sticky.NewBusRegistry(sticky.Options{}, &nopLogger)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
