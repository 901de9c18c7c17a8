package main

import (
	"StickyBus/internal/sticky"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type busHealth struct {
	Name         string   `json:"name"`
	Participants int      `json:"participants"`
	Providers    []string `json:"providers"`
}

type healthResponse struct {
	Status string      `json:"status"`
	Buses  []busHealth `json:"buses"`
}

func newMux(buses *sticky.BusRegistry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", healthHandler(buses))
	return mux
}

// healthHandler reports every bus with its registered participant count and
// the event types that currently have a provider.
func healthHandler(buses *sticky.BusRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Buses: []busHealth{}}
		for _, name := range buses.Names() {
			d := buses.Get(name)
			h := busHealth{Name: name, Participants: d.Registered(), Providers: []string{}}
			for _, t := range d.Providers() {
				h.Providers = append(h.Providers, t.String())
			}
			resp.Buses = append(resp.Buses, h)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
