// This file is part of qemu-sub001.
//
// qemu-sub001 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// qemu-sub001 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with qemu-sub001.  If not, see <https://www.gnu.org/licenses/>.

// Package monitor exposes live runtime introspection of a dm.DM over
// HTTP: the go-echarts/statsview "pprof-style" runtime dashboard
// (goroutines, heap, GC pauses — useful while a long-running debug
// session is attached) plus a small JSON endpoint of debug-subsystem
// specific state (per-hart halted/running state, whether an abstract
// command is in flight, its cmderr and the sticky SBA error), open to
// cross-origin requests
// so a browser-hosted front-end on a different port can poll it.
package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/rs/cors"

	"github.com/luismarques/qemu-sub001/dm"
)

// Monitor owns a statsview runtime dashboard and a counters endpoint for
// one DM.
type Monitor struct {
	d  *dm.DM
	sv *statsview.Viewer
}

// New creates a Monitor over d. Nothing is served until ListenAndServe
// is called.
func New(d *dm.DM) *Monitor {
	return &Monitor{d: d}
}

// ListenAndServe starts the statsview dashboard on addr and the JSON
// counters endpoint at addr's port+1, blocking until either server
// returns an error.
func (m *Monitor) ListenAndServe(addr string) error {
	m.sv = statsview.New(statsview.WithAddr(addr))
	go m.sv.Start()

	return m.serveCounters(counterAddr(addr))
}

// counterAddr derives the companion JSON endpoint's address from the
// dashboard's by shifting host:port to host:(port+1), so a caller only
// has to configure one address.
func counterAddr(addr string) string {
	host, port := splitHostPort(addr)
	n := 0
	fmt.Sscanf(port, "%d", &n)
	return fmt.Sprintf("%s:%d", host, n+1)
}

func splitHostPort(addr string) (host, port string) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:]
		}
	}
	return addr, ""
}

func (m *Monitor) serveCounters(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/dm/status", m.handleStatus)

	handler := cors.New(cors.Options{AllowedOrigins: []string{"*"}}).Handler(mux)
	return http.ListenAndServe(addr, handler)
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.d.Counters())
}
