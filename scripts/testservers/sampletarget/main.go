// Command sampletarget runs a local HTTP server with tunable latency and
// failure injection, for exercising stampede without pointing it at a real
// site.
//
// Example:
//
//	go run ./scripts/testservers/sampletarget -port 8080 -latency 30ms -jitter 20ms -error-rate 0.05
//	stampede --url http://localhost:8080/ --users 20 --duration 30 --delay 100
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type target struct {
	latency   time.Duration
	jitter    time.Duration
	errorRate float64
}

func main() {
	port := flag.Int("port", 0, "Listening port")
	latency := flag.Duration("latency", 0, "Base delay added to every response")
	jitter := flag.Duration("jitter", 0, "Random extra delay, uniform in [0, jitter)")
	errorRate := flag.Float64("error-rate", 0, "Fraction of requests answered with 500 (0 to 1)")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}
	if *errorRate < 0 || *errorRate > 1 {
		log.Fatalf("error-rate must be between 0 and 1")
	}

	t := &target{latency: *latency, jitter: *jitter, errorRate: *errorRate}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", t.handleHealth)
	mux.HandleFunc("/slow", t.handleSlow)
	mux.HandleFunc("/status/", t.handleStatus)
	mux.HandleFunc("/echo", t.handleEcho)
	mux.HandleFunc("/", t.handleRoot)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("sample target listening on %s (latency=%s jitter=%s error-rate=%.2f)", addr, *latency, *jitter, *errorRate)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (t *target) handleRoot(w http.ResponseWriter, r *http.Request) {
	t.simulate()
	if t.shouldFail() {
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "injected failure"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "path": r.URL.Path})
}

func (t *target) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleSlow sleeps for ?ms= milliseconds on top of the configured latency,
// for driving timeout classification.
func (t *target) handleSlow(w http.ResponseWriter, r *http.Request) {
	t.simulate()
	if raw := r.URL.Query().Get("ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "ms must be a non-negative integer"})
			return
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleStatus answers /status/<code> with that status, for populating the
// status-code distribution.
func (t *target) handleStatus(w http.ResponseWriter, r *http.Request) {
	t.simulate()
	raw := strings.TrimPrefix(r.URL.Path, "/status/")
	code, err := strconv.Atoi(raw)
	if err != nil || code < 100 || code > 599 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "status code must be between 100 and 599"})
		return
	}
	respondJSON(w, code, map[string]any{"status": code})
}

func (t *target) handleEcho(w http.ResponseWriter, r *http.Request) {
	t.simulate()
	body := ""
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"method":  r.Method,
		"path":    r.URL.Path,
		"query":   r.URL.RawQuery,
		"headers": r.Header,
		"body":    body,
	})
}

func (t *target) simulate() {
	delay := t.latency
	if t.jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(t.jitter)))
	}
	if delay > 0 {
		time.Sleep(delay)
	}
}

func (t *target) shouldFail() bool {
	return t.errorRate > 0 && rand.Float64() < t.errorRate
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
