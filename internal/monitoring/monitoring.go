package monitoring

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Pipeline counters, exposed in Prometheus text format by HandleMetrics.
var (
	ConnectionsOpened atomic.Int64
	ConnectionsClosed atomic.Int64
	FramesReceived    atomic.Int64
	ReadingsAccepted  atomic.Int64
	StateTransitions  atomic.Int64
	AlertsDispatched  atomic.Int64
	BroadcastsSent    atomic.Int64
)

// Config holds monitoring configuration
type Config struct {
	PrometheusEndpoint string
}

// Service provides monitoring functionality
type Service struct {
	config Config
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	return &Service{
		config: config,
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now()
	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)
}

// HandleMetrics serves the pipeline counters in Prometheus text format.
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "hub_connections_opened_total %d\n", ConnectionsOpened.Load())
	fmt.Fprintf(w, "hub_connections_closed_total %d\n", ConnectionsClosed.Load())
	fmt.Fprintf(w, "hub_frames_received_total %d\n", FramesReceived.Load())
	fmt.Fprintf(w, "hub_readings_accepted_total %d\n", ReadingsAccepted.Load())
	fmt.Fprintf(w, "hub_state_transitions_total %d\n", StateTransitions.Load())
	fmt.Fprintf(w, "hub_alerts_dispatched_total %d\n", AlertsDispatched.Load())
	fmt.Fprintf(w, "hub_broadcasts_sent_total %d\n", BroadcastsSent.Load())
}
