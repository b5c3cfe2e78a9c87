package simserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/infra/logger"
)

// Server exposes the simulator wire protocol over HTTP.
type Server struct {
	mu       sync.RWMutex
	addr     string
	model    *Model
	log      logger.Logger
	srv      *http.Server
	interval time.Duration
	perTick  int
	requests *prometheus.CounterVec
	rejected prometheus.Counter
}

// NewServer creates a simulator server using the default Prometheus
// registerer.
func NewServer(cfg Config) *Server {
	return NewServerWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewServerWithRegistry creates a simulator server and registers metrics on
// the provided registerer. If reg is nil the default registerer is used.
func NewServerWithRegistry(cfg Config, reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cfg.setDefaults()

	log := logger.New("sim-server")

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simserver_requests_total",
		Help: "Total simulator API requests",
	}, []string{"endpoint"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simserver_requests_rejected",
		Help: "Simulator API requests rejected as malformed",
	})

	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				requests = exist
			} else {
				log.Errorf("existing collector for simserver_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	if err := reg.Register(rejected); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				rejected = exist
			} else {
				log.Errorf("existing collector for simserver_requests_rejected has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &Server{
		addr:     cfg.Addr,
		model:    NewModel(cfg),
		log:      log,
		interval: cfg.TickInterval,
		perTick:  cfg.MinutesPerTick,
		requests: requests,
		rejected: rejected,
	}
}

// Model returns the simulated household for deterministic stepping in
// tests.
func (s *Server) Model() *Model { return s.model }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/baseload", s.handleProfile("/baseload", s.model.BaseLoad))
	mux.HandleFunc("/priceperhour", s.handleProfile("/priceperhour", s.model.Prices))
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/charge", s.handleSwitch("/charge", "charging", s.model.SetCharging, "Charging"))
	mux.HandleFunc("/discharge", s.handleSwitch("/discharge", "discharging", s.model.SetDischarging, "Discharging"))
	return mux
}

func (s *Server) handleProfile(endpoint string, profile func() model.HourlyProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.reject(w, "method not allowed")
			return
		}
		s.requests.WithLabelValues(endpoint).Inc()
		s.writeJSON(w, profile())
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.reject(w, "method not allowed")
		return
	}
	s.requests.WithLabelValues("/info").Inc()
	tel := s.model.Info()
	s.writeJSON(w, map[string]any{
		"sim_time_hour":        tel.SimHour,
		"sim_time_min":         tel.SimMinute,
		"base_current_load":    tel.BaseLoadKW,
		"battery_capacity_kWh": tel.BatteryKWh,
	})
}

func (s *Server) handleSwitch(endpoint, field string, set func(bool), label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.reject(w, "method not allowed")
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.reject(w, "malformed body")
			return
		}
		state, ok := body[field]
		if !ok || (state != "on" && state != "off") {
			s.reject(w, field+" must be \"on\" or \"off\"")
			return
		}
		s.requests.WithLabelValues(endpoint).Inc()
		set(state == "on")
		s.writeJSON(w, label+" "+state)
	}
}

func (s *Server) reject(w http.ResponseWriter, msg string) {
	s.rejected.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		s.log.Errorf("write error reply: %v", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("write reply: %v", err)
	}
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start runs the HTTP server and the simulated clock until the context
// is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.RLock()
	addr := s.addr
	s.mu.RUnlock()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.srv = &http.Server{Handler: s.routes()}

	go s.runClock(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()

	s.log.Infof("simulator listening on %s", s.addr)
	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) runClock(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.model.Step(s.perTick)
		}
	}
}
