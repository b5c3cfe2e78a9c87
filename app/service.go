// Package app assembles the charging client from its configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/evopti/chargepilot/api"
	"github.com/evopti/chargepilot/auth"
	"github.com/evopti/chargepilot/config"
	"github.com/evopti/chargepilot/core/events"
	coremetrics "github.com/evopti/chargepilot/core/metrics"
	"github.com/evopti/chargepilot/core/model"
	coremon "github.com/evopti/chargepilot/core/monitoring"
	coremqtt "github.com/evopti/chargepilot/core/mqtt"
	"github.com/evopti/chargepilot/core/runlog"
	"github.com/evopti/chargepilot/core/sim"
	"github.com/evopti/chargepilot/infra/charger"
	"github.com/evopti/chargepilot/infra/logger"
	"github.com/evopti/chargepilot/infra/metrics"
	"github.com/evopti/chargepilot/infra/monitoring"
	"github.com/evopti/chargepilot/infra/mqtt"
	"github.com/evopti/chargepilot/infra/simserver"
	"github.com/evopti/chargepilot/internal/eventbus"
)

// Service owns everything a charging session needs: the wire client,
// the control loop, the sinks and the optional embedded servers.
type Service struct {
	Controller *sim.Controller
	Client     *charger.HTTPClient

	cfg     *config.Config
	bus     *eventbus.Bus
	store   runlog.Store
	mqtt    coremqtt.Client
	sim     *simserver.Server
	api     *api.Server
	monitor coremon.Monitor
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	var opts []charger.Option
	if cfg.Simulation.CallTimeout > 0 {
		opts = append(opts, charger.WithTimeout(cfg.Simulation.CallTimeout))
	}
	if cfg.Charger.Auth.Enabled {
		opts = append(opts, charger.WithAuth(auth.NewClientCred(cfg.Charger.Auth)))
	}
	client := charger.NewHTTPClient(cfg.Charger.BaseURL, opts...)

	metricsSink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	store, err := runlog.NewStore(cfg.RunLog.ModuleConfig())
	if err != nil {
		return nil, fmt.Errorf("run log store: %w", err)
	}
	bus := eventbus.New()

	sinks := []sim.Sink{
		metrics.NewSinkBridge(metricsSink, logger.New("metrics-bridge")),
		runlog.NewRecorder(store, logger.New("runlog")),
		events.NewBusSink(bus),
	}
	var mqttClient coremqtt.Client
	if cfg.MQTT.Enabled {
		cli, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		mqttClient = cli
		sinks = append(sinks, mqtt.NewRunPublisher(cli, cfg.MQTT.TopicRoot, logger.New("mqtt-sink")))
	}

	ctrl, err := sim.New(client, cfg.Simulation, sim.NewMultiSink(sinks...), logger.New("controller"))
	if err != nil {
		bus.Close()
		return nil, err
	}

	svc := &Service{
		Controller: ctrl,
		Client:     client,
		cfg:        cfg,
		bus:        bus,
		store:      store,
		mqtt:       mqttClient,
		monitor:    monitor,
		log:        logg,
	}
	if cfg.Simulator.Enabled {
		svc.sim = simserver.NewServer(cfg.Simulator)
	}
	return svc, nil
}

// Run drives one charging session to its end and returns the result.
// Cancelling ctx aborts the session; the final charger-off command
// still runs before Run returns.
func (s *Service) Run(ctx context.Context, mode model.RunMode) (model.RunResult, error) {
	if err := s.startServers(ctx); err != nil {
		return model.RunResult{}, err
	}
	id, err := s.Controller.Start(ctx, mode)
	if err != nil {
		return model.RunResult{}, err
	}
	s.log.Infof("run %s started in %s mode", id, mode)

	select {
	case res := <-s.Controller.Done():
		return res, nil
	case <-ctx.Done():
		select {
		case res := <-s.Controller.Done():
			return res, nil
		case <-time.After(30 * time.Second):
			return model.RunResult{}, fmt.Errorf("timed out waiting for the run to stop")
		}
	}
}

// Serve keeps the service up so runs can be started over the API. It
// blocks until ctx is cancelled; a run still active at shutdown is
// aborted and waited for.
func (s *Service) Serve(ctx context.Context) error {
	if !s.cfg.API.Enabled {
		return fmt.Errorf("serve requires api.enabled")
	}
	if err := s.startServers(ctx); err != nil {
		return err
	}
	s.log.Infof("serving on %s", s.cfg.API.Addr)
	<-ctx.Done()

	if s.Controller.Status().State == model.StateRunning {
		s.Controller.Abort()
		select {
		case <-s.Controller.Done():
		case <-time.After(30 * time.Second):
			s.log.Errorf("timed out waiting for the run to stop")
		}
	}
	return nil
}

// APIAddr reports the bound API listen address, empty when disabled.
func (s *Service) APIAddr() string {
	if s.api == nil {
		return ""
	}
	return s.api.Addr()
}

// SimulatorAddr reports the embedded simulator address, empty when
// disabled.
func (s *Service) SimulatorAddr() string {
	if s.sim == nil {
		return ""
	}
	return s.sim.Addr()
}

func (s *Service) startServers(ctx context.Context) error {
	if s.sim != nil {
		go func() {
			if err := s.sim.Start(ctx); err != nil {
				s.log.Errorf("sim server: %v", err)
			}
		}()
		if err := s.waitForSimulator(ctx); err != nil {
			return err
		}
	}
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		s.api = api.NewServer(ctx, s.cfg.API, s.Controller, s.store, s.bus)
		go func() {
			if err := s.api.Start(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	return nil
}

// waitForSimulator polls the embedded server until it answers, so the
// planning prologue does not race the listener.
func (s *Service) waitForSimulator(ctx context.Context) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		_, err := s.Client.Info(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("embedded simulator not reachable: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	var err error
	if s.store != nil {
		err = s.store.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return err
}
