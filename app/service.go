package app

import (
	"context"
	"fmt"

	"github.com/gridshift/hpwhctl/config"
	"github.com/gridshift/hpwhctl/core/cta2045"
	"github.com/gridshift/hpwhctl/core/horizon"
	coremetrics "github.com/gridshift/hpwhctl/core/metrics"
	"github.com/gridshift/hpwhctl/core/model"
	"github.com/gridshift/hpwhctl/forecast"
	"github.com/gridshift/hpwhctl/infra/logger"
	"github.com/gridshift/hpwhctl/infra/metrics"
	"github.com/gridshift/hpwhctl/infra/mqtt"
)

// Service wires the forecast source, the scheduling driver and the command
// publisher together.
type Service struct {
	Driver      *horizon.Driver
	cfg         *config.Config
	log         logger.Logger
	closers     []func()
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	var pub horizon.Publisher
	var closers []func()
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewCommandPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		pub = p
		closers = append(closers, p.Close)
	} else {
		logg.Warnf("no MQTT broker configured; commands are logged only")
		pub = logPublisher{log: logg}
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
		sinks = append(sinks, sink)
		closers = appendCloser(closers, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	driver := &horizon.Driver{
		Planner:   cfg.Planner.Build(),
		Algorithm: cfg.Planner.Algorithm,
		Publisher: pub,
		Sink:      sink,
		Log:       logger.New("driver"),
	}

	return &Service{
		Driver:      driver,
		cfg:         cfg,
		log:         logg,
		closers:     closers,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	windows := make(chan model.Parameters, 1)
	go func() {
		if err := s.Driver.Run(ctx, windows); err != nil {
			s.log.Errorf("driver: %v", err)
		}
	}()

	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	dev := s.cfg.Device.Spec()
	switch s.cfg.Forecast.Source {
	case "file":
		f, err := forecast.LoadFile(s.cfg.Forecast.Path)
		if err != nil {
			return err
		}
		params, err := f.Parameters(dev)
		if err != nil {
			return err
		}
		windows <- params
	default:
		client := forecast.NewClient(s.cfg.Forecast, dev, windows)
		go func() {
			if err := client.Start(ctx); err != nil {
				s.log.Errorf("forecast client: %v", err)
			}
		}()
	}

	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	for _, c := range s.closers {
		c()
	}
	return nil
}

// appendCloser registers the sink's Close when it holds releasable resources,
// e.g. the influx client behind NewInfluxSinkWithFallback.
func appendCloser(closers []func(), sink coremetrics.Sink) []func() {
	if c, ok := sink.(interface{ Close() }); ok {
		return append(closers, c.Close)
	}
	return closers
}

// logPublisher applies commands by logging them; used when no broker is
// configured.
type logPublisher struct {
	log logger.Logger
}

func (p logPublisher) PublishCommand(_ context.Context, planID string, step int, cmd cta2045.Command) error {
	p.log.Infof("plan %s step %d: %s", planID, step, cmd)
	return nil
}
