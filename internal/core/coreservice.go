package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/photolog/internal/capture"
	"github.com/jo-hoe/photolog/internal/category"
	"github.com/jo-hoe/photolog/internal/export"
	"github.com/jo-hoe/photolog/internal/render"
	"github.com/jo-hoe/photolog/internal/session"
	"github.com/jo-hoe/photolog/internal/storage"
)

type CoreService struct {
	config   *ServiceConfig
	resolver *category.Resolver
	device   capture.Device
	storage  storage.Factory
	sessions *session.Manager
	grabber  *capture.Grabber
	exporter *export.Exporter
	renderer *render.Renderer
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	resolver, err := NewResolver(config)
	if err != nil {
		return nil, err
	}

	device, err := capture.DefaultRegistry.Create(config.Capture.Device, config.Capture.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	slog.Info("capture device initialized", "device", device.Name())

	factory, err := storage.NewBackendFactory(config.Store.Type, config.Store.ConnectionString, config.Session.IdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize entry store: %w", err)
	}

	return &CoreService{
		config:   config,
		resolver: resolver,
		device:   device,
		storage:  factory,
		sessions: session.NewManager(device, factory, resolver, config.Session.IdleTimeout),
		grabber:  capture.NewGrabber(capture.WithPreviewMaxWidth(config.Capture.PreviewMaxWidth)),
		exporter: export.NewExporter(config.Export.ManifestName),
		renderer: render.NewRenderer(),
	}, nil
}

// NewResolver builds the category resolver from the configured categories
func NewResolver(config *ServiceConfig) (*category.Resolver, error) {
	definitions := make([]category.Definition, 0, len(config.Categories))
	for _, c := range config.Categories {
		definitions = append(definitions, category.Definition{Name: c.Name, Subcategories: c.Subcategories})
	}
	resolver, err := category.NewResolver(definitions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize categories: %w", err)
	}
	return resolver, nil
}

func (service *CoreService) Resolver() *category.Resolver {
	return service.resolver
}

func (service *CoreService) Device() capture.Device {
	return service.device
}

func (service *CoreService) Sessions() *session.Manager {
	return service.sessions
}

func (service *CoreService) Grabber() *capture.Grabber {
	return service.grabber
}

func (service *CoreService) Exporter() *export.Exporter {
	return service.exporter
}

func (service *CoreService) Renderer() *render.Renderer {
	return service.renderer
}

// RunSweeper ends idle sessions in the background until ctx is done
func (service *CoreService) RunSweeper(ctx context.Context) {
	interval := service.config.Session.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	service.sessions.Run(ctx, interval)
}

// Close ends all sessions and releases the entry store
func (service *CoreService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Join(
		service.sessions.Close(ctx),
		service.storage.Close(),
	)
}
