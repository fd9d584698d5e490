package container

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	"github.com/anime-shed/brand-inspector-go/internal/config"
	"github.com/anime-shed/brand-inspector-go/internal/factory"
	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/internal/observer"
	"github.com/anime-shed/brand-inspector-go/internal/report"
	"github.com/anime-shed/brand-inspector-go/internal/repository"
	"github.com/anime-shed/brand-inspector-go/internal/service"
	"github.com/anime-shed/brand-inspector-go/internal/storage"
	"github.com/anime-shed/brand-inspector-go/internal/textcheck"
	"github.com/anime-shed/brand-inspector-go/internal/transport"
	"github.com/anime-shed/brand-inspector-go/pkg/validation"

	"golang.org/x/text/language"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	imageFetcher      storage.ImageFetcher
	brandAnalyzer     analyzer.BrandAnalyzer
	imageRepository   repository.ImageRepository
	reportRepository  repository.ReportRepository
	events            observer.Subject
	metrics           *observer.MetricsObserver
	inspectionService service.InspectionService
	handler           http.Handler
}

// NewContainer wires the application from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	sources := factory.SourceOptions{PublicOnly: !cfg.AllowLocalSources}
	if cfg.HasAzure() {
		sources.Azure = factory.AzureCredentials{
			AccountName: cfg.AzureAccountName,
			AccountKey:  cfg.AzureAccountKey,
		}
	} else {
		logger.Info("Azure blob storage not configured, blob URLs will be rejected")
	}
	components := factory.NewComponentFactory(sources)
	imageFetcher := storage.WithTimeout(factory.NewRouter(components.StorageFactory), cfg.ImageFetchTimeout)

	validator := validation.NewLocationValidator()
	if cfg.AllowLocalSources {
		validator = validation.NewLocalLocationValidator()
	}
	imageRepository := repository.NewImageRepository(imageFetcher, validator)

	var reportRepository repository.ReportRepository
	if cfg.ReportDBPath != "" {
		var err error
		if reportRepository, err = repository.NewSQLiteReportRepository(cfg.ReportDBPath); err != nil {
			return nil, fmt.Errorf("failed to open report database: %w", err)
		}
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	brandAnalyzer := analyzer.NewBrandAnalyzer(cfg.Workers)
	inspectionService := service.NewInspectionService(service.Dependencies{
		Images:   imageRepository,
		Reports:  reportRepository,
		Analyzer: brandAnalyzer,
		OCR:      textcheck.NewTesseractEngine(cfg.OCRLanguage),
		Renderer: report.NewRenderer(language.English),
		Events:   events,
		Metrics:  metrics,
	}, service.Defaults{
		Match:        cfg.MatchOptions(),
		Brand:        cfg.BrandPalette,
		Wrong:        cfg.WrongPalette,
		Extract:      analyzer.DefaultExtractOptions(),
		BatchWorkers: cfg.Workers,
	})

	return &Container{
		config:            cfg,
		imageFetcher:      imageFetcher,
		brandAnalyzer:     brandAnalyzer,
		imageRepository:   imageRepository,
		reportRepository:  reportRepository,
		events:            events,
		metrics:           metrics,
		inspectionService: inspectionService,
		handler:           transport.NewHandler(inspectionService, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the inspection service
func (c *Container) Service() service.InspectionService {
	return c.inspectionService
}

// Close releases the worker pools and the report database
func (c *Container) Close() error {
	var errs []error
	if err := c.inspectionService.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.brandAnalyzer.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.reportRepository != nil {
		if err := c.reportRepository.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
