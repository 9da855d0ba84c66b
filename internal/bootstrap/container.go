package bootstrap

import (
	"log"

	"ehr-navigator-be/internal/config"
	"ehr-navigator-be/internal/controller"
	"ehr-navigator-be/internal/handler"
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/internal/service"
	"ehr-navigator-be/pkg/clinical"
	"ehr-navigator-be/pkg/fhir"
	"ehr-navigator-be/pkg/llm/factory"
	pktNats "ehr-navigator-be/pkg/nats"
	"ehr-navigator-be/pkg/navigator"

	"github.com/prometheus/client_golang/prometheus"
)

type Container struct {
	// Controllers
	NavigatorController controller.INavigatorController

	// WebSockets
	NavigationHandler *handler.NavigationHandler

	Logger logger.ILogger

	closers []func()
}

// NewNavigator builds the pipeline and its record store. The returned
// cleanup releases the store's connection pool.
func NewNavigator(cfg *config.Config, sysLogger logger.ILogger, reg prometheus.Registerer) (*navigator.Navigator, func(), error) {
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
		cfg.Ai.ModelTimeout,
	)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	llmTrace := logger.NewIsolatedLogger(cfg.App.LLMTraceLogPath)
	var clientOpts []clinical.ClientOption
	if cfg.App.LLMTraceContent {
		clientOpts = append(clientOpts, clinical.WithContentTrace())
	}
	model := clinical.NewClient(llmProvider, cfg.Ai.ModelTimeout, llmTrace, clientOpts...)

	fhirClient := fhir.NewClient(cfg.FHIR.BaseURL, cfg.FHIR.Timeout)
	store := fhir.NewStore(fhirClient, cfg.FHIR.ManifestPageSize, cfg.FHIR.FetchPageSize)
	log.Printf("[INFO] Using FHIR server: %s", cfg.FHIR.BaseURL)

	opts := []navigator.Option{
		navigator.WithLogger(sysLogger),
		navigator.WithWorkers(cfg.Ai.ExtractionWorkers),
		navigator.WithFlushDelay(cfg.Ai.StreamFlushDelay),
	}
	if reg != nil {
		opts = append(opts, navigator.WithMetrics(navigator.NewMetrics(reg)))
	}

	cleanup := func() {
		fhirClient.Close()
		_ = llmTrace.Sync()
	}
	return navigator.New(store, model, opts...), cleanup, nil
}

func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	nav, closeNavigator, err := NewNavigator(cfg, sysLogger, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize navigator: %v", err)
	}
	closers := []func(){closeNavigator}

	// NATS is optional; without it audit events are skipped.
	var publisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			closers = append(closers, natsPub.Close)
		}
	}

	navigatorService := service.NewNavigatorService(nav, publisher, sysLogger)

	return &Container{
		NavigatorController: controller.NewNavigatorController(navigatorService, sysLogger),
		NavigationHandler:   handler.NewNavigationHandler(navigatorService, cfg.App.JwtSecret, sysLogger),
		Logger:              sysLogger,
		closers:             closers,
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
