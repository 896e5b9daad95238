package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	registryinadapter "exthub/internal/modules/registry/adapter/in"
	registryoutadapter "exthub/internal/modules/registry/adapter/out"
	registryservice "exthub/internal/modules/registry/service"
	registryusecase "exthub/internal/modules/registry/usecase"
	sessioninadapter "exthub/internal/modules/session/adapter/in"
	sessionservice "exthub/internal/modules/session/service"
	sessionusecase "exthub/internal/modules/session/usecase"
	supervisorinadapter "exthub/internal/modules/supervisor/adapter/in"
	supervisoroutadapter "exthub/internal/modules/supervisor/adapter/out"
	supervisorservice "exthub/internal/modules/supervisor/service"
	supervisorusecase "exthub/internal/modules/supervisor/usecase"
	"exthub/internal/platform/clock"
	"exthub/internal/platform/config"
	"exthub/internal/platform/id"
)

type App struct {
	RegistryCLI   registryinadapter.CLIHandler
	SupervisorCLI supervisorinadapter.CLIHandler
	SessionCLI    sessioninadapter.CLIHandler
	Logger        hclog.Logger
}

func New(cfg config.Config) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.UUID{}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "exthub",
		Output: os.Stderr,
		Level:  hclog.Info,
	})

	pluginStore, err := registryoutadapter.NewSQLitePluginStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new plugin store: %w", err)
	}
	registrySvc := registryservice.NewRegistryService(
		clk,
		pluginStore,
		registryoutadapter.NewFileManifestLoader(),
		registryoutadapter.NewGRPCHost(),
	)
	if err := registrySvc.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	registryUC := registryusecase.NewInteractor(registrySvc)

	supervisorSvc := supervisorservice.NewSupervisorService(
		supervisoroutadapter.NewExecSpawner(),
		logger.Named("supervisor"),
		clk,
	)
	supervisorUC := supervisorusecase.NewInteractor(supervisorSvc)

	sessionUC := sessionusecase.NewInteractor(sessionservice.NewSessionService(clk, ids))

	return &App{
		RegistryCLI:   registryinadapter.NewCLIHandler(registryUC),
		SupervisorCLI: supervisorinadapter.NewCLIHandler(supervisorUC),
		SessionCLI:    sessioninadapter.NewCLIHandler(sessionUC),
		Logger:        logger,
	}, nil
}
