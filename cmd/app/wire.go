//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/starfuse/starfuse/internal/bootstrap"
	"github.com/starfuse/starfuse/internal/domain/auth"
	"github.com/starfuse/starfuse/internal/domain/fusion"
	"github.com/starfuse/starfuse/internal/domain/records"
	"github.com/starfuse/starfuse/internal/infra/config"
	"github.com/starfuse/starfuse/internal/infra/registry"
	"github.com/starfuse/starfuse/internal/infra/weather/openmeteo"
	httpiface "github.com/starfuse/starfuse/internal/interface/http"
	"github.com/starfuse/starfuse/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideFusionConfig,
		provideAuthConfig,
		provideRegistryClient,
		provideWeatherClient,
		provideFusionCache,
		provideHistoryRepository,
		provideFusionHistory,
		provideRecordsRepository,
		fusion.NewService,
		records.NewService,
		auth.NewService,
		wire.Bind(new(fusion.Registry), new(*registry.Client)),
		wire.Bind(new(fusion.WeatherClient), new(*openmeteo.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
