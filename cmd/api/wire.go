//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/sefazor/festival-backend/internal/config"
	"github.com/sefazor/festival-backend/internal/handler"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/report"
	"github.com/sefazor/festival-backend/pkg/utils"
)

func initializeServer(cfg *config.Config) (*server, func(), error) {
	wire.Build(
		// Infrastructure
		provideLogger,
		provideRegistry,
		provideMetrics,
		provideStores,
		wire.FieldsOf(new(*Stores), "Events", "Teams", "Registrations", "Profiles"),
		provideRedis,
		provideBlobStorage,
		provideMailer,
		provideRenderer,
		provideQRService,
		provideTeamOptions,
		provideTokens,
		report.NewExporter,
		utils.NewValidator,

		// Services
		provideEventService,
		service.NewNotifier,
		service.NewTeamService,
		service.NewRegistrationService,
		service.NewPaymentService,
		service.NewAdminService,

		// Handlers
		handler.NewEventHandler,
		handler.NewTeamHandler,
		handler.NewRegistrationHandler,
		handler.NewPaymentHandler,
		handler.NewAdminHandler,
		provideUserHandler,
		wire.Struct(new(handler.Handlers), "*"),

		// App
		newFiberApp,
		wire.Struct(new(server), "*"),
	)
	return nil, nil, nil
}
