package container

import (
	"grapeguard/config"
	app "grapeguard/internal/application"
	"grapeguard/internal/domain/port"
)

// Infrastructure адаптеры, которые собираются в main. Cache и History могут быть nil.
type Infrastructure struct {
	Loader    port.SegmenterLoader
	Weights   port.WeightsProvider
	Images    port.ImageSource
	Heuristic port.Classifier
	Sessions  port.SessionRepository
	Cache     port.ReportCache
	History   port.ReportRepository
}

type Container struct {
	Tracker           *app.ModelTracker
	PredictionService *app.PredictionService
	DiagnosisService  *app.DiagnosisService
	SessionService    *app.SessionService
	InspectionService *app.InspectionService
}

func New(cfg *config.Config, infra Infrastructure) *Container {
	tracker := app.NewModelTracker(infra.Loader, infra.Weights, cfg.Threshold)
	predictionService := app.NewPredictionService(tracker, infra.Heuristic, app.NewReportNormalizer(cfg.HealthyConfidence), app.PredictionConfig{
		Threshold:        cfg.Threshold,
		InferenceTimeout: cfg.InferenceTimeout,
		FallbackEnabled:  cfg.FallbackEnabled,
		FailureLimit:     cfg.ModelFailureLimit,
	})
	diagnosisService := app.NewDiagnosisService(infra.Images, predictionService, infra.Cache, infra.History)
	sessionService := app.NewSessionService(infra.Sessions)
	inspectionService := app.NewInspectionService(sessionService, diagnosisService)

	return &Container{
		Tracker:           tracker,
		PredictionService: predictionService,
		DiagnosisService:  diagnosisService,
		SessionService:    sessionService,
		InspectionService: inspectionService,
	}
}
