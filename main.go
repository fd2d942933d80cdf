package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/config"
	logger "github.com/nus-cts-lab/free-viewing-sky/internal/logging"
	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
	"github.com/nus-cts-lab/free-viewing-sky/internal/router"
	"github.com/nus-cts-lab/free-viewing-sky/internal/sampler"
	"github.com/nus-cts-lab/free-viewing-sky/internal/services"
	"github.com/nus-cts-lab/free-viewing-sky/internal/session"
)

func main() {
	// Bootstrap logger with defaults; re-read rotation settings once the
	// config is loaded.
	log, err := logger.Init(logger.Options{Directory: "logs", MaxSize: 10, MaxBackups: 3, MaxAge: 7, Compress: true})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Load the stimulus catalog at startup
	catalog, err := models.LoadCatalog(config.Conf.Stimuli.CatalogPath)
	if err != nil {
		log.Fatal("Failed to load stimulus catalog", zap.Error(err))
	}

	exp := config.Conf.Experiment
	base := session.Config{
		Rounds:           exp.Rounds,
		TrialsPerRound:   exp.TrialsPerRound,
		ImageTrials:      exp.ImageTrials,
		FillerTrials:     exp.FillerTrials,
		TrialDuration:    time.Duration(exp.TrialDurationMS) * time.Millisecond,
		SampleIntervalMS: exp.SampleIntervalMS,
		Overlay: sampler.Options{
			OcclusionRadiusPct: exp.ApertureRadiusPct,
			OverlayOpacity:     exp.OverlayOpacity,
			OverlayColor:       exp.OverlayColor,
			EdgeSoftnessPct:    exp.EdgeSoftnessPct,
		},
	}

	manager := session.NewManager(log, catalog, base, config.Conf.Gate.RoundCodes)

	janitor := services.NewJanitor(log, manager, time.Duration(exp.SessionIdleMinutes)*time.Minute)
	janitor.Start()

	r := router.Setup(log, manager)

	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
