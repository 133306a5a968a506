package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"arkhive.dev/hearth/internal/database"
	"arkhive.dev/hearth/internal/entity"
	"arkhive.dev/hearth/internal/media"
	"arkhive.dev/hearth/internal/metrics"
	"arkhive.dev/hearth/internal/tracing"
	"arkhive.dev/hearth/pkg/eventemitter"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type ServiceEngine struct {
	databaseEngine *database.DatabaseEngine
	registry       *Registry
	fetcher        *media.Fetcher

	// Event emitters
	BootedEventEmitter *eventemitter.EventEmitter[bool]
}

func NewServiceEngine(databaseEngine *database.DatabaseEngine, registry *Registry, fetcher *media.Fetcher) (instance *ServiceEngine) {
	instance = &ServiceEngine{
		databaseEngine:     databaseEngine,
		registry:           registry,
		fetcher:            fetcher,
		BootedEventEmitter: &eventemitter.EventEmitter[bool]{},
	}
	registry.LoginEventEmitter.Subscribe(func(loggedService Service) {
		if err := instance.Reload(context.Background(), loggedService); err != nil {
			logrus.Errorf("%+v", err)
		}
	})
	registry.LogoutEventEmitter.Subscribe(func(loggedOutService Service) {
		logrus.Infof("%s: session closed", loggedOutService.ID())
	})
	return
}

func (serviceEngine *ServiceEngine) Initialize(waitGroup *sync.WaitGroup) {
	for _, registeredService := range serviceEngine.registry.All() {
		logrus.Infof("Service %s (%s) available", registeredService.Name(), registeredService.State())
	}
	serviceEngine.BootedEventEmitter.Emit(true)
	waitGroup.Done()
}

// Reload fetches the library of one service, persists it and refreshes the
// cached artwork.
func (serviceEngine *ServiceEngine) Reload(ctx context.Context, loadedService Service) (err error) {
	ctx, span := tracing.StartSpan(ctx, "service.reload",
		tracing.WithAttributes(attribute.String("service.id", loadedService.ID())))
	defer span.End()

	startTime := time.Now()
	var games []entity.ServiceGame
	if games, err = loadedService.Load(ctx); err != nil {
		tracing.RecordError(span, err)
		metrics.LibraryLoadsTotal.WithLabelValues(loadedService.ID(), "failed").Inc()
		return
	}
	metrics.LibraryLoadsTotal.WithLabelValues(loadedService.ID(), "ok").Inc()
	metrics.RecordLibraryLoadDuration(loadedService.ID(), startTime)
	tracing.AddSpanAttributes(span, attribute.Int("service.games", len(games)))
	logrus.Infof("%s: %d games loaded", loadedService.ID(), len(games))

	if sqlDatabase, databaseErr := serviceEngine.databaseEngine.SQLDB(); databaseErr == nil {
		if metricsErr := metrics.UpdateDBMetrics(sqlDatabase); metricsErr != nil {
			logrus.Errorf("%+v", metricsErr)
		}
	}

	serviceEngine.fetchMedias(ctx, loadedService, games)
	tracing.SetSpanOK(span)
	return
}

// fetchMedias refreshes the artwork cache for the given games. Failures are
// logged and skipped so one broken asset cannot abort a library load.
func (serviceEngine *ServiceEngine) fetchMedias(ctx context.Context, mediaService Service, games []entity.ServiceGame) {
	for _, game := range games {
		if game.Details == "" {
			continue
		}
		var details map[string]interface{}
		if err := json.Unmarshal([]byte(game.Details), &details); err != nil {
			logrus.Warnf("%s: cannot parse details of %s: %s", mediaService.ID(), game.Name, err)
			continue
		}
		for _, variant := range mediaService.Medias() {
			remoteURL, ok := mediaService.MediaURL(variant, details)
			if !ok {
				continue
			}
			_, downloaded, err := serviceEngine.fetcher.Fetch(ctx, mediaService.ID(), variant, game.AppID, remoteURL)
			if err != nil {
				metrics.MediaDownloadsTotal.WithLabelValues(mediaService.ID(), variant.Name, "failed").Inc()
				logrus.Warnf("%s: cannot fetch %s for %s: %s", mediaService.ID(), variant.Name, game.Name, err)
				continue
			}
			status := "cached"
			if downloaded {
				status = "downloaded"
			}
			metrics.MediaDownloadsTotal.WithLabelValues(mediaService.ID(), variant.Name, status).Inc()
		}
	}
}
