package main

import (
	"context"
	"flag"
	"runtime/debug"
	"sync"

	"arkhive.dev/hearth/internal/configloader"
	"arkhive.dev/hearth/internal/database"
	"arkhive.dev/hearth/internal/media"
	"arkhive.dev/hearth/internal/metrics"
	"arkhive.dev/hearth/internal/network"
	"arkhive.dev/hearth/internal/service"
	"arkhive.dev/hearth/internal/service/romm"
	"arkhive.dev/hearth/internal/tracing"
	"github.com/sirupsen/logrus"
)

// Name of the current application. Used to load the configuration.
const APPLICATION_NAME = "hearth"

func main() {
	// Parsing the command line argument to change settings file location
	configurationFilePath := flag.String("config", "", "Configuration file path")
	flag.Parse()
	// Loading application configuration
	configuration, err := configloader.LoadConfiguration(APPLICATION_NAME, *configurationFilePath)
	if err != nil {
		logrus.Errorf("%+v", err)
		return
	}
	level, err := logrus.ParseLevel(configuration.LogLevel)
	if err != nil {
		logrus.Errorf("%+v", err)
		return
	}

	// Set log level
	logrus.SetLevel(level)
	if *configurationFilePath != "" {
		logrus.Infof("Loaded config file %s", *configurationFilePath)
	}
	logrus.Infof("Setting log level to %s", level.String())

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		panic("Failed to read build information")
	}
	logrus.Debug("Launching Hearth v.", bi.Main.Version)

	ctx := context.Background()
	tracingShutdown, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		logrus.Errorf("%+v", err)
		return
	}
	defer func() {
		if err := tracingShutdown(ctx); err != nil {
			logrus.Errorf("%+v", err)
		}
	}()
	metrics.Serve(configuration.MetricsAddress)

	databaseEngine := database.NewDatabaseEngine(configuration.DataPath)
	defer databaseEngine.Deinitialize()
	networkEngine := network.NewNetworkEngine(configuration.RequestTimeout)
	registry := service.NewRegistry()
	fetcher := media.NewFetcher(networkEngine, configuration.CachePath)
	serviceEngine := service.NewServiceEngine(databaseEngine, registry, fetcher)

	rommService, err := romm.NewService(databaseEngine, networkEngine, registry, configuration.DataPath)
	if err != nil {
		logrus.Errorf("%+v", err)
		return
	}

	var waitGroup sync.WaitGroup
	waitGroup.Add(3)
	databaseEngine.BootedEventEmitter.Subscribe(func(_ bool) { logrus.Debug("Database engine booted") })
	go databaseEngine.Initialize(&waitGroup)
	networkEngine.BootedEventEmitter.Subscribe(func(_ bool) { logrus.Debug("Network engine booted") })
	go networkEngine.Initialize(&waitGroup)
	serviceEngine.BootedEventEmitter.Subscribe(func(_ bool) { logrus.Debug("Service engine booted") })
	go serviceEngine.Initialize(&waitGroup)
	waitGroup.Wait()

	// A stored session is replayed at startup so the library stays fresh
	// without a new login round trip.
	if rommService.IsConnected() {
		if err := serviceEngine.Reload(ctx, rommService); err != nil {
			logrus.Errorf("%+v", err)
		}
	}
}
