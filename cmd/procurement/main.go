package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"procurement/pkg/backend/storage"
	"procurement/pkg/backend/transport"
	"procurement/pkg/common/config"
)

func main() {
	_ = godotenv.Load()

	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	app := &cli.App{
		Name:  "procurement",
		Usage: "retailer/distributor/delivery procurement dashboards and a dev backend",
		Commands: []*cli.Command{
			backendCommand(cfg),
			retailerCommand(cfg),
			distributorCommand(cfg),
			deliveryCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("Command failed")
	}
}

func backendCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "backend",
		Usage: "run the dev backend stub",
		Action: func(c *cli.Context) error {
			repo, err := openRepository(cfg)
			if err != nil {
				return err
			}

			server := transport.NewServer(repo)
			srv := &http.Server{Addr: cfg.ListenAddr, Handler: server.Router()}

			go func() {
				log.WithField("addr", cfg.ListenAddr).Info("Starting server")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.WithError(err).Fatal("Failed to start server")
				}
			}()

			waitForKillSignal(getKillSignalChan())
			return srv.Shutdown(context.Background())
		},
	}
}

func openRepository(cfg *config.Config) (storage.Repository, error) {
	if cfg.DatabaseDSN == "" {
		repo := storage.NewMemory()
		data, err := storage.SeedDemo(repo)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"retailer":    data.Retailer.Username,
			"distributor": data.Distributor.Username,
			"agent":       data.Agent.Username,
		}).Info("Seeded in-memory storage with demo accounts")
		return repo, nil
	}

	if err := storage.Migrate(cfg.DatabaseDSN, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	return storage.NewMySQL(cfg.DatabaseDSN)
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignal(killSignalChan <-chan os.Signal) {
	killSignal := <-killSignalChan
	switch killSignal {
	case os.Interrupt:
		log.Info("Got SIGINT...")
	case syscall.SIGTERM:
		log.Info("Got SIGTERM...")
	}
}
