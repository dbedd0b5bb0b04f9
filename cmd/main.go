package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/actuator"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/backend"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/gpio"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/handlers"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/logger"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/reader"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/repository"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/server"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/service"

	"github.com/spf13/viper"
)

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// claim the relay pin; this is the one fault that kills the process.
	// After this point shutdown must flow through the quit channel so the
	// deferred release always runs and the relay ends de-energized.
	pin, err := gpio.Open(viper.GetInt("gpio.relay_pin"))
	if err != nil {
		log.Fatalw("failed to claim relay pin", "pin", viper.GetInt("gpio.relay_pin"), "err", err)
	}
	defer func() {
		if cerr := pin.Close(); cerr != nil {
			log.Errorw("failed to release relay pin", "err", cerr)
			return
		}
		log.Infow("relay pin released")
	}()

	// wire dependencies
	lock := actuator.NewRelayLock(
		pin,
		viper.GetInt("lock.flash_count"),
		viper.GetDuration("lock.flash_interval"),
		log,
	)
	authority := backend.NewClient(
		viper.GetString("backend.base_url"),
		viper.GetDuration("backend.timeout"),
	)
	repos := repository.NewRepository(db)
	services := service.NewService(repos, authority, lock, log, service.Config{
		UnlockDuration: viper.GetDuration("lock.unlock_duration"),
		SigningKey:     viper.GetString("auth.signing_key"),
		TokenTTL:       viper.GetDuration("auth.token_ttl"),
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// start the scan loop: one credential per line from stdin, one
	// validation at a time
	scanLoop := reader.New(os.Stdin, services.Validator, log)
	go func() {
		if err := scanLoop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("scan loop stopped", "err", err)
		}
		// stdin closed or errored; nothing left to scan
		quit <- syscall.SIGTERM
	}()

	// start local admin HTTP server
	srv := &server.Server{}
	go func() {
		port := viper.GetString("port")
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, apiHandler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("error starting server", "err", err)
			quit <- syscall.SIGTERM
		}
	}()

	// graceful shutdown
	<-quit
	log.Infow("shutting down...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "smartaccess.db")
		dbPath = "smartaccess.db"
	}
	return repository.InitDB(dbPath)
}
