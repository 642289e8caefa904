package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	_ "smart_switch/docs" // swagger spec registration

	"smart_switch/internal/handlers"
	"smart_switch/internal/logger"
	"smart_switch/internal/repository"
	"smart_switch/internal/repository/db"
	"smart_switch/internal/server"
	"smart_switch/internal/service"

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
	sqldb, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqldb.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies: control core, repositories, services, HTTP
	core := service.NewCore(coreConfig())
	repos := repository.NewRepository(sqldb)
	services := service.NewService(repos, core)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the mains half-cycle loop (via composed service)
	go services.Mains.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	// Defaults for every control-core knob; the hardware notes give no
	// fixed numbers, so everything stays tunable.
	viper.SetDefault("mains.frequency_hz", 50.0)
	viper.SetDefault("mains.tolerance_pct", 10.0)
	viper.SetDefault("mains.lock_periods", 2)
	viper.SetDefault("mains.sense_present", true)
	viper.SetDefault("switch.max_level", 100)
	viper.SetDefault("switch.watchdog_ms", 2000)
	viper.SetDefault("switch.pulse_width_us", 50)
	viper.SetDefault("switch.fault_threshold", 5)
	viper.SetDefault("switch.button_debounce_ms", 10)
	viper.SetDefault("timebase.drift_tolerance_ppm", 5000)

	return viper.ReadInConfig()
}

// coreConfig assembles the control-core configuration from viper.
func coreConfig() service.CoreConfig {
	return service.CoreConfig{
		NominalHz:         viper.GetFloat64("mains.frequency_hz"),
		TolerancePct:      viper.GetFloat64("mains.tolerance_pct"),
		LockPeriods:       viper.GetInt("mains.lock_periods"),
		SensePresent:      viper.GetBool("mains.sense_present"),
		MaxLevel:          viper.GetInt("switch.max_level"),
		Watchdog:          time.Duration(viper.GetInt("switch.watchdog_ms")) * time.Millisecond,
		PulseWidth:        time.Duration(viper.GetInt("switch.pulse_width_us")) * time.Microsecond,
		FaultThreshold:    viper.GetInt("switch.fault_threshold"),
		ButtonDebounce:    time.Duration(viper.GetInt("switch.button_debounce_ms")) * time.Millisecond,
		DriftTolerancePPM: viper.GetInt64("timebase.drift_tolerance_ppm"),
		Version:           buildVersion(),
	}
}

// buildVersion surfaces the VCS revision in the status interface to
// help debug issues in the field.
func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 8 {
				return s.Value[:8]
			}
		}
	}
	return "dev"
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines (forces the output off)
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
