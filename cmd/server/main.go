package main

import (
	"context"
	"flag"

	"github.com/franckalain/ecoscan/internal/backend"
	"github.com/franckalain/ecoscan/internal/config"
	"github.com/franckalain/ecoscan/internal/database"
	"github.com/franckalain/ecoscan/internal/logging"
	"github.com/franckalain/ecoscan/internal/ml"
	"github.com/franckalain/ecoscan/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	closer := logging.InitLogger(cfg.Logging)
	defer closer.Close()
	if cfg.Server.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Initialize database
	db, err := database.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	// Initialize ML service
	model, err := ml.NewModel(cfg.ML)
	if err != nil {
		logrus.Fatal("Failed to create ML model: ", err)
	}

	if err := model.Load(context.Background()); err != nil {
		logrus.Fatal("Failed to load ML model: ", err)
	}

	opts := []server.Option{server.WithMaxUploadBytes(cfg.Upload.MaxBytes)}
	if cfg.Backend.URL != "" {
		logrus.WithField("url", cfg.Backend.URL).Info("Using remote vision backend")
		opts = append(opts, server.WithBackend(backend.NewClient(cfg.Backend.URL, backend.WithTimeout(cfg.Backend.Timeout))))
	}

	// Initialize and start server
	srv := server.New(db, model, cfg.Server.Debug, opts...)
	if err := srv.Start(context.Background(), cfg.Server.Port, cfg.Server.StaticDir); err != nil {
		logrus.Fatal("Failed to start server: ", err)
	}
}
