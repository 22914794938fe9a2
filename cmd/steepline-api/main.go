package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steepline/steepline/internal/auth"
	"github.com/steepline/steepline/internal/config"
	"github.com/steepline/steepline/internal/database"
	"github.com/steepline/steepline/internal/ids"
	"github.com/steepline/steepline/internal/logging"
	"github.com/steepline/steepline/internal/metrics"
	"github.com/steepline/steepline/internal/runs"
	"github.com/steepline/steepline/internal/server"
	"github.com/steepline/steepline/internal/spots"
	"github.com/steepline/steepline/internal/stats"
	"github.com/steepline/steepline/internal/users"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "steepline-api",
		Short: "Steepline downhill run tracker backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("db-driver", defaults.GetString("db.driver"), "Database driver (postgres, sqlite)")
	cmd.PersistentFlags().String("db-host", defaults.GetString("db.host"), "Database host")
	cmd.PersistentFlags().String("db-port", defaults.GetString("db.port"), "Database port")
	cmd.PersistentFlags().String("db-user", defaults.GetString("db.user"), "Database user")
	cmd.PersistentFlags().String("db-password", "", "Database password (overrides env)")
	cmd.PersistentFlags().String("db-name", defaults.GetString("db.name"), "Database name")
	cmd.PersistentFlags().String("db-path", defaults.GetString("db.path"), "SQLite database path")
	cmd.PersistentFlags().Int("token-ttl-days", defaults.GetInt("auth.token_ttl_days"), "Bearer token TTL in days")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "db.driver", "db-driver")
	bindFlag(cmd, "db.host", "db-host")
	bindFlag(cmd, "db.port", "db-port")
	bindFlag(cmd, "db.user", "db-user")
	bindFlag(cmd, "db.password", "db-password")
	bindFlag(cmd, "db.name", "db-name")
	bindFlag(cmd, "db.path", "db-path")
	bindFlag(cmd, "auth.token_ttl_days", "token-ttl-days")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// A local .env is optional; the environment wins when both are present.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.Open(appConfig, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenManager, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "steepline-auth",
		Audience:      "steepline-api",
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	idProvider := ids.NewUUIDProvider()

	usersService, err := users.NewService(users.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		IDs:      idProvider,
	})
	if err != nil {
		return err
	}

	spotsService, err := spots.NewService(spots.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		IDs:      idProvider,
	})
	if err != nil {
		return err
	}

	runsService, err := runs.NewService(runs.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		IDs:      idProvider,
	})
	if err != nil {
		return err
	}

	statsService, err := stats.NewService(stats.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager:   tokenManager,
		UsersService:   usersService,
		SpotsService:   spotsService,
		RunsService:    runsService,
		StatsService:   statsService,
		Metrics:        metrics.New("steepline"),
		AllowedOrigins: appConfig.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
