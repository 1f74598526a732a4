package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rxguard/rxguard/internal/config"
	"github.com/rxguard/rxguard/internal/domain/prediction"
	"github.com/rxguard/rxguard/internal/domain/riskcase"
	"github.com/rxguard/rxguard/internal/domain/synthetic"
	"github.com/rxguard/rxguard/internal/platform/auth"
	"github.com/rxguard/rxguard/internal/platform/db"
	"github.com/rxguard/rxguard/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "riskctl",
		Short: "Adverse drug event risk prediction service",
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic labeled training corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("samples")
			out, _ := cmd.Flags().GetString("out")
			seed, _ := cmd.Flags().GetInt64("seed")
			store, _ := cmd.Flags().GetBool("store")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.TrainingDataPath
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.GeneratorSeed
			}

			fmt.Printf("Generating %d synthetic cases (seed %d)...\n", count, seed)
			gen := synthetic.NewGenerator(seed, time.Now().UTC())
			cases := gen.Generate(count)

			if err := riskcase.SaveCorpus(out, cases); err != nil {
				return err
			}
			csvPath := strings.TrimSuffix(out, ".json") + ".csv"
			if err := riskcase.WriteCSVProjection(csvPath, cases); err != nil {
				return err
			}
			fmt.Printf("Wrote %s and %s\n\n", out, csvPath)

			if store {
				if !cfg.HasDatabase() {
					return fmt.Errorf("--store requires DATABASE_URL")
				}
				ctx := context.Background()
				pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
				if err != nil {
					return err
				}
				defer pool.Close()

				repo := riskcase.NewCorpusRepoPG(pool)
				if err := repo.SaveBatch(ctx, cases); err != nil {
					return fmt.Errorf("store corpus: %w", err)
				}
				total, err := repo.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Stored %d cases in database (%d total)\n\n", len(cases), total)
			}

			printCorpusSummary(synthetic.Summarize(cases))
			return nil
		},
	}
	cmd.Flags().Int("samples", 2000, "Number of cases to generate")
	cmd.Flags().String("out", "", "Corpus output path (default TRAINING_DATA_PATH)")
	cmd.Flags().Int64("seed", 0, "Generator seed (default GENERATOR_SEED)")
	cmd.Flags().Bool("store", false, "Also store the corpus in Postgres")
	return cmd
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the risk model on a labeled corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _ := cmd.Flags().GetString("data")
			modelPath, _ := cmd.Flags().GetString("model")
			fromDB, _ := cmd.Flags().GetBool("from-db")

			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if data == "" {
				data = cfg.TrainingDataPath
			}
			if modelPath == "" {
				modelPath = cfg.ModelPath
			}

			var cases []riskcase.CaseRecord
			if fromDB {
				if !cfg.HasDatabase() {
					return fmt.Errorf("--from-db requires DATABASE_URL")
				}
				ctx := context.Background()
				pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
				if err != nil {
					return err
				}
				defer pool.Close()
				if cases, err = riskcase.NewCorpusRepoPG(pool).LoadAll(ctx); err != nil {
					return err
				}
			} else {
				if cases, err = riskcase.LoadCorpus(data); err != nil {
					fmt.Printf("Failed to load training corpus: %v\n", err)
					printTrainingTroubleshooting()
					return err
				}
			}
			fmt.Printf("Loaded %d training cases\n\n", len(cases))

			predictor := prediction.NewPredictor(modelPath, logger)
			artifact, err := predictor.Train(cases)
			if err != nil {
				if artifact != nil {
					// Write failure only: the fit succeeded.
					printTrainingReport(artifact)
					fmt.Printf("\nWARNING: model artifact could not be written: %v\n", err)
					fmt.Println("The trained model is NOT durable and will be lost on restart.")
					return err
				}
				fmt.Printf("Training failed: %v\n", err)
				printTrainingTroubleshooting()
				return err
			}

			printTrainingReport(artifact)
			fmt.Printf("\nModel saved to %s\n\n", modelPath)
			printSamplePrediction(predictor.Predict(cases[0]))
			return nil
		},
	}
	cmd.Flags().String("data", "", "Training corpus path (default TRAINING_DATA_PATH)")
	cmd.Flags().String("model", "", "Model artifact path (default MODEL_PATH)")
	cmd.Flags().Bool("from-db", false, "Load the corpus from Postgres instead of a file")
	return cmd
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a single case from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			casePath, _ := cmd.Flags().GetString("case")
			modelPath, _ := cmd.Flags().GetString("model")
			if casePath == "" {
				return fmt.Errorf("--case is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.ModelPath
			}

			raw, err := os.ReadFile(casePath)
			if err != nil {
				return err
			}
			var c riskcase.CaseRecord
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("parse case %s: %w", casePath, err)
			}

			predictor := prediction.NewPredictor(modelPath, newLogger())
			out, err := json.MarshalIndent(predictor.Predict(c), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().String("case", "", "Path to a case record JSON file")
	cmd.Flags().String("model", "", "Model artifact path (default MODEL_PATH)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the risk prediction API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	predictor := prediction.NewPredictor(cfg.ModelPath, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	// Service-to-service auth. Development mode serves unauthenticated so
	// the upstream interaction checker can be pointed at a local instance.
	if cfg.IsDev() {
		logger.Warn().Msg("development mode, bearer auth disabled")
	} else {
		apiV1.Use(auth.Bearer(auth.BearerConfig{Secret: []byte(cfg.AuthTokenSecret)}))
	}

	// After auth so buckets are keyed per authenticated caller rather than
	// per IP when a token is presented.
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	prediction.NewHandler(predictor).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":      "ok",
			"model_state": string(predictor.State()),
		})
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
