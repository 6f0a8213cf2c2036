package main

import (
	"fmt"
	"log"
	"os"
	"path"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/cache"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/config"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/evaluate"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/feedback"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/forecast"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository/postgres"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/service"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/storage"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/tuning"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

// app bundles everything a command needs after wiring.
type app struct {
	cfg     *config.Config
	db      *postgres.DB
	cache   cache.StatsCache
	store   *params.Store
	archive storage.SnapshotArchive
	orders  *service.OrderService
	tuning  *service.TuningService
}

func newDateFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "date",
		Usage: "Target date in YYYY-MM-DD format",
		Value: time.Now().Format("2006-01-02"),
	}
}

func buildApp() (*app, error) {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var archiver params.Archiver
	var archive storage.SnapshotArchive
	if cfg.Archive.Endpoint != "" {
		minioArchive, err := storage.NewMinioArchive(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot archive: %w", err)
		}
		archiver = minioArchive
		archive = minioArchive
	}

	store := params.NewStore(cfg.Tuning.ParamsPath, cfg.Tuning.BackupDir, archiver, logger.Component("params"))
	set, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	statsCache, err := cache.NewStatsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, running without")
		statsCache = cache.NewNoopStatsCache()
	}

	salesRepo := postgres.NewSalesRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	outcomeRepo := postgres.NewOutcomeRepository(db)
	diffRepo := postgres.NewDiffRepository(db)
	optLog := postgres.NewOptimizationLog(db)

	var statsReader repository.ItemStatsReader = salesRepo
	statsReader = cache.NewCachedStatsReader(statsReader, statsCache)

	diffAdjuster := feedback.NewDiffAdjuster(diffRepo, cfg.Tuning.DiffLookbackDays, logger.Component("diff_adjuster"))
	cost := forecast.NewCostAdjuster(forecast.DefaultCostAdjusterConfig())
	predictor := forecast.NewPredictor(
		forecast.NewRegistry(),
		cost,
		salesRepo,
		salesRepo,
		diffAdjuster,
		forecast.PredictorConfig{
			HistoryDays:    cfg.Tuning.HistoryDays,
			MinHistoryDays: cfg.Tuning.MinHistoryDays,
		},
		logger.Log,
	)
	evaluator := evaluate.NewEvaluator(statsReader, outcomeRepo, cost)

	orders := service.NewOrderService(predictor, evaluator, itemRepo, outcomeRepo, diffAdjuster, cfg.Tuning.WorkerCount)

	calibrator := tuning.NewCalibrator(outcomeRepo, store, cfg.Tuning.CalibrationMinSample)
	optimizer := tuning.NewOptimizer(
		tuning.NewTPESampler(time.Now().UnixNano()),
		outcomeRepo,
		optLog,
		store,
		tuning.OptimizerConfig{
			Trials:      cfg.Tuning.OptimizerTrials,
			SampleFloor: cfg.Tuning.OptimizerSampleFloor,
			Damping:     cfg.Tuning.DampingFactor,
		},
	)
	rollback := tuning.NewRollbackChecker(outcomeRepo, optLog, store, tuning.RollbackConfig{
		WindowDays: cfg.Tuning.RollbackWindowDays,
		Threshold:  cfg.Tuning.RollbackThreshold,
	})
	tuningSvc := service.NewTuningService(set, calibrator, optimizer, rollback)

	return &app{
		cfg:     cfg,
		db:      db,
		cache:   statsCache,
		store:   store,
		archive: archive,
		orders:  orders,
		tuning:  tuningSvc,
	}, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	var a *app

	cliApp := &cli.App{
		Name:  "autoorder",
		Usage: "Daily order prediction and parameter tuning",
		Before: func(c *cli.Context) error {
			var err error
			a, err = buildApp()
			return err
		},
		After: func(c *cli.Context) error {
			if a != nil && a.db != nil {
				return a.db.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "predict",
				Usage: "Run prediction and evaluation for every active item",
				Flags: []cli.Flag{newDateFlag()},
				Action: func(c *cli.Context) error {
					date, err := parseDate(c.String("date"))
					if err != nil {
						return err
					}
					run, err := a.orders.Run(c.Context, date, a.tuning.Params())
					if err != nil {
						return err
					}
					logger.Log.Info().
						Int("predictions", len(run.Predictions)).
						Int("decisions", len(run.Decisions)).
						Int("injected", len(run.Injected)).
						Msg("prediction run finished")
					return nil
				},
			},
			{
				Name:  "calibrate",
				Usage: "Run the daily weight calibration against realized sales",
				Flags: []cli.Flag{newDateFlag()},
				Action: func(c *cli.Context) error {
					date, err := parseDate(c.String("date"))
					if err != nil {
						return err
					}
					entry, err := a.tuning.Calibrate(c.Context, date)
					if err != nil {
						return err
					}
					logger.Log.Info().
						Int("samples", entry.SampleCount).
						Int("changes", len(entry.Changes)).
						Msg("calibration finished")
					return nil
				},
			},
			{
				Name:  "optimize",
				Usage: "Run the weekly parameter search",
				Action: func(c *cli.Context) error {
					rec, err := a.tuning.Optimize(c.Context)
					if err != nil {
						return err
					}
					logger.Log.Info().
						Str("run_id", rec.ID).
						Str("status", string(rec.Status)).
						Int("changed", len(rec.Deltas)).
						Msg("optimization finished")
					return nil
				},
			},
			{
				Name:  "rollback-check",
				Usage: "Confirm or revert the most recent applied optimization",
				Action: func(c *cli.Context) error {
					status, err := a.tuning.CheckRollback(c.Context)
					if err != nil {
						return err
					}
					if status == "" {
						logger.Log.Info().Msg("nothing to check")
						return nil
					}
					logger.Log.Info().Str("status", string(status)).Msg("rollback check finished")
					return nil
				},
			},
			{
				Name:  "restore-params",
				Usage: "Replace the local parameter file with an archived snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Snapshot object name; defaults to the most recent",
					},
				},
				Action: func(c *cli.Context) error {
					if a.archive == nil {
						return fmt.Errorf("no snapshot archive configured")
					}
					name := c.String("name")
					if name == "" {
						infos, err := a.archive.ListSnapshots(c.Context, "")
						if err != nil {
							return err
						}
						if len(infos) == 0 {
							return fmt.Errorf("no archived snapshots found")
						}
						// Snapshot names carry their save timestamp, so the
						// lexically greatest key is the newest.
						sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
						name = path.Base(infos[len(infos)-1].Key)
					}
					data, err := a.archive.DownloadSnapshot(c.Context, name)
					if err != nil {
						return err
					}
					set, err := params.ParseSnapshot(data)
					if err != nil {
						return fmt.Errorf("invalid snapshot %q: %w", name, err)
					}
					if err := a.store.Save(c.Context, set); err != nil {
						return err
					}
					logger.Log.Info().Str("snapshot", name).Msg("parameters restored from archive")
					return nil
				},
			},
			{
				Name:  "run-daily",
				Usage: "Run the full nightly sequence: rollback check, calibration, optional optimization, then prediction",
				Flags: []cli.Flag{
					newDateFlag(),
					&cli.BoolFlag{
						Name:  "optimize",
						Usage: "Also run the weekly optimization pass",
					},
				},
				Action: func(c *cli.Context) error {
					date, err := parseDate(c.String("date"))
					if err != nil {
						return err
					}
					// Yesterday's sales have landed by now, so cached
					// item stats are stale. Drop them before predicting.
					if err := a.cache.InvalidateAll(c.Context); err != nil {
						logger.Log.Warn().Err(err).Msg("cache invalidation failed, stats may be stale")
					}
					// Tuning consumes yesterday's outcomes.
					a.tuning.RunNightly(c.Context, date.AddDate(0, 0, -1), c.Bool("optimize"))
					_, err = a.orders.Run(c.Context, date, a.tuning.Params())
					return err
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return date, nil
}
