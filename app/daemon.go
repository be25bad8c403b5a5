package app

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/benbjohnson/clock"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/velafocus/vela/alarm"
	"github.com/velafocus/vela/internal/config"
	"github.com/velafocus/vela/internal/logger"
	"github.com/velafocus/vela/internal/pathutil"
	"github.com/velafocus/vela/notify"
	"github.com/velafocus/vela/server"
	"github.com/velafocus/vela/stats"
	"github.com/velafocus/vela/store"
	"github.com/velafocus/vela/timer"
)

// openStore opens the durable store selected in the config.
func openStore(cfg *config.Config) (store.DB, error) {
	if cfg.Storage.Type == config.StorageRedis {
		return store.NewRedisClient(store.RedisOptions{
			Addr:      cfg.Storage.Redis.Addr,
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: cfg.Storage.Redis.KeyPrefix,
		})
	}

	return store.NewClient(pathutil.DBFilePath())
}

// serveAction runs the timer daemon until it receives SIGINT or SIGTERM.
func serveAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	log, logCloser := logger.New(logger.Options{
		Path:       pathutil.LogFilePath(),
		Level:      cfg.SlogLevel(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	defer logCloser.Close()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}

	defer db.Close()

	statsDB, err := stats.Open(pathutil.StatsFilePath())
	if err != nil {
		return err
	}

	defer statsDB.Close()

	scheduler := alarm.New(clock.New())
	defer scheduler.Close()

	// pathToIcon will be an empty string if file is not found
	pathToIcon, _ := xdg.SearchDataFile(
		filepath.Join(pathutil.Dir(), "static", "icon.png"),
	)

	notifier := notify.New(
		cfg.Notifications.Enabled,
		notify.WithSound(cfg.Notifications.Sound),
		notify.WithIcon(pathToIcon),
		notify.WithLogger(log),
	)

	m := timer.New(timer.Deps{
		Store:     db,
		Scheduler: scheduler,
		Notifier:  notifier,
		Stats:     statsDB,
	},
		timer.WithLogger(log),
		timer.WithSessionCmd(cfg.Settings.Cmd),
		timer.WithMilestones(timer.Milestones{
			StreakEvery:      cfg.Milestones.StreakEvery,
			AchievementEvery: cfg.Milestones.AchievementEvery,
		}),
	)

	defer m.Close()

	runCtx, stop := signal.NotifyContext(
		ctx.Context,
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	log.Info("vela daemon starting", "config", cfg.String())

	// a failed recovery leaves the stored session for the user to stop
	err = m.RecoverTimerState(runCtx)
	if err != nil {
		log.Error("unable to recover timer state", "error", err)
		pterm.Warning.Printfln("unable to recover timer state: %v", err)
	}

	pterm.Info.Printfln("vela daemon listening on %s", cfg.Server.Addr)

	srv := server.New(cfg.Server.Addr, m, statsDB, server.WithLogger(log))

	err = srv.Run(runCtx)
	if err != nil {
		return err
	}

	log.Info("vela daemon stopped")

	return nil
}
