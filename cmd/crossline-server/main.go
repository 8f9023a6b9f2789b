package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"crossline/internal/ai"
	"crossline/internal/archive"
	"crossline/internal/board"
	"crossline/internal/cache"
	appcfg "crossline/internal/config"
	"crossline/internal/matchmaking"
	"crossline/internal/msgcat"
	"crossline/internal/obslog"
	"crossline/internal/ratings"
	"crossline/internal/service/game"
	"crossline/internal/session"
	"crossline/internal/wire"
	"crossline/pkg/gamedto"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, reading environment directly")
	}

	cfg := appcfg.Load()

	logger, err := obslog.New(obslog.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	logger.Info("config_loaded",
		zap.Int("board_size", cfg.BoardSize),
		zap.Int("pawns_per_player", cfg.PawnsPerPlayer),
		zap.Int("win_length", cfg.WinLength),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Duration("sweep_interval", cfg.SweepInterval),
		zap.Duration("match_interval", cfg.MatchInterval),
		zap.Duration("ai_move_delay", cfg.AIMoveDelay),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
	)

	// Match archive: postgres when configured, in-memory otherwise.
	var repo archive.Repository
	var pg *archive.Postgres
	if cfg.DatabaseURL != "" {
		pg, err = archive.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("archive_init_failed", zap.Error(err))
		}
		repo = pg
	} else {
		repo = archive.NewMemory()
	}

	var redisCache *cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(cfg.RedisURL)
		if err != nil {
			logger.Fatal("cache_init_failed", zap.Error(err))
		}
	}

	catalog, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		logger.Fatal("catalog_init_failed", zap.Error(err))
	}

	boardCfg := board.Config{
		Size:           cfg.BoardSize,
		PawnsPerPlayer: cfg.PawnsPerPlayer,
		WinLength:      cfg.WinLength,
	}

	store := session.NewStore(session.Config{
		TTL:           cfg.SessionTTL,
		SweepInterval: cfg.SweepInterval,
		Board:         boardCfg,
	}, logger)

	queue := matchmaking.NewProcessor(store, logger)
	dispatcher := ai.NewDispatcher(ai.NewRandomAdvisor(time.Now().UnixNano()), cfg.AIMoveDelay, logger)

	svc, err := game.NewService(game.Deps{
		Store:       store,
		Codec:       wire.NewCodec(boardCfg),
		Queue:       queue,
		Dispatcher:  dispatcher,
		Ratings:     ratings.NewService(repo, redisCache, logger),
		Archive:     repo,
		Cache:       redisCache,
		Catalog:     catalog,
		Broadcaster: logBroadcaster{log: logger},
	}, game.Config{HistoryLimit: cfg.HistoryLimit}, logger)
	if err != nil {
		logger.Fatal("service_init_failed", zap.Error(err))
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("scheduler_init_failed", zap.Error(err))
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.MatchInterval),
		gocron.NewTask(queue.ProcessQueue),
	); err != nil {
		logger.Fatal("matchmaking_job_failed", zap.Error(err))
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.StatsInterval),
		gocron.NewTask(func() {
			sessions, queued := svc.Stats()
			logger.Info("runtime_stats",
				zap.Int("sessions", sessions),
				zap.Int("matchmaking_queue", queued))
		}),
	); err != nil {
		logger.Fatal("stats_job_failed", zap.Error(err))
	}
	sched.Start()

	logger.Info("server_ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown_begin")
	_ = sched.Shutdown()
	store.Close()
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if pg != nil {
		_ = pg.Close()
	}
	logger.Info("shutdown_complete")
}

// logBroadcaster writes deliveries to the log. A transport adapter replaces
// it at this seam.
type logBroadcaster struct {
	log *zap.Logger
}

func (b logBroadcaster) Broadcast(gameID string, snap gamedto.Snapshot) {
	b.log.Debug("broadcast",
		zap.String("game_id", gameID),
		zap.Int64("seq", snap.Seq),
		zap.Int("bytes", len(snap.Data)))
}

func (b logBroadcaster) Notify(handle string, ev gamedto.Event) {
	b.log.Debug("notify",
		zap.String("handle", handle),
		zap.String("kind", ev.Kind),
		zap.String("game_id", ev.GameID))
}
