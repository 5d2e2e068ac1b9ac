package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"lobby-backend/internal/api"
	"lobby-backend/internal/api/middleware"
	"lobby-backend/internal/api/router"
	"lobby-backend/internal/database"
	"lobby-backend/internal/env"
	internaljwt "lobby-backend/internal/jwt"
	"lobby-backend/internal/logging"
	"lobby-backend/internal/queue"
	"lobby-backend/internal/service/lobby"
	"lobby-backend/internal/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	jobQueueSize     = 256
	jobWorkers       = 8
	hubCloseTimeout  = 5 * time.Second
	redisDialTimeout = 3 * time.Second
)

func main() {
	if err := env.Load(); err != nil {
		logrus.WithError(err).Fatal("failed to load .env")
	}
	logger := logging.New(env.GetOrDefault(env.AppEnv, "development"), env.GetOrDefault(env.LogLevel, "info"))
	log := logrus.NewEntry(logger).WithField("service", "ws-server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs := queue.NewRequestQueueManagerWithLogger(jobQueueSize, jobWorkers, log)

	opts := lobby.Options{
		Config: lobby.Config{
			IdleTimeout:   env.GetDuration(env.RoomIdleTimeout, lobby.DefaultIdleTimeout),
			SweepInterval: env.GetDuration(env.RoomSweepInterval, lobby.DefaultSweepInterval),
			TokenTTL:      env.GetDuration(env.JoinTokenTTL, lobby.DefaultTokenTTL),
		},
		Logger: log,
		Jobs:   jobs,
	}

	dbCfg := database.ConfigFromEnv()
	if dbCfg.Enabled() {
		db, err := database.NewDatabase(ctx, dbCfg)
		if err != nil {
			log.WithError(err).Fatal("db init failed")
		}
		opts.Repository = lobby.NewDynamoRepository(db, env.Get(env.RoomsTable))
		log.WithField("region", dbCfg.Region).Info("room write-behind enabled")
	}

	var rateCounter middleware.Counter
	if redisClient := newRedisClient(ctx, log); redisClient != nil {
		defer redisClient.Close()
		opts.Publisher = websocket.NewRedisPublisher(redisClient, env.Get(env.LobbyEventsChannel))
		rateCounter = middleware.NewRedisCounter(redisClient)
	}

	svc := lobby.New(opts)

	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		lobby.NewReaper(svc, log).Run(ctx)
	}()

	origins := env.GetList(env.AllowedOrigins, nil)
	hub := websocket.NewHub()
	sockets := websocket.NewHandler(svc, hub, websocket.Config{AllowedOrigins: origins}, log)

	server := api.NewAPIServer(
		api.Config{
			ListenAddr: env.GetOrDefault(env.ListenAddr, ":83"),
			CORS:       middleware.DefaultCORSConfig(origins),
		},
		jobs,
		api.Dependencies{
			Lobby:       svc,
			Sockets:     sockets,
			Issuer:      internaljwt.NewIssuer(env.Get(env.AdminSecretKey)),
			RateCounter: rateCounter,
			RateMax:     env.GetInt(env.RateLimitMax, 60),
			RateWindow:  env.GetDuration(env.RateLimitWindow, time.Minute),
			Logger:      log,
		},
		router.UtilsRoutes("/api/ws/v1"),
		router.LobbyRoutes("/api/ws/v1"),
		router.AdminRoutes("/api/admin/v1"),
	)

	if err := server.Run(ctx); err != nil {
		log.WithError(err).Error("server stopped with error")
	}
	stop()

	if err := hub.Shutdown(hubCloseTimeout); err != nil {
		log.WithField("clients", hub.Count()).Warn("websocket clients did not close in time")
	}
	<-reaperDone
	jobs.Shutdown()
	log.Info("shutdown complete")
}

// newRedisClient returns nil when Redis is not configured or unreachable;
// the lobby then runs without event publishing and rate limiting.
func newRedisClient(ctx context.Context, log *logrus.Entry) *redis.Client {
	addr := env.Get(env.LobbyRedisURL)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: env.Get(env.LobbyRedisPass),
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", addr).Warn("redis unreachable, continuing without it")
		_ = client.Close()
		return nil
	}
	log.WithField("addr", addr).Info("connected to redis")
	return client
}
