package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/lovenest/internal/config"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/handlers"
	"github.com/thereayou/lovenest/internal/middleware"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/internal/services"
	"github.com/thereayou/lovenest/internal/storage"
	ws "github.com/thereayou/lovenest/internal/websocket"
	"github.com/thereayou/lovenest/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Config     *config.Config
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub
	Broker     ws.Broker
	Handlers   *Handlers
}

// NewServer connects to the stores named in cfg and assembles the server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			dbConn.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(redisOpts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			dbConn.Close()
			rdb.Close()
			return nil, fmt.Errorf("redis connect failed: %w", err)
		}
	} else {
		log.Println("REDIS_URL not set, using the in-process change feed without a token blacklist")
	}

	s, err := Assemble(ctx, cfg, dbConn, rdb)
	if err != nil {
		dbConn.Close()
		if rdb != nil {
			rdb.Close()
		}
		return nil, err
	}
	return s, nil
}

// Assemble wires handlers around already opened stores. rdb may be nil.
func Assemble(ctx context.Context, cfg *config.Config, db *database.Database, rdb *redis.Client) (*Server, error) {
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	hub := ws.NewHub(models.RoomTables...)
	go hub.Run()

	var broker ws.Broker = ws.NewLocalBroker(hub)
	if rdb != nil {
		redisBroker, err := ws.NewRedisBroker(ctx, rdb, hub)
		if err != nil {
			hub.Stop()
			return nil, err
		}
		broker = redisBroker
	}

	store, err := storage.NewImageStore(cfg.UploadDir, cfg.PublicURL, cfg.MaxUploadBytes)
	if err != nil {
		broker.Close()
		hub.Stop()
		return nil, err
	}

	publisher := services.NewPublisher(broker)
	blacklist := services.NewTokenBlacklist(rdb)

	h := &Handlers{
		Auth:      handlers.NewAuthHandler(services.NewAuthService(db, jwtMgr, blacklist)),
		User:      handlers.NewUserHandler(db),
		Message:   handlers.NewMessageHandler(db, publisher),
		Memory:    handlers.NewMemoryHandler(db, publisher),
		Gift:      handlers.NewGiftHandler(db, publisher),
		Game:      handlers.NewGameHandler(services.NewGameService(db, publisher)),
		Upload:    handlers.NewUploadHandler(store),
		Room:      handlers.NewRoomHandler(db, hub),
		WebSocket: handlers.NewWebSocketHandler(hub, originChecker(cfg.AllowedOrigins)),
	}

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	APIEndpoints(router, h,
		middleware.AuthMiddleware(jwtMgr, blacklist),
		middleware.WSAuthMiddleware(jwtMgr, blacklist),
		cfg.UploadDir,
	)

	return &Server{
		Config:     cfg,
		Router:     router,
		DB:         db,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		Broker:     broker,
		Handlers:   h,
	}, nil
}

// originChecker admits WebSocket handshakes from the CORS origins.
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return allowed[u.Scheme+"://"+u.Host]
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %d", s.Config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the feed and the stores.
func (s *Server) Close() error {
	var errs []error
	if err := s.Broker.Close(); err != nil {
		errs = append(errs, err)
	}
	s.Hub.Stop()
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.DB.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
