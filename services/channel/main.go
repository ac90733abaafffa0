package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/linen/internal/api"
	"github.com/linen/internal/channel"
	"github.com/linen/internal/config"
	"github.com/linen/internal/directory"
	"github.com/linen/internal/handler"
	"github.com/linen/internal/logger"
	"github.com/linen/internal/middleware"
	"github.com/linen/internal/model"
	"github.com/linen/internal/push"
	"github.com/linen/internal/startup"
	"github.com/linen/internal/ws"
)

func main() {
	logger.SetPrefix("channel")
	noLoad := flag.Bool("no-load", false, "start with an empty channel instead of fetching threads")
	flag.Parse()

	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	logger.Infof("starting channel client: channel=%s api=%s transport=%s token=%s",
		cfg.ChannelID, cfg.APIBaseURL, cfg.RealtimeTransport, middleware.MaskSecret(cfg.Token))

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	apiClient := api.NewClient(api.Options{
		BaseURL:     cfg.APIBaseURL,
		Token:       cfg.Token,
		CommunityID: cfg.CommunityID,
		RequestRate: cfg.RequestRate,
		Burst:       cfg.RequestBurst,
	})
	source, err := startup.NewSource(rootCtx, cfg)
	if err != nil {
		logger.Errorf("realtime: %v", err)
		os.Exit(1)
	}
	if source != nil {
		defer source.Close()
	}

	perms := model.Permissions{Manage: cfg.User.Manage, Token: cfg.Token}
	if cfg.User.ID != "" {
		perms.User = &model.User{
			ID:          cfg.User.ID,
			AuthsID:     cfg.User.AuthsID,
			Username:    cfg.User.Username,
			DisplayName: cfg.User.DisplayName,
		}
		if cfg.User.AuthsID != "" {
			perms.Auth = &model.Auth{ID: cfg.User.AuthsID}
		}
	}

	users := directory.New()
	var dispatcher push.Dispatcher
	if pc := push.NewClient(cfg.PushServiceURL); pc.Enabled() {
		dispatcher = pc
	} else {
		logger.Info("push: disabled")
	}

	// hub создаётся после представления, ошибки до этого только логируются.
	var hubRef atomic.Pointer[ws.Hub]
	view := channel.New(channel.Deps{
		API:      apiClient,
		Source:   source,
		Push:     dispatcher,
		Notifier: channel.NotifierFunc(func(err error) {
			if h := hubRef.Load(); h != nil {
				h.Notify(err)
			}
		}),
		Users: users,
	}, channel.Config{
		Channel:     model.Channel{ID: cfg.ChannelID, ChannelName: cfg.ChannelName, AccountID: cfg.CommunityID},
		Permissions: perms,
		Debounce:    cfg.SendDebounce,
		MaxFileSize: cfg.MaxFileSize,
		InboxSize:   cfg.InboxSize,
	})

	if !*noLoad {
		loadCtx, loadCancel := context.WithTimeout(rootCtx, 15*time.Second)
		initial, err := apiClient.FetchThreads(loadCtx, cfg.ChannelID)
		loadCancel()
		if err != nil {
			if api.IsStatus(err, http.StatusUnauthorized) {
				logger.Errorf("load threads: token rejected by %s", cfg.APIBaseURL)
			} else {
				logger.Errorf("load threads: %v", err)
			}
			os.Exit(1)
		}
		view.Load(initial.Threads, initial.Pinned)
		logger.Infof("loaded %d threads (%d pinned), %d known users", len(initial.Threads), len(initial.Pinned), users.Len())
	}
	if err := view.Start(rootCtx); err != nil {
		logger.Errorf("subscribe channel: %v", err)
		os.Exit(1)
	}

	hub := ws.NewHub(view, cfg.MaxWSConnections)
	hubRef.Store(hub)
	snapshots, unsubscribe := view.Subscribe(1)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	var bgWg sync.WaitGroup
	for _, run := range []func(context.Context){
		hub.Run,
		view.Run,
		func(ctx context.Context) { hub.Feed(ctx, snapshots) },
	} {
		bgWg.Add(1)
		go func(run func(context.Context)) {
			defer bgWg.Done()
			run(bgCtx)
		}(run)
	}

	channelH := handler.NewChannelHandler(view)
	wsH := handler.NewWSHandler(hub, cfg.CORSAllowedOrigins)
	configH := handler.NewConfigHandler(cfg)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.RequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSAllowedOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Sidecar-Secret"},
		MaxAge:         300,
	}))

	r.Method(http.MethodGet, "/health", handler.NewHealthHandler(view, hub, dispatcher != nil))
	r.Group(func(r chi.Router) {
		r.Use(middleware.LocalOnly(cfg.SidecarSecret))
		r.Use(middleware.RateLimit(600))
		r.Get("/api/config", configH.GetClientConfig)
		r.Get("/api/threads", channelH.GetThreads)
		r.Post("/api/messages/channel", channelH.SendChannelMessage)
		r.Post("/api/messages/thread", channelH.SendThreadMessage)
		r.Put("/api/threads/{id}", channelH.UpdateThread)
		r.Post("/api/threads/{id}/select", channelH.SelectThread)
		r.Post("/api/reactions", channelH.PostReaction)
		r.Post("/api/drop/channel", channelH.DropOnChannel)
		r.Post("/api/drop/thread", channelH.DropOnThread)
		r.Get("/ws", wsH.ServeWS)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("sidecar listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	unsubscribe()
	if err := view.Close(); err != nil {
		logger.Errorf("view close: %v", err)
	}
	bgCancel()
	bgWg.Wait()
	logger.Info("channel client stopped")
}
