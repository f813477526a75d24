package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/deftfitf/skulking-board-game/internal/gateway"
	"github.com/deftfitf/skulking-board-game/internal/journal"
	"github.com/deftfitf/skulking-board-game/internal/lobby"
	"github.com/deftfitf/skulking-board-game/internal/roomlist"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL"))); err == nil {
		logger.SetLevel(level)
	}

	journalStore, journalMode, err := journal.NewStoreFromEnv(os.Getenv("JOURNAL_MODE"))
	if err != nil {
		logger.WithError(err).Fatal("journal store init failed")
	}
	defer journalStore.Close()

	roomListService, roomListMode, err := roomlist.NewServiceFromEnv(os.Getenv("ROOMLIST_MODE"))
	if err != nil {
		logger.WithError(err).Fatal("room list service init failed")
	}
	defer roomListService.Close()

	var lobbyOpts []lobby.Option
	if raw := strings.TrimSpace(os.Getenv("ROOM_IDLE_TTL")); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			logger.WithError(err).Fatal("invalid ROOM_IDLE_TTL")
		}
		lobbyOpts = append(lobbyOpts, lobby.WithIdleTTL(ttl))
	}
	lby := lobby.New(journalStore, roomListService, logger, lobbyOpts...)
	defer lby.Close()

	gw := gateway.New(lby, logger)
	roomsHTTP := roomlist.NewHTTPHandler(roomListService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	roomsHTTP.RegisterRoutes(mux)

	addr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     addr,
			"journal":  journalMode,
			"roomList": roomListMode,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown incomplete")
	}
}
