package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"edicola/internal/auth"
	"edicola/internal/importer"
	"edicola/internal/issue"
	"edicola/internal/magazine"
	"edicola/internal/notify"
	"edicola/internal/numbering"
	synchub "edicola/internal/sync"
	"edicola/pkg/database"
	"edicola/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// event fan-out for open catalog views
	hub := synchub.NewHub()
	router.GET("/ws", synchub.WSHandler(hub))
	tcpSrv := synchub.NewServer(":7070", hub)

	// UDP arrival notices
	registry := notify.NewRegistry()
	notifySrv := notify.NewServer(":7071", registry, nil)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	router.GET("/me", auth.AuthMiddleware(tokenSvc, authRepo), func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
		})
	})

	// Catalog: reads are public, mutations need a token
	guard := auth.AuthMiddleware(tokenSvc, authRepo)

	issueRepo := issue.NewRepo(db)
	magazineRepo := magazine.NewRepo(db)
	numberingRepo := numbering.NewRepo(db)

	issueHandler := issue.NewHandler(issueRepo, hub, notifySrv)
	issueHandler.RegisterRoutes(router.Group("/issues"), router.Group("/issues", guard))

	magazineHandler := magazine.NewHandler(magazineRepo, issueRepo, numberingRepo)
	magazineHandler.RegisterRoutes(router.Group("/magazines"), router.Group("/magazines", guard))

	numberingHandler := numbering.NewHandler(numberingRepo)
	numberingHandler.RegisterRoutes(router.Group("/numberings"), router.Group("/numberings", guard))

	importHandler := importer.NewHandler(db, hub)
	importHandler.RegisterRoutes(router.Group("/import", guard))

	httpSrv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	errCh := make(chan error, 3)

	go func() {
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	go func() {
		if err := notifySrv.Run(); err != nil {
			errCh <- err
		}
	}()

	go func() {
		log.Println("HTTP API server listening on :8080")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}
	log.Println("shutdown complete")
}
