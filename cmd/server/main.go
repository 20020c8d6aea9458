package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"welcomepdf/internal/codeimage"
	"welcomepdf/internal/config"
	"welcomepdf/internal/document"
	"welcomepdf/internal/handler"
	"welcomepdf/internal/httpmiddleware"
	"welcomepdf/internal/identifier"
	"welcomepdf/internal/metrics"
	"welcomepdf/internal/pipeline"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	encoder, err := codeimage.NewEncoder(cfg.QRSize, cfg.QRLevel)
	if err != nil {
		return err
	}
	m := metrics.NewPipeline(prometheus.DefaultRegisterer)
	svc := pipeline.NewService(identifier.New, encoder, document.NewAssembler(document.Options{
		Compress:       cfg.PDFCompress,
		MaxPhotoPixels: cfg.MaxPhotoPixels,
	}), m)
	h := handler.New(svc, m)

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.MaxBody(cfg.MaxUploadBytes))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server is running at http://localhost:%s and http://%s", cfg.HTTPPort, cfg.Addr())
		log.Printf("QR code: %dpx, level %s; pdf compression %v", encoder.Size(), cfg.QRLevel, cfg.PDFCompress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
