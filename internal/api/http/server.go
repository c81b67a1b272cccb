package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	app "grapeguard/internal/application"
)

// Options параметры HTTP-сервера
type Options struct {
	Port          string
	CORSOrigins   []string
	MaxImageBytes int64
}

// Server HTTP-сервер сервиса диагностики
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer собирает роутер: Logger, Recovery, CORS и маршруты диагностики.
func NewServer(diagnosis *app.DiagnosisService, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), corsMiddleware(opts.CORSOrigins))
	router.MaxMultipartMemory = opts.MaxImageBytes + 1<<20

	NewDiagnosisHandler(diagnosis, opts.MaxImageBytes).RegisterRoutes(router)

	return &Server{
		router: router,
		srv: &http.Server{
			Addr:              ":" + opts.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler корневой обработчик, удобен для тестов
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run слушает порт до вызова Shutdown.
func (s *Server) Run() error {
	log.Printf("HTTP server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
