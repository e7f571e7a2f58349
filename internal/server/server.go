package server

import (
	"fmt"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"t12insight/internal/config"
	"t12insight/internal/pipeline"
	"t12insight/internal/quality"
	"t12insight/internal/store"
)

// Server is the HTTP boundary around the analysis pipeline.
type Server struct {
	router   *gin.Engine
	store    *store.Store
	pipeline *pipeline.Pipeline
	gate     *quality.Gate
}

// NewServer wires the pipeline, quality gate and run store behind the
// HTTP routes.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, "t12insight.db")

	runStore, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	p, err := pipeline.NewDefault(cfg.Pipeline.DetectionThreshold, cfg.Pipeline.YTDTolerance)
	if err != nil {
		runStore.Close()
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	s := &Server{
		router:   gin.Default(),
		store:    runStore,
		pipeline: p,
		gate:     quality.NewGate(cfg.Quality),
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.GET("/status", s.GetStatus)
		api.GET("/formats", s.ListFormats)

		api.POST("/analyze", s.Analyze)

		api.GET("/runs", s.ListRuns)
		api.GET("/runs/:id", s.GetRun)
		api.GET("/runs/:id/records", s.GetRunRecords)

		api.POST("/quality", s.ValidateQuality)
	}
}

// Run starts the HTTP server on the given port and blocks.
func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("addr", addr).Msg("listening")
	return s.router.Run(addr)
}

// Close releases the run store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
