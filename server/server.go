package server

import (
	"context"
	"net/http"

	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swisspipe/swisspipe/core/aigen"
	"github.com/swisspipe/swisspipe/core/backup"
	"github.com/swisspipe/swisspipe/core/config"
	"github.com/swisspipe/swisspipe/core/jobqueue"
	"github.com/swisspipe/swisspipe/core/variables"
	"github.com/swisspipe/swisspipe/core/versions"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

// HttpJsonResp is the success envelope for every API response.
type HttpJsonResp[T any] struct {
	Data T `json:"data"`
}

// Server wires the variable, version and generation services behind an echo
// HTTP server. It owns the background pieces too: the job worker, the
// retention sweep and the periodic backup.
type Server struct {
	e      *echo.Echo
	config *config.Config
	db     storage.Storage

	variables *variables.Service
	templates *variables.TemplateEngine
	versions  *versions.Service
	aigen     *aigen.Service

	queue  *jobqueue.Queue
	worker *jobqueue.Worker

	backup    *backup.Service
	retention gocron.Scheduler

	logger logger.Logger
}

func New(cfg *config.Config, db storage.Storage) (*Server, error) {
	l := logger.EnsureLogger(cfg.Logger)

	encryption, err := variables.NewEncryptionService(cfg.EncryptionKeys, cfg.ActiveKeyID)
	if err != nil {
		return nil, err
	}

	variableService := variables.NewService(db, encryption, cfg.MacroVars, l)
	templateEngine := variables.NewTemplateEngine(variableService, l)

	versionService, err := versions.NewService(db, cfg.MaxVersionsPerWorkflow, l)
	if err != nil {
		return nil, err
	}

	aiClient := aigen.NewClient(cfg.AI, l)
	aiService := aigen.NewService(aiClient, l)

	queue := jobqueue.New(db, l, &jobqueue.QueueOption{Prefix: "ai"})
	worker := jobqueue.NewWorker(queue, db)
	aigen.NewProcessor(aiService).RegisterOn(worker)

	s := &Server{
		e:      echo.New(),
		config: cfg,
		db:     db,

		variables: variableService,
		templates: templateEngine,
		versions:  versionService,
		aigen:     aiService,

		queue:  queue,
		worker: worker,

		logger: l,
	}

	if cfg.BackupEnabled {
		s.backup = backup.NewService(l, db, cfg.BackupDir)
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.e.HideBanner = true
	s.e.Use(middleware.Logger())
	s.e.Use(middleware.Recover())

	s.e.GET("/up", func(c echo.Context) error {
		return c.String(http.StatusOK, "up")
	})
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.e.Group("/api/v1", s.authMiddleware)

	// global-scope variables
	api.GET("/variables", s.listVariables)
	api.POST("/variables", s.createVariable)
	api.GET("/variables/:name", s.getVariable)
	api.PUT("/variables/:name", s.updateVariable)
	api.DELETE("/variables/:name", s.deleteVariable)

	// workflow-scope variables
	api.GET("/workflows/:workflow_id/variables", s.listVariables)
	api.POST("/workflows/:workflow_id/variables", s.createVariable)
	api.GET("/workflows/:workflow_id/variables/:name", s.getVariable)
	api.PUT("/workflows/:workflow_id/variables/:name", s.updateVariable)
	api.DELETE("/workflows/:workflow_id/variables/:name", s.deleteVariable)
	api.DELETE("/workflows/:workflow_id/variables", s.deleteScope)

	api.POST("/workflows/:workflow_id/render", s.renderTemplate)

	// version history
	api.GET("/workflows/:workflow_id/versions", s.listVersions)
	api.POST("/workflows/:workflow_id/versions", s.createVersion)
	api.GET("/workflows/:workflow_id/versions/:version_id", s.getVersion)
	api.DELETE("/workflows/:workflow_id/versions", s.deleteVersions)

	// AI generation, sync and via the job queue
	api.POST("/ai/generate-code", s.generateCode)
	api.POST("/ai/generate-workflow", s.generateWorkflow)
	api.GET("/ai/jobs/:job_id", s.getGenerationJob)
}

// Start brings up the background services and blocks serving HTTP.
func (s *Server) Start() error {
	s.queue.MustStart()
	s.worker.MustStart()

	scheduler, err := s.versions.StartRetentionSweep(s.config.RetentionSweepInterval)
	if err != nil {
		return err
	}
	s.retention = scheduler

	if s.backup != nil {
		if err := s.backup.StartPeriodicBackup(s.config.BackupInterval); err != nil {
			return err
		}
	}

	s.logger.Info("http server listening", "address", s.config.HttpBindAddress)
	return s.e.Start(s.config.HttpBindAddress)
}

// Stop shuts everything down in reverse order of Start.
func (s *Server) Stop(ctx context.Context) error {
	if s.backup != nil {
		s.backup.StopPeriodicBackup()
	}
	if s.retention != nil {
		_ = s.retention.Shutdown()
	}
	if err := s.queue.Stop(); err != nil {
		s.logger.Error("failed to stop job queue", "error", err)
	}

	return s.e.Shutdown(ctx)
}

// scopeFromContext maps the route onto a variable scope: the workflow id for
// workflow routes, the global scope otherwise.
func scopeFromContext(c echo.Context) string {
	if wf := c.Param("workflow_id"); wf != "" {
		return wf
	}
	return model.GlobalScope
}
