package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"opportunity-engine/internal/service"
	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/logger"
	"opportunity-engine/pkg/pipeline"
	"opportunity-engine/pkg/report"
)

const (
	errRunNotFound   = "Run not found"
	errInvalidBody   = "Invalid request"
	errRunInProgress = "Run in progress"
)

// Controller drives pipeline runs over HTTP, one session per run.
type Controller struct {
	runs service.RunService
	ctx  context.Context
	log  *logger.Logger
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

// CreateRunRequest configures a run and starts its extraction.
type CreateRunRequest struct {
	Token        string `json:"token"`
	Property     string `json:"property"`
	Country      string `json:"country"`
	Year         int    `json:"year"`
	EnableTrends *bool  `json:"enable_trends"`
}

// SelectionRequest carries the operator's review decisions.
type SelectionRequest struct {
	Analyze    map[string]bool `json:"analyze"`
	SkipTrends bool            `json:"skip_trends"`
}

// NewController creates a controller; background runs stop when ctx is canceled.
// Sessions that are done or failed are dropped once idle for ttl; zero keeps them.
func NewController(ctx context.Context, runs service.RunService, ttl time.Duration) *Controller {
	c := &Controller{
		runs:     runs,
		ctx:      ctx,
		log:      logger.GetLogger().WithField("component", "handler"),
		ttl:      ttl,
		sessions: make(map[string]*session),
	}
	if ttl > 0 {
		go c.sweep()
	}
	return c
}

func (c *Controller) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case now := <-ticker.C:
			c.evictExpired(now)
		}
	}
}

// evictExpired drops sessions that finished more than ttl before now.
func (c *Controller) evictExpired(now time.Time) int {
	c.mu.Lock()
	var expired []*session
	for id, s := range c.sessions {
		if s.expired(now, c.ttl) {
			expired = append(expired, s)
			delete(c.sessions, id)
		}
	}
	c.mu.Unlock()

	for _, s := range expired {
		s.cancel()
		s.runLog.Reset()
	}
	if len(expired) > 0 {
		c.log.WithField("evicted", len(expired)).Debug("Expired runs evicted")
	}
	return len(expired)
}

// Register mounts the run routes on app.
func (c *Controller) Register(app *fiber.App) {
	runs := app.Group("/api/v1/runs")
	runs.Post("/", c.CreateRun)
	runs.Get("/:id", c.GetRun)
	runs.Get("/:id/queries", c.GetQueries)
	runs.Post("/:id/selection", c.PostSelection)
	runs.Get("/:id/report", c.GetReport)
	runs.Delete("/:id", c.DeleteRun)
}

func (c *Controller) CreateRun(ctx *fiber.Ctx) error {
	var req CreateRunRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidBody})
	}

	settings := c.runs.Settings(pipeline.Settings{
		Token:        req.Token,
		Property:     req.Property,
		Country:      req.Country,
		Year:         req.Year,
		EnableTrends: req.EnableTrends == nil || *req.EnableTrends,
	})
	if err := settings.Validate(); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	runCtx, cancel := context.WithCancel(c.ctx)
	s := &session{
		id:       uuid.NewString(),
		created:  time.Now(),
		runLog:   logger.NewRunLog(logger.DefaultRunLogCapacity, c.log.WithField("component", "run")),
		progress: logger.NewProgressReporter("extraction"),
		exec:     api.NewSequentialExecutor(),
		ctx:      runCtx,
		cancel:   cancel,
		state:    pipeline.New(settings),
	}
	s.runner = c.runs.NewRunner(settings, s.runLog, s.progress.Report)

	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()

	if err := s.start(c.extract(s)); err != nil {
		return ctx.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	c.log.WithFields(map[string]interface{}{
		"run_id":   s.id,
		"property": settings.Property,
		"year":     settings.Year,
	}).Info("Run started")
	return ctx.Status(http.StatusAccepted).JSON(s.status())
}

func (c *Controller) GetRun(ctx *fiber.Ctx) error {
	s := c.session(ctx.Params("id"))
	if s == nil {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": errRunNotFound})
	}
	return ctx.JSON(s.status())
}

func (c *Controller) GetQueries(ctx *fiber.Ctx) error {
	s := c.session(ctx.Params("id"))
	if s == nil {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": errRunNotFound})
	}
	if s.exec.Busy() {
		return ctx.Status(http.StatusConflict).JSON(fiber.Map{"error": errRunInProgress})
	}

	state := s.snapshot()
	if state.Step == pipeline.Configuring {
		return ctx.Status(http.StatusConflict).JSON(fiber.Map{"error": "Extraction has not completed"})
	}
	return ctx.JSON(fiber.Map{
		"step":    state.Step.String(),
		"queries": state.ReviewTable(nil),
	})
}

func (c *Controller) PostSelection(ctx *fiber.Ctx) error {
	s := c.session(ctx.Params("id"))
	if s == nil {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": errRunNotFound})
	}

	var req SelectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidBody})
	}

	err := s.exec.TryExecute(s.ctx, func() error {
		state := s.snapshot()
		if req.SkipTrends {
			state.Settings.EnableTrends = false
		}
		next, err := pipeline.Select(state, req.Analyze)
		if err != nil {
			return err
		}
		s.finish(next, nil)
		return nil
	})
	switch {
	case errors.Is(err, api.ErrBusy):
		return ctx.Status(http.StatusConflict).JSON(fiber.Map{"error": errRunInProgress})
	case errors.Is(err, pipeline.ErrInvalidTransition):
		return ctx.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	go c.complete(s)
	return ctx.Status(http.StatusAccepted).JSON(s.status())
}

func (c *Controller) GetReport(ctx *fiber.Ctx) error {
	s := c.session(ctx.Params("id"))
	if s == nil {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": errRunNotFound})
	}

	state := s.snapshot()
	switch {
	case state.Step != pipeline.Done:
		return ctx.Status(http.StatusConflict).JSON(fiber.Map{"error": "Report not ready", "step": state.Step.String()})
	case state.ReportPath == "":
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": report.ErrEmptyReport.Error()})
	}
	return ctx.Download(state.ReportPath, reportFileName(state.ReportPath))
}

// DeleteRun discards the session so the operator can start a new analysis.
func (c *Controller) DeleteRun(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	c.mu.Lock()
	s, ok := c.sessions[id]
	delete(c.sessions, id)
	c.mu.Unlock()

	if !ok {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": errRunNotFound})
	}
	s.cancel()
	s.runLog.Reset()
	c.log.WithField("run_id", id).Info("Run discarded")
	return ctx.SendStatus(http.StatusNoContent)
}

func (c *Controller) session(id string) *session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions[id]
}

func (c *Controller) extract(s *session) func(ctx context.Context) {
	return func(ctx context.Context) {
		s.progress.Start("extraction", 0)
		next, err := s.runner.Extract(ctx, s.snapshot())
		if err != nil {
			c.log.WithError(err).WithField("run_id", s.id).Warn("Extraction failed")
		}
		s.finish(next, err)
	}
}

// complete runs enrichment and reporting once the selection has been applied.
func (c *Controller) complete(s *session) {
	ctx := s.ctx
	err := s.exec.Execute(ctx, func() error {
		state := s.snapshot()
		if state.Step == pipeline.Enriching {
			s.progress.Start("trends", len(state.Selection))
			next, err := s.runner.Enrich(ctx, state)
			s.finish(next, err)
			if err != nil {
				return err
			}
			state = next
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		s.progress.Start("report", 1)
		next, err := s.runner.Report(state)
		s.finish(next, err)
		if err == nil {
			s.progress.Report(1, 1, "Report ready")
		}
		return err
	})
	if err != nil && !errors.Is(err, report.ErrEmptyReport) && !errors.Is(err, context.Canceled) {
		c.log.WithError(err).WithField("run_id", s.id).Error("Run failed")
	}
}

func reportFileName(path string) string {
	return filepath.Base(path)
}
