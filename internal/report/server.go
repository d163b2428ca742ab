// Package report serves persisted experiment results over HTTP.
package report

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
	"github.com/MishaK15/SmartSparse/internal/experiment"
)

// Server exposes the results document of the latest experiment session.
// Results are re-read from disk per request so a running experiment shows up
// without a restart.
type Server struct {
	App         *fiber.App
	config      *config.ReportServerEnvConfig
	resultsPath string
}

// StdResponse is the standardized response envelope.
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}

// NewServer builds the report server around a results file.
func NewServer(cfg *config.ReportServerEnvConfig, resultsPath string) *Server {
	app := fiber.New(fiber.Config{
		Prefork:      false,
		ErrorHandler: fiberErrHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})

	app.Use(recover.New()) // add panic recovery
	app.Use(compress.New(compress.Config{Level: compress.LevelBestCompression}))

	s := &Server{
		App:         app,
		config:      cfg,
		resultsPath: resultsPath,
	}
	s.registerRoutes()
	return s
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	// Status code defaults to 500
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a *fiber.Error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]interface{}{}, err))
}

func (s *Server) registerRoutes() {
	s.App.Get("/health", s.handleHealth)
	s.App.Get("/results", s.handleResults)
	s.App.Get("/results/summaries", s.handleSummaries)
	s.App.Get("/results/summaries/:label", s.handleSummary)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(createResponse("ok", nil))
}

func (s *Server) handleResults(c *fiber.Ctx) error {
	res, err := experiment.LoadResults(s.resultsPath)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(createResponse(res, nil))
}

func (s *Server) handleSummaries(c *fiber.Ctx) error {
	res, err := experiment.LoadResults(s.resultsPath)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(createResponse(res.Summaries, nil))
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	label := c.Params("label")
	res, err := experiment.LoadResults(s.resultsPath)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	for _, summary := range res.Summaries {
		if summary.Label == label {
			return c.JSON(createResponse(summary, nil))
		}
	}
	return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no summary named %s", label))
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() {
	addr := fmt.Sprintf("%s:%d", s.config.ReportHost, s.config.ReportPort)
	log.Info().Msgf("report server listening on %s", addr)
	log.Fatal().
		Err(s.App.Listen(addr)).
		Msg("Report server failed to start")
}
