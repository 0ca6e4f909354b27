// Package web serves the taskboard HTTP API and a minimal HTML view.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/metalagman/taskboard/internal/board"
	"github.com/metalagman/taskboard/internal/logging"
	"github.com/metalagman/taskboard/internal/task"
)

const maxBodySize = 1 << 20

//go:embed templates/*.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Server holds the services behind the HTTP handlers.
type Server struct {
	factory *task.Factory
	board   *board.Board
}

// NewServer creates a new web server.
func NewServer(factory *task.Factory, b *board.Board) *Server {
	return &Server{factory: factory, board: b}
}

// Echo builds an echo instance with middleware and all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = logging.DebugEnabled()
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	s.Register(e)
	return e
}

// Register wires up all routes on the provided Echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/", s.index)
	e.POST("/tasks/:id/toggle", s.toggleFromIndex)
	e.GET("/healthz", healthz)

	api := e.Group("/api")
	api.GET("/tasks/root", s.rootTasks)
	api.GET("/tasks/:id", s.getTask)
	api.POST("/tasks", s.createTask)
	api.POST("/tasks/:id/toggle", s.toggleTask)
	api.POST("/tasks/:id/subtasks", s.addSubtask)
	api.PUT("/tasks/:id/children/:childId", s.attachChild)
	api.DELETE("/tasks/:id/children/:childId", s.detachChild)
	api.DELETE("/tasks/:id", s.deleteTask)
	api.GET("/tags", s.listTags)
	api.POST("/tags", s.createTag)
	api.GET("/board", s.getBoard)
	api.POST("/board/stages", s.addStage)
	api.POST("/board/stages/:stage/cards", s.addCard)
	api.POST("/board/moves", s.moveCard)
}

func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, task.ErrCycleDetected), errors.Is(err, task.ErrDuplicateChild):
		return http.StatusConflict
	case errors.Is(err, task.ErrValidation), errors.Is(err, board.ErrValidation), errors.Is(err, board.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrNotFound), errors.Is(err, board.ErrUnknownStage):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

// decode reads a JSON body with sonic, rejecting unknown fields.
func decode(c echo.Context, v any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("http request")
			return nil
		}
	}
}

func (s *Server) index(c echo.Context) error {
	roots, err := s.factory.GetRootTasks(c.Request().Context())
	if err != nil {
		return c.String(statusFor(err), err.Error())
	}
	stages, err := s.board.Load(c.Request().Context())
	if err != nil {
		return c.String(statusFor(err), err.Error())
	}
	snaps := make([]task.Snapshot, 0, len(roots))
	for _, r := range roots {
		snaps = append(snaps, task.Snap(r))
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return indexTemplate.Execute(c.Response(), struct {
		Tasks  []task.Snapshot
		Stages []board.Stage
	}{Tasks: snaps, Stages: stages})
}

func (s *Server) toggleFromIndex(c echo.Context) error {
	if _, err := s.factory.ToggleTask(c.Request().Context(), c.Param("id")); err != nil {
		return c.String(statusFor(err), err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
