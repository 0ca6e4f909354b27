package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metalagman/taskboard/internal/board"
)

type stageRequest struct {
	Name string `json:"name"`
}

type cardRequest struct {
	Content string `json:"content"`
}

func (s *Server) getBoard(c echo.Context) error {
	stages, err := s.board.Load(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stages)
}

func (s *Server) addStage(c echo.Context) error {
	var req stageRequest
	if err := decode(c, &req); err != nil {
		return invalidBody(c)
	}
	stage, err := s.board.AddStage(c.Request().Context(), req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, stage)
}

func (s *Server) addCard(c echo.Context) error {
	var req cardRequest
	if err := decode(c, &req); err != nil {
		return invalidBody(c)
	}
	card, err := s.board.AddCard(c.Request().Context(), c.Param("stage"), req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, card)
}

func (s *Server) moveCard(c echo.Context) error {
	var m board.Move
	if err := decode(c, &m); err != nil {
		return invalidBody(c)
	}
	stages, err := s.board.Move(c.Request().Context(), m)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stages)
}
