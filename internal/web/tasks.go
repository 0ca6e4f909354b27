package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metalagman/taskboard/internal/task"
)

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ParentID    string   `json:"parentId"`
	Tags        []string `json:"tags"`
}

type subtaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type taskResponse struct {
	task.Snapshot
	Display string `json:"display"`
}

func (s *Server) rootTasks(c echo.Context) error {
	roots, err := s.factory.GetRootTasks(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]task.Snapshot, 0, len(roots))
	for _, r := range roots {
		out = append(out, task.Snap(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getTask(c echo.Context) error {
	tree, err := s.factory.GetTaskWithChildren(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, taskResponse{Snapshot: task.Snap(tree), Display: tree.Display()})
}

func (s *Server) createTask(c echo.Context) error {
	var req createTaskRequest
	if err := decode(c, &req); err != nil {
		return invalidBody(c)
	}
	created, err := s.factory.CreateCompositeTask(c.Request().Context(), req.Title, req.Description, req.ParentID, req.Tags)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, task.Snap(created))
}

func (s *Server) toggleTask(c echo.Context) error {
	tree, err := s.factory.ToggleTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, task.Snap(tree))
}

func (s *Server) addSubtask(c echo.Context) error {
	var req subtaskRequest
	if err := decode(c, &req); err != nil {
		return invalidBody(c)
	}
	parent, err := s.factory.AddSubtask(c.Request().Context(), c.Param("id"), req.Title, req.Description)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, task.Snap(parent))
}

func (s *Server) attachChild(c echo.Context) error {
	parent, err := s.factory.AttachTask(c.Request().Context(), c.Param("id"), c.Param("childId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, task.Snap(parent))
}

func (s *Server) detachChild(c echo.Context) error {
	parent, err := s.factory.DetachTask(c.Request().Context(), c.Param("id"), c.Param("childId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, task.Snap(parent))
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := s.factory.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listTags(c echo.Context) error {
	tags, err := s.factory.Tags(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tags)
}

func (s *Server) createTag(c echo.Context) error {
	var req createTagRequest
	if err := decode(c, &req); err != nil {
		return invalidBody(c)
	}
	tag, err := s.factory.CreateTag(c.Request().Context(), req.Name, req.Color)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, tag)
}
