package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/usecase"
)

type ExecutionHandler struct {
	executions *usecase.ExecutionUsecase
	logger     *slog.Logger
}

func NewExecutionHandler(executions *usecase.ExecutionUsecase, logger *slog.Logger) *ExecutionHandler {
	return &ExecutionHandler{executions: executions, logger: logger.With("component", "execution_handler")}
}

func (h *ExecutionHandler) Get(c *gin.Context) {
	e, err := h.executions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
			return
		}
		h.logger.Error("get execution", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *ExecutionHandler) List(c *gin.Context) {
	executions, err := h.executions.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list executions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, executions)
}

// Delete is how an operator clears an execution stuck in CLAIMED after
// a lost agent reply; the server never retries a dispatch on its own.
func (h *ExecutionHandler) Delete(c *gin.Context) {
	if err := h.executions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete execution", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}
