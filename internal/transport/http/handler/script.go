package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/apimeister/unpatched-server/internal/usecase"
)

type ScriptHandler struct {
	scripts *usecase.ScriptUsecase
	logger  *slog.Logger
}

func NewScriptHandler(scripts *usecase.ScriptUsecase, logger *slog.Logger) *ScriptHandler {
	return &ScriptHandler{scripts: scripts, logger: logger.With("component", "script_handler")}
}

type createScriptRequest struct {
	Name          string   `json:"name" binding:"required"`
	Version       string   `json:"version" binding:"required"`
	OutputRegex   string   `json:"outputRegex"`
	Labels        []string `json:"labels"`
	TimeoutSec    int      `json:"timeoutSec"`
	ScriptContent string   `json:"scriptContent" binding:"required"`
}

func (h *ScriptHandler) Create(c *gin.Context) {
	var req createScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}

	script, err := h.scripts.Create(c.Request.Context(), usecase.CreateScriptInput{
		Name:          req.Name,
		Version:       req.Version,
		OutputRegex:   req.OutputRegex,
		Labels:        req.Labels,
		Timeout:       time.Duration(req.TimeoutSec) * time.Second,
		ScriptContent: req.ScriptContent,
	})
	if err != nil {
		h.logger.Error("create script", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusCreated, script)
}

func (h *ScriptHandler) Get(c *gin.Context) {
	script, err := h.scripts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrScriptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
			return
		}
		h.logger.Error("get script", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, script)
}

func (h *ScriptHandler) List(c *gin.Context) {
	scripts, err := h.scripts.List(c.Request.Context(), repository.ScriptFilter{Name: c.Query("name")})
	if err != nil {
		h.logger.Error("list scripts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, scripts)
}

// Delete cascades to every schedule referencing this script.
func (h *ScriptHandler) Delete(c *gin.Context) {
	if err := h.scripts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete script", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}
