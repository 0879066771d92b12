package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/apimeister/unpatched-server/internal/usecase"
)

type HostHandler struct {
	hosts     *usecase.HostUsecase
	schedules *usecase.ScheduleUsecase
	logger    *slog.Logger
}

func NewHostHandler(hosts *usecase.HostUsecase, schedules *usecase.ScheduleUsecase, logger *slog.Logger) *HostHandler {
	return &HostHandler{hosts: hosts, schedules: schedules, logger: logger.With("component", "host_handler")}
}

type createHostRequest struct {
	Alias      string   `json:"alias" binding:"required"`
	Attributes []string `json:"attributes"`
}

func (h *HostHandler) Create(c *gin.Context) {
	var req createHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}

	host, err := h.hosts.Create(c.Request.Context(), req.Alias, req.Attributes)
	if err != nil {
		h.logger.Error("create host", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusCreated, host)
}

func (h *HostHandler) Get(c *gin.Context) {
	host, err := h.hosts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrHostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
			return
		}
		h.logger.Error("get host", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, host)
}

func (h *HostHandler) List(c *gin.Context) {
	filter := repository.HostFilter{Alias: c.Query("alias")}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}

	hosts, err := h.hosts.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list hosts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, hosts)
}

type setHostActiveRequest struct {
	Active bool `json:"active"`
}

func (h *HostHandler) SetActive(c *gin.Context) {
	var req setHostActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}
	if err := h.hosts.SetActive(c.Request.Context(), c.Param("id"), req.Active); err != nil {
		h.logger.Error("set host active", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete cascades to the host's executions and host-targeted schedules,
// enforced at the database level.
func (h *HostHandler) Delete(c *gin.Context) {
	if err := h.hosts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete host", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSchedules implements GET /api/v1/hosts/:id/schedules, a host's
// matching schedules filtered by active|inactive|all state.
func (h *HostHandler) ListSchedules(c *gin.Context) {
	state := repository.ScheduleStateActive
	switch c.Query("state") {
	case "inactive":
		state = repository.ScheduleStateInactive
	case "all":
		state = repository.ScheduleStateAll
	}

	schedules, err := h.schedules.ListForHost(c.Request.Context(), c.Param("id"), state)
	if err != nil {
		if errors.Is(err, domain.ErrHostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
			return
		}
		h.logger.Error("list host schedules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, schedules)
}
