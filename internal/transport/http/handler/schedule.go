package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/usecase"
)

type ScheduleHandler struct {
	schedules *usecase.ScheduleUsecase
	logger    *slog.Logger
}

func NewScheduleHandler(schedules *usecase.ScheduleUsecase, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, logger: logger.With("component", "schedule_handler")}
}

// targetRequest and timerRequest mirror the Target/Timer tagged unions
// on the wire: exactly one of the kind-specific fields is populated.
type targetRequest struct {
	Kind       string   `json:"kind" binding:"required,oneof=attributes host_id"`
	Attributes []string `json:"attributes"`
	HostID     string   `json:"hostId"`
}

type timerRequest struct {
	Kind      string    `json:"kind" binding:"required,oneof=cron timestamp"`
	Cron      string    `json:"cron"`
	Timestamp time.Time `json:"timestamp"`
}

func (t targetRequest) toDomain() (domain.Target, error) {
	switch t.Kind {
	case "attributes":
		return domain.NewAttributesTarget(t.Attributes), nil
	case "host_id":
		return domain.NewHostIDTarget(t.HostID), nil
	default:
		return domain.Target{}, domain.ErrInvalidTarget
	}
}

func (t timerRequest) toDomain() (domain.Timer, error) {
	switch t.Kind {
	case "cron":
		return domain.NewCronTimer(t.Cron), nil
	case "timestamp":
		return domain.NewTimestampTimer(t.Timestamp), nil
	default:
		return domain.Timer{}, domain.ErrInvalidTimer
	}
}

type createScheduleRequest struct {
	ScriptID string        `json:"scriptId" binding:"required"`
	Target   targetRequest `json:"target" binding:"required"`
	Timer    timerRequest  `json:"timer" binding:"required"`
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}

	target, err := req.Target.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}
	timer, err := req.Timer.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}

	schedule, err := h.schedules.Create(c.Request.Context(), req.ScriptID, target, timer)
	if err != nil {
		h.logger.Error("create schedule", "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errFKViolation})
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
			return
		}
		h.logger.Error("get schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) List(c *gin.Context) {
	schedules, err := h.schedules.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, schedules)
}

type setScheduleActiveRequest struct {
	Active bool `json:"active"`
}

func (h *ScheduleHandler) SetActive(c *gin.Context) {
	var req setScheduleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadRequest})
		return
	}
	if err := h.schedules.SetActive(c.Request.Context(), c.Param("id"), req.Active); err != nil {
		h.logger.Error("set schedule active", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete cascades to the schedule's executions.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}
