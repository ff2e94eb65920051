package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anilkrishnach/DataEngineering-Spark/internal/dto"
	"github.com/anilkrishnach/DataEngineering-Spark/internal/service"
)

type Handler struct {
	runService service.RunServicer
	router     *gin.Engine
	log        *zap.Logger
}

func NewHandler(runService service.RunServicer, log *zap.Logger) *Handler {
	h := &Handler{
		runService: runService,
		router:     gin.Default(),
		log:        log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/runs", h.triggerRun)
	h.router.GET("/runs/latest", h.latestRun)
	h.router.GET("/runs/latest/tables/:name", h.latestTable)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck handles GET /health
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// triggerRun handles POST /runs. The run executes synchronously within the request
// but is not cancelled when the client disconnects.
func (h *Handler) triggerRun(c *gin.Context) {
	report, err := h.runService.Trigger(context.WithoutCancel(c.Request.Context()))
	if errors.Is(err, service.ErrRunInProgress) {
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "run_in_progress",
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		h.log.Error("Failed to run pipeline", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	h.log.Info("Run completed",
		zap.String("run_id", report.RunID),
		zap.Duration("duration", report.Duration()))

	c.JSON(http.StatusOK, dto.RunResponse{
		Status: "completed",
		Report: report,
	})
}

// latestRun handles GET /runs/latest
func (h *Handler) latestRun(c *gin.Context) {
	report, ok := h.runService.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "no completed run",
		})
		return
	}

	c.JSON(http.StatusOK, dto.RunResponse{
		Status: "completed",
		Report: report,
	})
}

// latestTable handles GET /runs/latest/tables/:name
func (h *Handler) latestTable(c *gin.Context) {
	var req dto.GetTableRequest

	if err := c.ShouldBindUri(&req); err != nil {
		h.log.Warn("Invalid table request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	report, ok := h.runService.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "no completed run",
		})
		return
	}

	table, ok := report.Table(req.Name)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "table not in latest run: " + req.Name,
		})
		return
	}

	c.JSON(http.StatusOK, dto.TableResponse{
		RunID: report.RunID,
		Table: table,
	})
}
