package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/service"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/store"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/tenant"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	ingest    *service.IngestService
	inventory *service.InventoryService
	cabinets  *service.CabinetService
}

// NewHandler creates a new HTTP handler
func NewHandler(ingest *service.IngestService, inventory *service.InventoryService, cabinets *service.CabinetService) *Handler {
	return &Handler{
		ingest:    ingest,
		inventory: inventory,
		cabinets:  cabinets,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Hardware-facing endpoints; device credentialing is handled by
		// upstream middleware
		v1.POST("/sensor-data", h.receiveSensorData)
		v1.GET("/logs", h.getLogs)
		v1.POST("/register", h.registerHardware)
		v1.POST("/test-connection", h.testConnection)

		// Dashboard-facing endpoints, scoped by the actor the auth
		// middleware resolved
		v1.GET("/items", h.listItems)
		v1.POST("/items", h.createItem)
		v1.GET("/items/alerts", h.itemAlerts)
		v1.GET("/items/:id", h.getItem)
		v1.PUT("/items/:id", h.updateItem)
		v1.DELETE("/items/:id", h.deleteItem)
		v1.POST("/items/:id/weight", h.updateItemWeight)

		v1.GET("/cabinets", h.listCabinets)
		v1.GET("/cabinets/:id", h.getCabinet)
		v1.GET("/cabinets/:id/compartments", h.getCompartments)
		v1.GET("/cabinets/:id/stats", h.getCabinetStats)
		v1.DELETE("/cabinets/:id", h.deactivateCabinet)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// receiveSensorData handles one telemetry batch from hardware. The raw body
// is passed through so the audit trail stores it verbatim.
func (h *Handler) receiveSensorData(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getLogs returns audit records for hardware debugging
func (h *Handler) getLogs(c *gin.Context) {
	var cabinetID *int64
	if raw := c.Query("cabinet_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabinet_id"})
			return
		}
		cabinetID = &id
	}

	var processed *bool
	if raw := c.Query("processed"); raw != "" {
		v := raw == "true"
		processed = &v
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	logs, err := h.ingest.Logs(c.Request.Context(), cabinetID, processed, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// registerHardware handles idempotent hardware self-registration
func (h *Handler) registerHardware(c *gin.Context) {
	var input service.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.cabinets.Register(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Status == "already_registered" {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// testConnection handles hardware liveness probes
func (h *Handler) testConnection(c *gin.Context) {
	var body struct {
		HardwareID string `json:"hardware_id"`
	}
	_ = c.ShouldBindJSON(&body)

	info, err := h.cabinets.TestConnection(c.Request.Context(), body.HardwareID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *Handler) listItems(c *gin.Context) {
	var cabinetID *int64
	if raw := c.Query("cabinet_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabinet_id"})
			return
		}
		cabinetID = &id
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	items, err := h.inventory.List(c.Request.Context(), actor, cabinetID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) createItem(c *gin.Context) {
	var input service.ItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	item, err := h.inventory.Create(c.Request.Context(), actor, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *Handler) getItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	item, err := h.inventory.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input service.ItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	item, err := h.inventory.Update(c.Request.Context(), actor, id, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	if err := h.inventory.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}

func (h *Handler) updateItemWeight(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Weight *float64 `json:"weight"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Weight == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'weight' is required and must be a number"})
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.inventory.UpdateWeight(c.Request.Context(), actor, id, *body.Weight)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) itemAlerts(c *gin.Context) {
	var cabinetID *int64
	if raw := c.Query("cabinet_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabinet_id"})
			return
		}
		cabinetID = &id
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	groups, err := h.inventory.Alerts(c.Request.Context(), actor, cabinetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

func (h *Handler) listCabinets(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	cabinets, err := h.cabinets.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cabinets)
}

func (h *Handler) getCabinet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	cabinet, err := h.cabinets.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cabinet)
}

func (h *Handler) getCompartments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	slots, err := h.cabinets.Compartments(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cabinet_id": id, "compartments": slots})
}

func (h *Handler) getCabinetStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stats, err := h.cabinets.Stats(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) deactivateCabinet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	if err := h.cabinets.Deactivate(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cabinet deactivated"})
}

// actorFrom builds the tenant capability from headers resolved by the
// upstream auth middleware. Without a company header the request is treated
// as a super admin; the middleware is trusted to have authenticated it. A
// malformed company header is rejected outright so middleware bugs surface
// as 400s instead of empty result sets.
func actorFrom(c *gin.Context) (tenant.Actor, bool) {
	companyHeader := c.GetHeader("X-Company-ID")
	if companyHeader == "" {
		return tenant.Actor{Role: tenant.RoleSuperAdmin}, true
	}

	companyID, err := strconv.ParseInt(companyHeader, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-Company-ID header"})
		return tenant.Actor{}, false
	}

	role := tenant.Role(c.GetHeader("X-User-Role"))
	if role != tenant.RoleSuperAdmin {
		role = tenant.RoleCompanyAdmin
	}
	return tenant.Actor{CompanyID: companyID, Role: role}, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps the service error taxonomy to HTTP statuses. Callers
// always get structured JSON, never a bare stack trace.
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.Is(err, service.ErrCabinetNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
