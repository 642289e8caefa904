package handlers

import (
	"errors"
	"net/http"

	"smart_switch/internal/supervisor"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusCommanded = "commanded"
	statusToggled   = "toggled"
	statusReset     = "reset_requested"

	errSetCommand      = "failed to apply command"
	errToggleSwitch    = "failed to toggle switch"
	errResetSwitch     = "failed to reset switch"
	errGetStatus       = "failed to load status"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include current switch status if available (best-effort).
func (h *Handler) respondWithStatus(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetStatus(ctx)
	if err == nil {
		resp["switch"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for the power command.
type commandRequest struct {
	Level *int `json:"level" binding:"required"` // 0..max_level; 0 = off
}

// SetCommandRequest is an exported model for Swagger docs of the command payload.
type SetCommandRequest struct {
	// Desired output level: 0 = off, max_level = full on, in between = dimming
	Level int `json:"level" example:"60"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Command output level
// @Description  0 turns the output off; max_level is full on; intermediate values dim when the zero-cross reference is valid
// @Tags         switch
// @Accept       json
// @Produce      json
// @Param        body  body   SetCommandRequest  true  "Command payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/switch/command [post]
// @Security     BearerAuth
func (h *Handler) setCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Switch.SetLevel(ctx, *req.Level); err != nil {
		if errors.Is(err, supervisor.ErrLevelOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSetCommand, "switch_command_failed", err, "level", *req.Level)
		return
	}
	h.respondWithStatus(c, statusCommanded, gin.H{"level": *req.Level})
}

// @Summary      Toggle output
// @Description  Flips between off and full on, same as the physical button
// @Tags         switch
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/switch/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleSwitch(c *gin.Context) {
	ctx := c.Request.Context()
	level, err := h.services.Switch.Toggle(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errToggleSwitch, "switch_toggle_failed", err)
		return
	}
	h.respondWithStatus(c, statusToggled, gin.H{"level": level})
}

// @Summary      Reset latched fault
// @Description  Clears FAULT_THRESHOLD; all other faults self-clear
// @Tags         switch
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/switch/reset [post]
// @Security     BearerAuth
func (h *Handler) resetSwitch(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Switch.Reset(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errResetSwitch, "switch_reset_failed", err)
		return
	}
	h.respondWithStatus(c, statusReset, gin.H{})
}

// @Summary      Get switch status
// @Tags         switch
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/switch/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetStatus(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "switch_get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
