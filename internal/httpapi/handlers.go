package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"callhistory/internal/audit"
	"callhistory/internal/auth"
	"callhistory/internal/calllog"
	"callhistory/internal/permission"
	"callhistory/internal/rbac"
	"callhistory/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CallLog is the controller surface the handlers need.
type CallLog interface {
	Submit(ctx context.Context, req calllog.Request) <-chan calllog.Outcome
	State() calllog.Phase
	PendingID() (string, bool)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth        *auth.Manager
	CallLog     CallLog
	Permissions *permission.Broker
	Audit       *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Role     string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
// It is only routed outside production.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.DeviceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, device_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.DeviceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExpiresAt.UTC().Format(time.RFC3339),
	})
}

// --- Call log ---

type invokeRequest struct {
	Arguments map[string]string `json:"arguments"`
}

type invokeResponse struct {
	RequestID string                      `json:"request_id"`
	Entries   []calllog.EnrichedCallEntry `json:"entries"`
}

// Invoke runs a call log method ("get" or "query") and waits for its outcome.
// The wait ends with the HTTP request; the call log request itself keeps its
// place until it reaches an outcome.
func (h Handlers) Invoke(c *gin.Context) {
	if h.CallLog == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log not configured"})
		return
	}
	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	select {
	case o := <-h.CallLog.Submit(ctx, calllog.Request{Method: c.Param("method"), Args: req.Arguments}):
		if o.Err != nil {
			writeCallLogError(c, o.Err)
			return
		}
		entries := o.Entries
		if entries == nil {
			entries = []calllog.EnrichedCallEntry{}
		}
		c.JSON(http.StatusOK, invokeResponse{RequestID: o.RequestID, Entries: entries})
	case <-ctx.Done():
		logger.FromGin(c).Warn("calllog wait abandoned", "err", ctx.Err())
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "request still pending"})
	}
}

// State reports the controller phase and the in-flight request, if any.
func (h Handlers) State(c *gin.Context) {
	if h.CallLog == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log not configured"})
		return
	}
	resp := gin.H{"state": h.CallLog.State().String()}
	if id, ok := h.CallLog.PendingID(); ok {
		resp["request_id"] = id
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps call log error kinds to HTTP status codes.
func statusFor(kind calllog.Kind) int {
	switch kind {
	case calllog.KindAlreadyRunning:
		return http.StatusConflict
	case calllog.KindPermissionNotGranted:
		return http.StatusForbidden
	case calllog.KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeCallLogError(c *gin.Context, err error) {
	kind := calllog.KindOf(err)
	if kind == "" {
		kind = calllog.KindInternal
	}
	var msg string
	var ce *calllog.Error
	if errors.As(err, &ce) {
		msg = ce.Message
	} else {
		msg = err.Error()
	}
	body := gin.H{"code": string(kind)}
	if msg != "" {
		body["message"] = msg
	}
	c.AbortWithStatusJSON(statusFor(kind), body)
}

// --- Permissions ---

type resolveRequest struct {
	Granted *bool `json:"granted"`
}

// PendingPermissions lists prompts waiting for an answer.
// RBAC: owner or super_admin.
func (h Handlers) PendingPermissions(c *gin.Context) {
	if h.Permissions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "permissions not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompts": h.Permissions.Pending()})
}

// ResolvePermission answers one pending prompt.
// RBAC: owner or super_admin.
func (h Handlers) ResolvePermission(c *gin.Context) {
	if h.Permissions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "permissions not configured"})
		return
	}
	requestID := c.Param("request_id")
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Granted == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "granted required"})
		return
	}

	if err := h.Permissions.Resolve(requestID, *req.Granted); err != nil {
		if errors.Is(err, permission.ErrPromptNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
		return
	}

	if h.Audit != nil {
		ctx := c.Request.Context()
		id, _ := auth.IdentityFrom(ctx)
		if err := h.Audit.LogPermissionDecision(ctx, id.DeviceID, id.UserID, id.Role, c.ClientIP(), requestID, *req.Granted); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "granted": *req.Granted})
}

// --- Audit ---

// ListAudit returns recent audit events, newest first.
// RBAC: owner or super_admin.
func (h Handlers) ListAudit(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events, err := h.Audit.List(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Convenience middleware bundles.

func RequireDeviceAndAnyRole(deviceID string, roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireDevice(deviceID), rbac.RequireAnyRole(roles...)}
}
