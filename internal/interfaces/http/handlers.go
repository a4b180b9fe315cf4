package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ttakeda/budgetbot/internal/application/service"
	"github.com/ttakeda/budgetbot/internal/domain/entity"
	"github.com/ttakeda/budgetbot/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	carts     *service.CartService
	approvals *service.ApprovalService
	budgets   *service.BudgetService
	access    *service.AccessService
	channels  *service.ChannelService
	audit     *service.AuditService
	exporter  *export.Exporter
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	carts *service.CartService,
	approvals *service.ApprovalService,
	budgets *service.BudgetService,
	access *service.AccessService,
	channels *service.ChannelService,
	audit *service.AuditService,
	exporter *export.Exporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		carts:     carts,
		approvals: approvals,
		budgets:   budgets,
		access:    access,
		channels:  channels,
		audit:     audit,
		exporter:  exporter,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"service":   "budgetbot",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// AddItemRequest represents the body of POST /carts/:requester/items
type AddItemRequest struct {
	Name      string `json:"name"`
	Link      string `json:"link"`
	UnitPrice int64  `json:"unit_price"`
	// Quantity defaults to 1 when omitted; an explicit zero is invalid
	Quantity *int64 `json:"quantity"`
}

// AddCartItem handles POST /api/v1/scopes/:scope/carts/:requester/items
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	draft, err := h.carts.AddItem(c.Request.Context(),
		c.Param("scope"), c.Param("requester"),
		req.Name, req.Link, req.UnitPrice, quantity)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// RemoveCartItem handles DELETE /api/v1/scopes/:scope/carts/:requester/items/:position
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		h.badRequest(c, "invalid item position")
		return
	}

	draft, err := h.carts.RemoveItem(c.Request.Context(), c.Param("scope"), c.Param("requester"), position)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// SelectBudgetRequest represents the body of PUT /carts/:requester/budget
type SelectBudgetRequest struct {
	Budget string `json:"budget"`
}

// SelectCartBudget handles PUT /api/v1/scopes/:scope/carts/:requester/budget
func (h *Handlers) SelectCartBudget(c *gin.Context) {
	var req SelectBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Budget == "" {
		h.badRequest(c, "budget name is required")
		return
	}

	draft, err := h.carts.SelectBudget(c.Request.Context(), c.Param("scope"), c.Param("requester"), req.Budget)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// GetCart handles GET /api/v1/scopes/:scope/carts/:requester
func (h *Handlers) GetCart(c *gin.Context) {
	draft, err := h.carts.Get(c.Request.Context(), c.Param("scope"), c.Param("requester"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: draft})
}

// SubmitCart handles POST /api/v1/scopes/:scope/carts/:requester/submit
func (h *Handlers) SubmitCart(c *gin.Context) {
	req, err := h.carts.Submit(c.Request.Context(), c.Param("scope"), c.Param("requester"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// CancelCart handles DELETE /api/v1/scopes/:scope/carts/:requester
func (h *Handlers) CancelCart(c *gin.Context) {
	if err := h.carts.Cancel(c.Request.Context(), c.Param("scope"), c.Param("requester")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ListRequests handles GET /api/v1/scopes/:scope/requests?requester=
func (h *Handlers) ListRequests(c *gin.Context) {
	requester := c.Query("requester")
	if requester == "" {
		h.badRequest(c, "requester query parameter is required")
		return
	}

	requests, err := h.approvals.ListRequests(c.Request.Context(), c.Param("scope"), requester)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/v1/scopes/:scope/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid request ID")
		return
	}

	req, err := h.approvals.GetRequest(c.Request.Context(), c.Param("scope"), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// DecisionRequest represents the body of POST /requests/:id/decision
type DecisionRequest struct {
	// Kind is APPROVE_ALL, REJECT_ALL or PARTIAL
	Kind              string   `json:"kind"`
	ApprovedPositions []int    `json:"approved_positions"`
	Approver          string   `json:"approver"`
	ApproverRoles     []string `json:"approver_roles"`
}

// DecideRequest handles POST /api/v1/scopes/:scope/requests/:id/decision
func (h *Handlers) DecideRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid request ID")
		return
	}

	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	if body.Approver == "" {
		h.badRequest(c, "approver is required")
		return
	}

	req, err := h.approvals.Decide(c.Request.Context(), c.Param("scope"), id, service.DecisionInput{
		Kind:              service.DecisionKind(body.Kind),
		ApprovedPositions: body.ApprovedPositions,
		Approver:          body.Approver,
		ApproverRoles:     body.ApproverRoles,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ListBudgets handles GET /api/v1/scopes/:scope/budgets
func (h *Handlers) ListBudgets(c *gin.Context) {
	budgets, err := h.budgets.List(c.Request.Context(), c.Param("scope"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: budgets})
}

// GetBudgetBalance handles GET /api/v1/scopes/:scope/budgets/:name
func (h *Handlers) GetBudgetBalance(c *gin.Context) {
	balance, err := h.budgets.Balance(c.Request.Context(), c.Param("scope"), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"name":    c.Param("name"),
		"balance": balance,
	}})
}

// CreditRequest represents the body of POST /budgets/:name/credit
type CreditRequest struct {
	Amount int64 `json:"amount"`
}

// CreditBudget handles POST /api/v1/scopes/:scope/budgets/:name/credit
func (h *Handlers) CreditBudget(c *gin.Context) {
	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	balance, err := h.budgets.Credit(c.Request.Context(), c.Param("scope"), c.Param("name"), req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"name":    c.Param("name"),
		"balance": balance,
	}})
}

// GrantRoleRequest represents the body of POST /roles
type GrantRoleRequest struct {
	RoleID    string `json:"role_id"`
	GrantedBy string `json:"granted_by"`
}

// GrantRole handles POST /api/v1/scopes/:scope/roles
func (h *Handlers) GrantRole(c *gin.Context) {
	var req GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoleID == "" {
		h.badRequest(c, "role_id is required")
		return
	}

	if err := h.access.GrantRole(c.Request.Context(), c.Param("scope"), req.RoleID, req.GrantedBy); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// RevokeRole handles DELETE /api/v1/scopes/:scope/roles/:role
func (h *Handlers) RevokeRole(c *gin.Context) {
	if err := h.access.RevokeRole(c.Request.Context(), c.Param("scope"), c.Param("role")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ListRoles handles GET /api/v1/scopes/:scope/roles
func (h *Handlers) ListRoles(c *gin.Context) {
	roles, err := h.access.ListRoles(c.Request.Context(), c.Param("scope"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roles})
}

// RegisterChannelRequest represents the body of POST /channels
type RegisterChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

// RegisterChannel handles POST /api/v1/scopes/:scope/channels
func (h *Handlers) RegisterChannel(c *gin.Context) {
	var req RegisterChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChannelID == "" {
		h.badRequest(c, "channel_id is required")
		return
	}

	if err := h.channels.Register(c.Request.Context(), c.Param("scope"), req.ChannelID); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// UnregisterChannel handles DELETE /api/v1/scopes/:scope/channels/:channel
func (h *Handlers) UnregisterChannel(c *gin.Context) {
	if err := h.channels.Unregister(c.Request.Context(), c.Param("scope"), c.Param("channel")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ListChannels handles GET /api/v1/scopes/:scope/channels
func (h *Handlers) ListChannels(c *gin.Context) {
	channels, err := h.channels.List(c.Request.Context(), c.Param("scope"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: channels})
}

// QueryAudit handles GET /api/v1/scopes/:scope/audit?requester=
func (h *Handlers) QueryAudit(c *gin.Context) {
	records, err := h.audit.Query(c.Request.Context(), c.Param("scope"), c.Query("requester"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ExportAudit handles GET /api/v1/scopes/:scope/audit/export?format=csv|xlsx
func (h *Handlers) ExportAudit(c *gin.Context) {
	records, err := h.audit.Query(c.Request.Context(), c.Param("scope"), c.Query("requester"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		if err := h.exporter.WriteCSV(&buf, records); err != nil {
			h.fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="audit.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "xlsx":
		if err := h.exporter.WriteXLSX(&buf, records); err != nil {
			h.fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="audit.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		h.badRequest(c, "format must be csv or xlsx")
	}
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// fail maps domain errors to HTTP status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrEmptyCart),
		errors.Is(err, entity.ErrNoBudgetSelected):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, entity.ErrCartNotFound),
		errors.Is(err, entity.ErrRequestNotFound),
		errors.Is(err, entity.ErrBudgetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrAlreadyDecided):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrInsufficientBudget):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrScopeNotConfigured):
		status = http.StatusPreconditionFailed
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
