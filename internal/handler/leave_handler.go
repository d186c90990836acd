package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LeaveHandler struct {
	leaveService service.LeaveService
}

func NewLeaveHandler(leaveService service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveService: leaveService}
}

func (h *LeaveHandler) RegisterRoutes(router *gin.RouterGroup) {
	leaves := router.Group("/api/leaves")
	{
		leaves.POST("", middleware.RequireRole(model.RoleEmployee, model.RoleManager, model.RoleHR), h.Submit)
		leaves.GET("/my", middleware.RequireRole(model.RoleEmployee, model.RoleManager, model.RoleHR), h.MyRequests)
		leaves.GET("/balance", middleware.RequireRole(model.RoleEmployee, model.RoleManager, model.RoleHR), h.Balance)
		leaves.GET("/manager/pending", middleware.RequireRole(model.RoleManager), h.ManagerPending)
		leaves.PUT("/:id/decision", middleware.RequireRole(model.RoleManager), h.Decide)
		leaves.GET("", middleware.RequireRole(model.RoleHR), h.AllRequests)
		leaves.GET("/balance/:employeeId", middleware.RequireRole(model.RoleHR), h.BalanceFor)
		leaves.GET("/hr/pending", middleware.RequireRole(model.RoleHR), h.HRPending)
		leaves.PUT("/:id/hr-decision", middleware.RequireRole(model.RoleHR), h.HRDecide)

		// Email-link decision channel: no authentication, guarded by the
		// opaque approval token in the query string.
		leaves.GET("/:id/approve", h.DecideByToken)
	}
}

// Submit creates a leave request and kicks off the approval workflow
func (h *LeaveHandler) Submit(c *gin.Context) {
	employeeID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.leaveService.Submit(c.Request.Context(), employeeID, req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

func (h *LeaveHandler) MyRequests(c *gin.Context) {
	employeeID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	requests, total, err := h.leaveService.MyRequests(c.Request.Context(), employeeID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

func (h *LeaveHandler) ManagerPending(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	requests, total, err := h.leaveService.PendingForManager(c.Request.Context(), managerID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

func (h *LeaveHandler) HRPending(c *gin.Context) {
	params := pagination.Parse(c)
	requests, total, err := h.leaveService.PendingForHR(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// Decide records an authenticated manager decision on their slot
func (h *LeaveHandler) Decide(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	status, err := h.leaveService.Decide(c.Request.Context(), c.Param("id"), managerID, req.Action, req.Notes)
	if err != nil {
		code := statusForError(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"status":         status,
		"status_display": status.Display(),
	}))
}

// DecideByToken handles the unauthenticated email-link decision
func (h *LeaveHandler) DecideByToken(c *gin.Context) {
	action := c.Query("action")
	token := c.Query("token")
	if action == "" || token == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "missing action or token parameter"))
		return
	}

	status, err := h.leaveService.DecideByToken(c.Request.Context(), c.Param("id"), token, action)
	if err != nil {
		code := statusForError(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"status":         status,
		"status_display": status.Display(),
	}))
}

// HRDecide records the final HR decision; on approval the settlement engine
// posts balances and attendance in the same transaction.
func (h *LeaveHandler) HRDecide(c *gin.Context) {
	hrID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.leaveService.HRDecide(c.Request.Context(), c.Param("id"), hrID, req.Action, req.Notes)
	if err != nil {
		code := statusForError(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AllRequests is the HR-wide listing across every employee
func (h *LeaveHandler) AllRequests(c *gin.Context) {
	params := pagination.Parse(c)
	requests, total, err := h.leaveService.AllRequests(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// BalanceFor lets HR inspect any employee's ledgers
func (h *LeaveHandler) BalanceFor(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employeeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid employee id"))
		return
	}

	summary, err := h.leaveService.Balance(c.Request.Context(), employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

func (h *LeaveHandler) Balance(c *gin.Context) {
	employeeID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.leaveService.Balance(c.Request.Context(), employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// currentUserID extracts the authenticated user's id set by the JWT
// middleware. Writes the error response itself when absent or malformed.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "missing authentication"))
		return uuid.Nil, false
	}
	str, _ := raw.(string)
	id, err := uuid.Parse(str)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid user id in token"))
		return uuid.Nil, false
	}
	return id, true
}
