package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	{
		expenses.POST("", middleware.RequireRole(model.RoleEmployee, model.RoleManager, model.RoleHR), h.Submit)
		expenses.GET("/my", middleware.RequireRole(model.RoleEmployee, model.RoleManager, model.RoleHR), h.MyRequests)
		expenses.GET("/manager/pending", middleware.RequireRole(model.RoleManager), h.ManagerPending)
		expenses.PUT("/:id/decision", middleware.RequireRole(model.RoleManager), h.Decide)
		expenses.GET("", middleware.RequireRole(model.RoleHR), h.AllRequests)
		expenses.GET("/hr/pending", middleware.RequireRole(model.RoleHR), h.HRPending)
		expenses.PUT("/:id/hr-decision", middleware.RequireRole(model.RoleHR), h.HRDecide)
		expenses.GET("/analytics", middleware.RequireRole(model.RoleHR), h.Analytics)

		// Token-guarded email-link channel, same as leaves
		expenses.GET("/:id/approve", h.DecideByToken)
	}
}

func (h *ExpenseHandler) Submit(c *gin.Context) {
	employeeID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.expenseService.Submit(c.Request.Context(), employeeID, req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

func (h *ExpenseHandler) MyRequests(c *gin.Context) {
	employeeID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	requests, total, err := h.expenseService.MyRequests(c.Request.Context(), employeeID, params.Page, params.Limit)
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

func (h *ExpenseHandler) ManagerPending(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	requests, total, err := h.expenseService.PendingForManager(c.Request.Context(), managerID, params.Page, params.Limit)
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

// AllRequests is the HR-wide listing across every employee
func (h *ExpenseHandler) AllRequests(c *gin.Context) {
	params := pagination.Parse(c)
	requests, total, err := h.expenseService.AllRequests(c.Request.Context(), params.Page, params.Limit)
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

func (h *ExpenseHandler) HRPending(c *gin.Context) {
	params := pagination.Parse(c)
	requests, total, err := h.expenseService.PendingForHR(c.Request.Context(), params.Page, params.Limit)
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

func (h *ExpenseHandler) Decide(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	status, err := h.expenseService.Decide(c.Request.Context(), c.Param("id"), managerID, req.Action, req.Notes)
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

func (h *ExpenseHandler) DecideByToken(c *gin.Context) {
	action := c.Query("action")
	token := c.Query("token")
	if action == "" || token == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "missing action or token parameter"))
		return
	}

	status, err := h.expenseService.DecideByToken(c.Request.Context(), c.Param("id"), token, action)
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

func (h *ExpenseHandler) HRDecide(c *gin.Context) {
	hrID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.expenseService.HRDecide(c.Request.Context(), c.Param("id"), hrID, req.Action, req.Notes)
	if err != nil {
		code := statusForError(err)
		c.JSON(code, response.Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ExpenseHandler) Analytics(c *gin.Context) {
	stats, err := h.expenseService.Analytics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
