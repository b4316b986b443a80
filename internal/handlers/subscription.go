// internal/handlers/subscription.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkchain/recipe-market/internal/services"
	"github.com/forkchain/recipe-market/internal/utils"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// POST /subscriptions/purchase
func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.PurchaseSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	subscription, err := h.subscriptionService.Purchase(userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, subscription)
}

// GET /subscriptions/me
func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	subscription, err := h.subscriptionService.GetSubscription(userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, subscription)
}

// GET /subscriptions/price
func (h *SubscriptionHandler) GetPrice(c *gin.Context) {
	price, err := h.subscriptionService.CurrentPrice()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"price": price})
}

// GET /entitlements/:id
func (h *SubscriptionHandler) CheckEntitlement(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid identity", nil)
		return
	}

	entitled, err := h.subscriptionService.IsEntitled(nil, targetID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"identity": targetID,
		"entitled": entitled,
	})
}

// PUT /admin/subscriptions/:id/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid identity", nil)
		return
	}

	if err := h.subscriptionService.Cancel(adminID, targetID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cancelled": targetID})
}

// PUT /admin/subscriptions/:id/premium
func (h *SubscriptionHandler) SetPremium(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid identity", nil)
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.subscriptionService.SetPremium(targetID, req.Enabled); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"identity": targetID,
		"premium":  req.Enabled,
	})
}

// PUT /admin/subscriptions/price
func (h *SubscriptionHandler) SetPrice(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Price int64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.subscriptionService.SetPrice(adminID, req.Price); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"price": req.Price})
}

// POST /admin/subscriptions/withdraw/:token
func (h *SubscriptionHandler) Withdraw(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	token := c.Param("token")
	amount, err := h.subscriptionService.Withdraw(adminID, token)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"token":  token,
		"amount": strconv.FormatInt(amount, 10),
	})
}
