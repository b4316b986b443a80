// internal/handlers/market.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/forkchain/recipe-market/internal/services"
	"github.com/forkchain/recipe-market/internal/utils"
)

type MarketHandler struct {
	settlementService *services.SettlementService
	tokenService      *services.TokenService
}

func NewMarketHandler(settlementService *services.SettlementService, tokenService *services.TokenService) *MarketHandler {
	return &MarketHandler{
		settlementService: settlementService,
		tokenService:      tokenService,
	}
}

// POST /market/buy
func (h *MarketHandler) Buy(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	sale, err := h.settlementService.Buy(buyerID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, sale)
}

// GET /market/history
func (h *MarketHandler) GetSaleHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	sales, total, err := h.settlementService.GetSaleHistory(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(sales, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /market/events
func (h *MarketHandler) GetEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	events, total, err := h.settlementService.GetEvents(c.Query("type"), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(events, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /wallet/balance/:token
func (h *MarketHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	token := c.Param("token")
	balance, err := h.tokenService.BalanceOf(userID, token)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"token":   token,
		"balance": balance,
	})
}

// POST /wallet/topup
func (h *MarketHandler) CreateTopUp(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	resp, err := h.tokenService.CreateTopUp(userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// POST /wallet/topup/confirm
func (h *MarketHandler) ConfirmTopUp(c *gin.Context) {
	var req struct {
		PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.tokenService.ConfirmTopUp(req.PaymentIntentID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"credited": true})
}
