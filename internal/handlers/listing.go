// internal/handlers/listing.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkchain/recipe-market/internal/services"
	"github.com/forkchain/recipe-market/internal/utils"
)

type ListingHandler struct {
	listingService *services.ListingService
}

func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
	}
}

// POST /listings
func (h *ListingHandler) List(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.ListRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	listing, err := h.listingService.List(sellerID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, listing)
}

// POST /listings/batch
func (h *ListingHandler) BatchList(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.BatchListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	outcomes, err := h.listingService.BatchList(sellerID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"results": outcomes})
}

// DELETE /listings/:recipe_id
func (h *ListingHandler) Cancel(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	recipeID, err := uuid.Parse(c.Param("recipe_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipe ID", nil)
		return
	}

	if err := h.listingService.Cancel(sellerID, recipeID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cancelled": recipeID})
}

// PUT /listings/:recipe_id
func (h *ListingHandler) Update(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	recipeID, err := uuid.Parse(c.Param("recipe_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipe ID", nil)
		return
	}

	var req services.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	listing, err := h.listingService.Update(sellerID, recipeID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// GET /listings/:recipe_id
func (h *ListingHandler) GetListing(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("recipe_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipe ID", nil)
		return
	}

	listing, err := h.listingService.GetListing(recipeID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// GET /listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ListingSearchParams{
		PaginationParams: params,
	}

	if sellerIDStr := c.Query("seller_id"); sellerIDStr != "" {
		if sellerID, err := uuid.Parse(sellerIDStr); err == nil {
			searchParams.SellerID = &sellerID
		}
	}

	if token := c.Query("token"); token != "" {
		searchParams.Token = token
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseInt(priceMinStr, 10, 64); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}

	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseInt(priceMaxStr, 10, 64); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}

	listings, total, err := h.listingService.SearchListings(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(listings, total, params)
	utils.PaginatedResponse(c, result)
}
