// internal/handlers/recipe.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkchain/recipe-market/internal/services"
	"github.com/forkchain/recipe-market/internal/utils"
)

type RecipeHandler struct {
	recipeService  *services.RecipeService
	storageService *services.StorageService
}

func NewRecipeHandler(recipeService *services.RecipeService, storageService *services.StorageService) *RecipeHandler {
	return &RecipeHandler{
		recipeService:  recipeService,
		storageService: storageService,
	}
}

// POST /recipes
func (h *RecipeHandler) MintRecipes(c *gin.Context) {
	creatorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.MintRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	recipes, err := h.recipeService.Mint(creatorID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// GET /recipes
func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.RecipeSearchParams{
		PaginationParams: params,
	}

	if ownerIDStr := c.Query("owner_id"); ownerIDStr != "" {
		if ownerID, err := uuid.Parse(ownerIDStr); err == nil {
			searchParams.OwnerID = &ownerID
		}
	}

	if creatorIDStr := c.Query("creator_id"); creatorIDStr != "" {
		if creatorID, err := uuid.Parse(creatorIDStr); err == nil {
			searchParams.CreatorID = &creatorID
		}
	}

	recipes, total, err := h.recipeService.SearchRecipes(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(recipes, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /recipes/:id
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipe ID", nil)
		return
	}

	recipe, err := h.recipeService.GetRecipe(recipeID)
	if err != nil {
		utils.NotFoundResponse(c, "recipe")
		return
	}

	utils.SuccessResponse(c, recipe)
}

// PUT /recipes/:id/approve
func (h *RecipeHandler) Approve(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipe ID", nil)
		return
	}

	var req struct {
		Approved bool `json:"approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.recipeService.Approve(ownerID, recipeID, req.Approved); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"recipe_id": recipeID,
		"approved":  req.Approved,
	})
}

// PUT /recipes/approve-all
func (h *RecipeHandler) SetApprovalForAll(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Approved bool `json:"approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.recipeService.SetApprovalForAll(ownerID, req.Approved); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"approved": req.Approved})
}

// POST /recipes/:id/images
func (h *RecipeHandler) UploadImages(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid recipe ID", nil)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No images provided", nil)
		return
	}

	options := h.storageService.GetDefaultUploadOptions("recipes")
	urls := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Failed to open uploaded file", err.Error())
			return
		}

		result, err := h.storageService.UploadFile(file, header, options)
		file.Close()
		if err != nil {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		urls = append(urls, result.URL)
	}

	if err := h.recipeService.AttachImages(ownerID, recipeID, urls); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"images": urls})
}
