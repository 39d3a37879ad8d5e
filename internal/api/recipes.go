package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes    *service.RecipeService
	membership *service.MembershipService
	shopping   *service.ShoppingListService
	auth       *service.AuthService
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	membership *service.MembershipService,
	shopping *service.ShoppingListService,
	auth *service.AuthService,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:    recipes,
		membership: membership,
		shopping:   shopping,
		auth:       auth,
	}
}

// RegisterRoutes wires the recipe surface. Reads are public with optional
// identity; writes require auth and, when a limiter is configured, count
// against the per-user write budget.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, validator middleware.TokenValidator, limiter *middleware.RateLimiter) {
	limited := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		limited = limiter.Middleware()
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuth(validator), h.ListRecipes)
		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(validator), h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.OptionalAuth(validator), h.GetRecipe)
		recipes.POST("", middleware.AuthMiddleware(validator), limited, h.CreateRecipe)
		recipes.PUT("/:id", middleware.AuthMiddleware(validator), limited, h.UpdateRecipe)
		recipes.PATCH("/:id", middleware.AuthMiddleware(validator), limited, h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.AuthMiddleware(validator), h.DeleteRecipe)
		recipes.POST("/:id/favorite", middleware.AuthMiddleware(validator), h.Favorite)
		recipes.DELETE("/:id/favorite", middleware.AuthMiddleware(validator), h.Unfavorite)
		recipes.POST("/:id/shopping_cart", middleware.AuthMiddleware(validator), h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthMiddleware(validator), h.RemoveFromShoppingCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filters := service.ListFilters{}
	filters.Page, filters.Limit = pageParams(c)
	if viewer, ok := middleware.CurrentUserID(c); ok {
		filters.Viewer = viewer
	}

	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filters.AuthorID = &id
	}
	filters.TagSlugs = c.QueryArray("tags")
	if raw := c.Query("is_favorited"); raw != "" {
		val := raw == "1" || raw == "true"
		filters.Favorited = &val
	}
	if raw := c.Query("is_in_shopping_cart"); raw != "" {
		val := raw == "1" || raw == "true"
		filters.InCart = &val
	}

	recipes, total, err := h.recipes.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	flags, err := h.recipes.FlagsFor(c.Request.Context(), recipes, filters.Viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]types.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		results = append(results, types.NewRecipeResponse(&recipes[i], flags[recipes[i].ID]))
	}
	c.JSON(http.StatusOK, paginated(total, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	viewer, _ := middleware.CurrentUserID(c)
	c.JSON(http.StatusOK, h.recipeResponse(c, recipe, viewer))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var input types.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	recipe, err := h.recipes.Create(c.Request.Context(), userID, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.recipeResponse(c, recipe, userID))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	var input types.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	existing, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.AuthorID != userID {
		respondError(c, service.ErrForbidden)
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.recipeResponse(c, recipe, userID))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	existing, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.AuthorID != userID {
		respondError(c, service.ErrForbidden)
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.addMembership(c, service.ListFavorites)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.removeMembership(c, service.ListFavorites)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addMembership(c, service.ListShoppingCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeMembership(c, service.ListShoppingCart)
}

// DownloadShoppingCart aggregates the caller's cart, persists the export
// under the media root, and streams it back as an attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	_, doc, err := h.shopping.WriteExport(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_cart.txt"`)
	c.Header("Content-Length", strconv.Itoa(len(doc)))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", doc)
}

func (h *RecipeHandler) addMembership(c *gin.Context, kind service.ListKind) {
	userID, _ := middleware.CurrentUserID(c)
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.membership.Add(c.Request.Context(), kind, userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.NewRecipeShortResponse(recipe))
}

func (h *RecipeHandler) removeMembership(c *gin.Context, kind service.ListKind) {
	userID, _ := middleware.CurrentUserID(c)
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := h.membership.Remove(c.Request.Context(), kind, userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) recipeResponse(c *gin.Context, recipe *models.Recipe, viewer uuid.UUID) types.RecipeResponse {
	flags, err := h.recipes.FlagsFor(c.Request.Context(), []models.Recipe{*recipe}, viewer)
	if err != nil {
		return types.NewRecipeResponse(recipe, types.RecipeFlags{})
	}
	return types.NewRecipeResponse(recipe, flags[recipe.ID])
}
