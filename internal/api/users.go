package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

type UserHandler struct {
	db         *gorm.DB
	auth       *service.AuthService
	membership *service.MembershipService
}

func NewUserHandler(db *gorm.DB, auth *service.AuthService, membership *service.MembershipService) *UserHandler {
	return &UserHandler{db: db, auth: auth, membership: membership}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, validator middleware.TokenValidator) {
	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", middleware.OptionalAuth(validator), h.ListUsers)
		users.GET("/me", middleware.AuthMiddleware(validator), h.Me)
		users.GET("/subscriptions", middleware.AuthMiddleware(validator), h.Subscriptions)
		users.GET("/:id", middleware.OptionalAuth(validator), h.GetUser)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(validator), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(validator), h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewUserResponse(user, false))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, err := h.auth.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	subscribed, err := h.subscribedSet(c, users)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]types.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, types.NewUserResponse(&users[i], subscribed[users[i].ID]))
	}
	c.JSON(http.StatusOK, paginated(total, results))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewUserResponse(user, false))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	isSubscribed := false
	if viewer, ok := middleware.CurrentUserID(c); ok {
		isSubscribed, err = h.membership.Contains(c.Request.Context(), service.ListSubscriptions, viewer, id)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, types.NewUserResponse(user, isSubscribed))
}

// subscriptionEntry is a followed author with their recipes attached, the
// shape the subscriptions page renders from.
type subscriptionEntry struct {
	types.UserResponse
	Recipes      []types.RecipeShortResponse `json:"recipes"`
	RecipesCount int                         `json:"recipes_count"`
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	authors, err := h.membership.Subscriptions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	authorIDs := make([]uuid.UUID, 0, len(authors))
	for _, a := range authors {
		authorIDs = append(authorIDs, a.ID)
	}
	recipesByAuthor := make(map[uuid.UUID][]types.RecipeShortResponse, len(authors))
	if len(authorIDs) > 0 {
		var recipes []models.Recipe
		err := h.db.WithContext(c.Request.Context()).
			Where("author_id IN ?", authorIDs).
			Order("created_at DESC").
			Find(&recipes).Error
		if err != nil {
			respondError(c, err)
			return
		}
		for i := range recipes {
			r := &recipes[i]
			recipesByAuthor[r.AuthorID] = append(recipesByAuthor[r.AuthorID], types.NewRecipeShortResponse(r))
		}
	}

	results := make([]subscriptionEntry, 0, len(authors))
	for i := range authors {
		recipes := recipesByAuthor[authors[i].ID]
		if recipes == nil {
			recipes = []types.RecipeShortResponse{}
		}
		results = append(results, subscriptionEntry{
			UserResponse: types.NewUserResponse(&authors[i], true),
			Recipes:      recipes,
			RecipesCount: len(recipes),
		})
	}
	c.JSON(http.StatusOK, paginated(int64(len(results)), results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	target, err := h.auth.GetUser(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.membership.Add(c.Request.Context(), service.ListSubscriptions, userID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.NewUserResponse(target, true))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.membership.Remove(c.Request.Context(), service.ListSubscriptions, userID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// subscribedSet resolves in one query which of the listed users the viewer
// follows.
func (h *UserHandler) subscribedSet(c *gin.Context, users []models.User) (map[uuid.UUID]bool, error) {
	subscribed := make(map[uuid.UUID]bool, len(users))
	viewer, ok := middleware.CurrentUserID(c)
	if !ok || len(users) == 0 {
		return subscribed, nil
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	var rows []models.Subscription
	err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND following_id IN ?", viewer, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		subscribed[row.FollowingID] = true
	}
	return subscribed, nil
}
