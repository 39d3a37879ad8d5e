package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// RecipeService validates and atomically persists recipe creation and
// update, including the tag set and the per-ingredient amount rows.
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
	log    *logrus.Logger
}

func NewRecipeService(db *gorm.DB, images *ImageService, log *logrus.Logger) *RecipeService {
	return &RecipeService{db: db, images: images, log: log}
}

// resolveTags checks the tag id list (non-empty, no duplicates, all existing)
// and loads the rows.
func resolveTags(tx *gorm.DB, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, newValidationError("tags", "at least one tag is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, newValidationError("tags", "tags must be unique")
		}
		seen[id] = struct{}{}
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, newValidationError("tags", "unknown tag id")
	}
	return tags, nil
}

// resolveIngredients checks the ingredient entries (non-empty, no duplicate
// ingredient, amounts >= 1, all existing) and builds the amount rows.
func resolveIngredients(tx *gorm.DB, entries []types.IngredientEntry) ([]models.IngredientAmount, error) {
	if len(entries) == 0 {
		return nil, newValidationError("ingredients", "at least one ingredient is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.ID]; dup {
			return nil, newValidationError("ingredients", "ingredients must be unique")
		}
		seen[entry.ID] = struct{}{}
		if entry.Amount < 1 {
			return nil, newValidationError("ingredients", "amount must be at least 1")
		}
		ids = append(ids, entry.ID)
	}
	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(ids)) {
		return nil, newValidationError("ingredients", "unknown ingredient id")
	}
	amounts := make([]models.IngredientAmount, 0, len(entries))
	for _, entry := range entries {
		amounts = append(amounts, models.IngredientAmount{
			IngredientID: entry.ID,
			Amount:       entry.Amount,
		})
	}
	return amounts, nil
}

func validateScalars(in *types.RecipeInput) error {
	if in.CookingTime < 1 {
		return newValidationError("cooking_time", "must be at least 1")
	}
	return nil
}

// Create persists a new recipe, its tag set and its ingredient amounts as one
// all-or-nothing transaction. The image file is stored up front and removed
// again if the transaction rolls back.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in *types.RecipeInput) (*models.Recipe, error) {
	if err := validateScalars(in); err != nil {
		return nil, err
	}
	if in.Image == "" {
		return nil, newValidationError("image", "image is required")
	}

	imageURL, err := s.images.StoreRecipeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       imageURL,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}
		amounts, err := resolveIngredients(tx, in.Ingredients)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		for i := range amounts {
			amounts[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&amounts).Error; err != nil {
			if isUniqueViolation(err) {
				return newValidationError("ingredients", "ingredients must be unique")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if derr := s.images.DeleteStored(ctx, imageURL); derr != nil {
			s.log.WithError(derr).Warn("failed to remove orphaned recipe image")
		}
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// Update overwrites the scalar fields, replaces the whole tag set, and
// deletes + recreates every ingredient amount row, in one transaction. A new
// image replaces the stored file; the previous file is removed on commit.
func (s *RecipeService) Update(ctx context.Context, recipeID uuid.UUID, in *types.RecipeInput) (*models.Recipe, error) {
	if err := validateScalars(in); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	previousImage := recipe.Image
	newImage := ""
	if in.Image != "" {
		url, err := s.images.StoreRecipeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		newImage = url
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}
		amounts, err := resolveIngredients(tx, in.Ingredients)
		if err != nil {
			return err
		}

		recipe.Name = in.Name
		recipe.Text = in.Text
		recipe.CookingTime = in.CookingTime
		if newImage != "" {
			recipe.Image = newImage
		}
		if err := tx.Omit(clause.Associations).Save(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientAmount{}).Error; err != nil {
			return err
		}
		for i := range amounts {
			amounts[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&amounts).Error; err != nil {
			if isUniqueViolation(err) {
				return newValidationError("ingredients", "ingredients must be unique")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if newImage != "" {
			if derr := s.images.DeleteStored(ctx, newImage); derr != nil {
				s.log.WithError(derr).Warn("failed to remove orphaned recipe image")
			}
		}
		return nil, err
	}
	if newImage != "" && previousImage != "" {
		if derr := s.images.DeleteStored(ctx, previousImage); derr != nil {
			s.log.WithError(derr).Warn("failed to remove replaced recipe image")
		}
	}

	return s.Get(ctx, recipe.ID)
}

// Get loads a recipe with tags, ingredient amounts and author resolved.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &recipe, nil
}

// Delete removes a recipe; its ingredient amount rows cascade with it.
func (s *RecipeService) Delete(ctx context.Context, id uuid.UUID) error {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.IngredientAmount{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Recipe{}, "id = ?", id).Error; err != nil {
			return err
		}
		if recipe.Image != "" {
			if derr := s.images.DeleteStored(ctx, recipe.Image); derr != nil {
				s.log.WithError(derr).Warn("failed to remove deleted recipe image")
			}
		}
		return nil
	})
}

// ListFilters narrows the recipe listing. Favorited and InCart need Viewer.
type ListFilters struct {
	AuthorID  *uuid.UUID
	TagSlugs  []string
	Favorited *bool
	InCart    *bool
	Viewer    uuid.UUID
	Page      int
	Limit     int
}

// List returns a page of recipes, newest first, plus the unpaged total.
func (s *RecipeService) List(ctx context.Context, filters ListFilters) ([]models.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author")

	if filters.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filters.AuthorID)
	}
	if len(filters.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filters.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filters.Favorited != nil && filters.Viewer != uuid.Nil {
		sub := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", filters.Viewer)
		if *filters.Favorited {
			query = query.Where("recipes.id IN (?)", sub)
		} else {
			query = query.Where("recipes.id NOT IN (?)", sub)
		}
	}
	if filters.InCart != nil && filters.Viewer != uuid.Nil {
		sub := s.db.Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", filters.Viewer)
		if *filters.InCart {
			query = query.Where("recipes.id IN (?)", sub)
		} else {
			query = query.Where("recipes.id NOT IN (?)", sub)
		}
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = 10
	}

	var recipes []models.Recipe
	err := query.
		Order("recipes.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// FlagsFor resolves the viewer-dependent booleans for a batch of recipes
// with three IN queries. Anonymous viewers get all-false flags.
func (s *RecipeService) FlagsFor(ctx context.Context, recipes []models.Recipe, viewer uuid.UUID) (map[uuid.UUID]types.RecipeFlags, error) {
	flags := make(map[uuid.UUID]types.RecipeFlags, len(recipes))
	for _, r := range recipes {
		flags[r.ID] = types.RecipeFlags{}
	}
	if viewer == uuid.Nil || len(recipes) == 0 {
		return flags, nil
	}

	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	var favorites []models.Favorite
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", viewer, recipeIDs).
		Find(&favorites).Error; err != nil {
		return nil, err
	}
	var cartItems []models.ShoppingCartItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", viewer, recipeIDs).
		Find(&cartItems).Error; err != nil {
		return nil, err
	}
	var subscriptions []models.Subscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND following_id IN ?", viewer, authorIDs).
		Find(&subscriptions).Error; err != nil {
		return nil, err
	}

	favorited := make(map[uuid.UUID]bool, len(favorites))
	for _, f := range favorites {
		favorited[f.RecipeID] = true
	}
	inCart := make(map[uuid.UUID]bool, len(cartItems))
	for _, item := range cartItems {
		inCart[item.RecipeID] = true
	}
	subscribed := make(map[uuid.UUID]bool, len(subscriptions))
	for _, sub := range subscriptions {
		subscribed[sub.FollowingID] = true
	}

	for _, r := range recipes {
		flags[r.ID] = types.RecipeFlags{
			Favorited:  favorited[r.ID],
			InCart:     inCart[r.ID],
			Subscribed: subscribed[r.AuthorID],
		}
	}
	return flags, nil
}
