package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

const shoppingListFilename = "shopping_cart.txt"

// ShoppingListLine is one aggregated ingredient in the export.
type ShoppingListLine struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// ShoppingListService joins a user's cart recipes to their ingredient amount
// rows, sums per ingredient, and renders the downloadable document.
type ShoppingListService struct {
	db        *gorm.DB
	mediaRoot string
}

func NewShoppingListService(db *gorm.DB, mediaRoot string) *ShoppingListService {
	return &ShoppingListService{db: db, mediaRoot: mediaRoot}
}

// Aggregate sums ingredient amounts across every recipe in the user's cart,
// one line per distinct ingredient, ordered by ingredient name so a given
// cart snapshot always renders the same document.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]ShoppingListLine, error) {
	cart := s.db.Model(&models.ShoppingCartItem{}).
		Select("recipe_id").
		Where("user_id = ?", userID)

	var lines []ShoppingListLine
	err := s.db.WithContext(ctx).Model(&models.IngredientAmount{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_amounts.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Where("ingredient_amounts.recipe_id IN (?)", cart).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Render produces the plain-text document: a fixed header followed by one
// line per ingredient. An empty cart yields the header alone.
func (s *ShoppingListService) Render(lines []ShoppingListLine) []byte {
	var buf bytes.Buffer
	buf.WriteString("Foodgram\n")
	buf.WriteString("_______________\n")
	buf.WriteString("Shopping list:\n")
	for _, line := range lines {
		fmt.Fprintf(&buf, "  - %s — %d %s\n", line.Name, line.Total, line.MeasurementUnit)
	}
	return buf.Bytes()
}

// WriteExport builds the document and writes it under
// <media>/shopping_carts/<username>/shopping_cart.txt, creating the
// directory if absent. Returns the file path and the document bytes.
func (s *ShoppingListService) WriteExport(ctx context.Context, user *models.User) (string, []byte, error) {
	lines, err := s.Aggregate(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	doc := s.Render(lines)

	dir := filepath.Join(s.mediaRoot, "shopping_carts", user.Username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, shoppingListFilename)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", nil, err
	}
	return path, doc, nil
}
