package types

import "github.com/google/uuid"

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Password  string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// IngredientEntry is one ingredient reference with its quantity in a recipe
// write payload.
type IngredientEntry struct {
	ID     uuid.UUID `json:"id"`
	Amount int       `json:"amount"`
}

// RecipeInput is the write shape for recipe create and update. Image carries
// a base64 data URI ("data:image/<ext>;base64,<payload>"); on update an empty
// image keeps the stored file.
type RecipeInput struct {
	Name        string            `json:"name" binding:"required,max=200"`
	Text        string            `json:"text" binding:"required"`
	CookingTime int               `json:"cooking_time"`
	Image       string            `json:"image"`
	Tags        []uuid.UUID       `json:"tags"`
	Ingredients []IngredientEntry `json:"ingredients"`
}
