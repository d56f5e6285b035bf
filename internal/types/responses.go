package types

import (
	"github.com/pageza/foodgram/backend/internal/models"
)

// UserResponse is the public profile of a user as seen by a viewer
type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// NewUserResponse projects u with the given subscription flag
func NewUserResponse(u *models.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// RegisterResponse echoes a newly created account
type RegisterResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RecipeIngredientResponse flattens a RecipeIngredient row
type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full read projection of a recipe
type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// ShortRecipe is the compact form used by favorites, the cart and
// subscriptions
type ShortRecipe struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// NewShortRecipe projects r into its compact form
func NewShortRecipe(r *models.Recipe) ShortRecipe {
	return ShortRecipe{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// SubscriptionResponse is a followed user with a preview of their recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipe `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

// ShoppingListItem is one aggregated line of the shopping list
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// Page is the pagination envelope
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
