package types

// RegisterRequest is the body of POST /api/users/
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,max=150"`
}

// LoginRequest is the body of POST /api/auth/token/login/
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetPasswordRequest is the body of POST /api/users/set_password/
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,max=150"`
	CurrentPassword string `json:"current_password" binding:"required,max=150"`
}

// IngredientAmount references an ingredient with a quantity
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeRequest is the write payload for recipes. Tags stay untyped so
// that non-integer ids can be reported by value type. Image is a data URI;
// multipart uploads set ImageData instead.
type RecipeRequest struct {
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	Image       string             `json:"image"`
	Tags        []any              `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`

	ImageData []byte `json:"-"`
}

// HasImage reports whether the payload carries a new image
func (r *RecipeRequest) HasImage() bool {
	return r.Image != "" || len(r.ImageData) > 0
}

// RecipeFilter narrows the recipe list
type RecipeFilter struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// Pagination selects one page of a list. Page is 1-based.
type Pagination struct {
	Page  int
	Limit int
}

// DefaultPageSize is used when the client does not pass limit
const DefaultPageSize = 6

// Offset returns the number of rows to skip
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size()
}

// Size returns the effective page size
func (p Pagination) Size() int {
	if p.Limit < 1 {
		return DefaultPageSize
	}
	return p.Limit
}
