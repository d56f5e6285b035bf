package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const shoppingListFilename = "shopping_list.txt"

// RecipeHandler serves recipes and the favorite and shopping cart relations
type RecipeHandler struct {
	auth      *service.AuthService
	recipes   *service.RecipeService
	favorites *service.FavoriteService
	cart      *service.CartService
	limiter   *middleware.RateLimiter
}

// NewRecipeHandler creates a recipe handler. limiter may be nil.
func NewRecipeHandler(
	auth *service.AuthService,
	recipes *service.RecipeService,
	favorites *service.FavoriteService,
	cart *service.CartService,
	limiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{auth: auth, recipes: recipes, favorites: favorites, cart: cart, limiter: limiter}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	requireAuth := middleware.RequireAuth(h.auth)
	optionalAuth := middleware.OptionalAuth(h.auth)

	create := []gin.HandlerFunc{requireAuth}
	if h.limiter != nil {
		create = append(create, h.limiter.Middleware())
	}
	create = append(create, h.Create)

	handle(recipes, http.MethodGet, "", optionalAuth, h.List)
	handle(recipes, http.MethodPost, "", create...)
	handle(recipes, http.MethodGet, "/download_shopping_cart", requireAuth, h.DownloadShoppingCart)

	handle(recipes, http.MethodPut, "/:id", methodNotAllowed)
	handle(recipes, http.MethodGet, "/:id", optionalAuth, h.Get)
	handle(recipes, http.MethodPatch, "/:id", requireAuth, h.Update)
	handle(recipes, http.MethodDelete, "/:id", requireAuth, h.Delete)

	handle(recipes, http.MethodPost, "/:id/favorite", requireAuth, h.relate(h.favorites.Add))
	handle(recipes, http.MethodDelete, "/:id/favorite", requireAuth, h.unrelate(h.favorites.Remove))
	handle(recipes, http.MethodPost, "/:id/shopping_cart", requireAuth, h.relate(h.cart.Add))
	handle(recipes, http.MethodDelete, "/:id/shopping_cart", requireAuth, h.unrelate(h.cart.Remove))
}

func (h *RecipeHandler) List(c *gin.Context) {
	filter, err := recipeFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := pagination(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	recipes, count, err := h.recipes.List(c.Request.Context(), filter, page, middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, recipes, count, page))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	req, err := bindRecipe(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	req, err := bindRecipe(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, req, middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), id, middleware.CurrentUser(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated ingredients of the cart as text
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.recipes.ShoppingList(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", service.FormatShoppingList(items))
}

type (
	addRelation    func(ctx context.Context, user *models.User, recipeID uint) (*types.ShortRecipe, error)
	removeRelation func(ctx context.Context, user *models.User, recipeID uint) error
)

// relate adapts a relation service Add into a handler answering 201
func (h *RecipeHandler) relate(add addRelation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}

		recipe, err := add(c.Request.Context(), middleware.CurrentUser(c), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, recipe)
	}
}

func (h *RecipeHandler) unrelate(remove removeRelation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}

		if err := remove(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// recipeFilter reads author, tags, is_favorited and is_in_shopping_cart
func recipeFilter(c *gin.Context) (types.RecipeFilter, error) {
	filter := types.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      c.Query("is_favorited") == "1",
		IsInShoppingCart: c.Query("is_in_shopping_cart") == "1",
	}
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, errs.NewValidation("author", "Enter a number.")
		}
		filter.AuthorID = uint(id)
	}
	return filter, nil
}

// bindRecipe reads a recipe payload from a JSON body or a multipart form
func bindRecipe(c *gin.Context) (*types.RecipeRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return bindRecipeForm(c)
	}

	var req types.RecipeRequest
	if err := bindJSON(c, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// bindRecipeForm reads the multipart form variant. The image is either an
// uploaded file or a data URI field, tags are repeated fields and
// ingredients is a JSON encoded list.
func bindRecipeForm(c *gin.Context) (*types.RecipeRequest, error) {
	if _, err := c.MultipartForm(); err != nil {
		return nil, errs.NewValidation("non_field_errors", "Invalid multipart form: "+err.Error())
	}

	verr := &errs.ValidationError{}
	req := &types.RecipeRequest{
		Name:  c.PostForm("name"),
		Text:  c.PostForm("text"),
		Image: c.PostForm("image"),
	}

	if raw := c.PostForm("cooking_time"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("cooking_time", "A valid integer is required.")
		}
		req.CookingTime = n
	}

	for _, raw := range c.PostFormArray("tags") {
		if n, err := strconv.Atoi(raw); err == nil {
			req.Tags = append(req.Tags, float64(n))
		} else {
			req.Tags = append(req.Tags, raw)
		}
	}

	if raw := c.PostForm("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			verr.Add("ingredients", "Expected a JSON list of {id, amount} objects.")
		}
	}

	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, service.MaxImageSize+1))
		if err != nil {
			return nil, err
		}
		req.ImageData = data
	}

	if !verr.Empty() {
		return nil, verr
	}
	return req, nil
}
