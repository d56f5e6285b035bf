package api

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/types"
)

var errNotFound = errs.NewNotFound("Not found.")

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// handle registers handlers for path with and without a trailing slash
func handle(g *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	path = strings.TrimSuffix(path, "/")
	g.Handle(method, path, handlers...)
	g.Handle(method, path+"/", handlers...)
}

// methodNotAllowed answers 405 for an explicitly disabled method
func methodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"detail": `Method "` + c.Request.Method + `" not allowed.`})
}

// bindJSON decodes the request body into obj, reporting problems as
// field-keyed validation errors
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return toValidationError(err)
	}
	return nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		verr := &errs.ValidationError{}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
		return verr
	}
	return errs.NewValidation("non_field_errors", "Invalid request body: "+err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "email":
		return "Enter a valid email address."
	default:
		return "Invalid value."
	}
}

// pathID parses a numeric path parameter. Anything else cannot name an
// object and is reported as not found.
func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errNotFound
	}
	return uint(id), nil
}

// pagination reads page and limit from the query string
func pagination(c *gin.Context) (types.Pagination, error) {
	p := types.Pagination{Page: 1, Limit: types.DefaultPageSize}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, errs.NewNotFound("Invalid page.")
		}
		p.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			p.Limit = limit
		}
	}
	return p, nil
}

// recipesLimit parses recipes_limit. Anything but a positive integer means
// no limit.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// newPage wraps one page of results in the pagination envelope
func newPage[T any](c *gin.Context, results []T, count int64, p types.Pagination) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: count, Results: results}

	if int64(p.Page*p.Size()) < count {
		next := pageURL(c, p.Page+1)
		page.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(c, p.Page-1)
		page.Previous = &prev
	}
	return page
}

func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := c.Request.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
