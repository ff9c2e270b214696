package handlers

import (
	"net/http"

	"github.com/anonto42/vidtube/backend/internal/query"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// paramID parses the path parameter name as an ObjectID.
func paramID(c echo.Context, name string) (primitive.ObjectID, error) {
	return query.ParseObjectID(name, c.Param(name))
}

// bindAndValidate binds the request into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func pageFromQuery(c echo.Context) query.Page {
	return query.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
}

func sortFromQuery(c echo.Context, sortable []string) (query.Sort, error) {
	return query.ParseSort(c.QueryParam("sortBy"), c.QueryParam("sortType"), sortable, query.DefaultSort)
}

func pageOf[T any](items []T, page query.Page, total int64) response.Page[T] {
	return response.Page[T]{Items: items, Page: page.Number, Limit: page.Limit, Total: total}
}
