package server

import (
	"fmt"
	"net/http"
	"path"
	"reflect"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/danielgtaylor/huma/v2"
	"github.com/gin-gonic/gin"
	coffeedomain "github.com/smallbiznis/coffeeshop/internal/coffee/domain"
	eventdomain "github.com/smallbiznis/coffeeshop/internal/event/domain"
)

const (
	openAPIPath          = "/openapi.json"
	securitySchemeAPIKey = "apiKey"
)

var apiKeySecurity = []map[string][]string{{securitySchemeAPIKey: {}}}

func (s *Server) registerDocsRoutes() {
	s.engine.GET(openAPIPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, s.openAPI)
	})
}

// buildOpenAPI describes every catalog route. Schemas are generated from the
// request and response types the handlers use.
func buildOpenAPI(version string) *huma.OpenAPI {
	registry := huma.NewMapRegistry("#/components/schemas/", schemaName)
	registry.RegisterTypeAlias(reflect.TypeOf(snowflake.ID(0)), reflect.TypeOf(""))

	schemaOf := func(v any) *huma.Schema {
		return registry.Schema(reflect.TypeOf(v), true, "")
	}

	doc := &huma.OpenAPI{
		OpenAPI: "3.1.0",
		Info: &huma.Info{
			Title:       "Coffeeshop API",
			Version:     version,
			Description: "Coffee catalog with flavors and recommendation events.",
		},
		Components: &huma.Components{
			Schemas: registry,
			SecuritySchemes: map[string]*huma.SecurityScheme{
				securitySchemeAPIKey: {
					Type:        "apiKey",
					In:          "header",
					Name:        "Authorization",
					Description: `The configured API key, sent bare or as "Bearer <key>".`,
				},
			},
		},
	}

	errSchema := schemaOf(errorResponse{})
	coffee := schemaOf(coffeedomain.Response{})

	doc.AddOperation(&huma.Operation{
		OperationID: "listCoffees",
		Method:      http.MethodGet,
		Path:        "/coffees",
		Summary:     "List coffees",
		Tags:        []string{"Coffees"},
		Parameters:  paginationParams(),
		Responses: withErrors(errSchema, map[string]*huma.Response{
			"200": dataResponse("A page of coffees ordered by id", schemaOf(coffeedomain.ListResponse{})),
		}, http.StatusBadRequest),
	})
	doc.AddOperation(&huma.Operation{
		OperationID: "getCoffee",
		Method:      http.MethodGet,
		Path:        "/coffees/{id}",
		Summary:     "Get a coffee",
		Tags:        []string{"Coffees"},
		Parameters:  []*huma.Param{idParam()},
		Responses: withErrors(errSchema, map[string]*huma.Response{
			"200": dataResponse("The coffee with its flavors", coffee),
		}, http.StatusBadRequest, http.StatusNotFound),
	})
	doc.AddOperation(&huma.Operation{
		OperationID: "createCoffee",
		Method:      http.MethodPost,
		Path:        "/coffees",
		Summary:     "Create a coffee",
		Description: "Flavors are matched by exact name and created when missing.",
		Tags:        []string{"Coffees"},
		Security:    apiKeySecurity,
		RequestBody: jsonBody(schemaOf(createCoffeeRequest{})),
		Responses: withErrors(errSchema, map[string]*huma.Response{
			"201": dataResponse("The created coffee", coffee),
		}, http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests),
	})
	doc.AddOperation(&huma.Operation{
		OperationID: "updateCoffee",
		Method:      http.MethodPatch,
		Path:        "/coffees/{id}",
		Summary:     "Update a coffee",
		Description: "Only supplied fields change. A supplied flavors list replaces the current set.",
		Tags:        []string{"Coffees"},
		Security:    apiKeySecurity,
		Parameters:  []*huma.Param{idParam()},
		RequestBody: jsonBody(schemaOf(updateCoffeeRequest{})),
		Responses: withErrors(errSchema, map[string]*huma.Response{
			"200": dataResponse("The updated coffee", coffee),
		}, http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusTooManyRequests),
	})
	doc.AddOperation(&huma.Operation{
		OperationID: "deleteCoffee",
		Method:      http.MethodDelete,
		Path:        "/coffees/{id}",
		Summary:     "Remove a coffee",
		Tags:        []string{"Coffees"},
		Security:    apiKeySecurity,
		Parameters:  []*huma.Param{idParam()},
		Responses: withErrors(errSchema, map[string]*huma.Response{
			"200": dataResponse("The removed coffee", coffee),
		}, http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusTooManyRequests),
	})
	doc.AddOperation(&huma.Operation{
		OperationID: "recommendCoffee",
		Method:      http.MethodPatch,
		Path:        "/coffees/{id}/recommend",
		Summary:     "Recommend a coffee",
		Description: "Increments the recommendation counter and records a recommend_coffee event in one transaction.",
		Tags:        []string{"Coffees"},
		Security:    apiKeySecurity,
		Parameters:  []*huma.Param{idParam()},
		Responses: withErrors(errSchema, map[string]*huma.Response{
			"200": dataResponse("The recommended coffee and the recorded event", schemaOf(coffeedomain.RecommendResult{})),
		}, http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError),
	})
	doc.AddOperation(&huma.Operation{
		OperationID: "listEvents",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List events",
		Tags:        []string{"Events"},
		Security:    apiKeySecurity,
		Parameters: append(paginationParams(),
			queryParam("name", "Only events with this name"),
			queryParam("type", "Only events of this type"),
		),
		Responses: withErrors(errSchema, map[string]*huma.Response{
			"200": dataResponse("A page of events, newest first", schemaOf(eventdomain.ListResponse{})),
		}, http.StatusBadRequest, http.StatusUnauthorized),
	})

	return doc
}

// schemaName prefixes domain types with their module so coffee and event
// types sharing a Go name get distinct schemas.
func schemaName(t reflect.Type, hint string) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := huma.DefaultSchemaNamer(t, hint)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	pkgPath := t.PkgPath()
	if path.Base(pkgPath) != "domain" {
		return name
	}
	module := path.Base(path.Dir(pkgPath))
	if module == "" || module == "." {
		return name
	}
	prefix := strings.ToUpper(module[:1]) + module[1:]
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

func idParam() *huma.Param {
	return &huma.Param{
		Name:        "id",
		In:          "path",
		Description: "Coffee id",
		Required:    true,
		Schema:      &huma.Schema{Type: huma.TypeString, Pattern: "^[0-9]+$"},
	}
}

func paginationParams() []*huma.Param {
	zero := 0.0
	return []*huma.Param{
		{Name: "limit", In: "query", Description: "Page size. 0 uses the default, larger values are clamped to the maximum.", Schema: &huma.Schema{Type: huma.TypeInteger, Minimum: &zero}},
		{Name: "offset", In: "query", Description: "Rows to skip", Schema: &huma.Schema{Type: huma.TypeInteger, Minimum: &zero}},
	}
}

func queryParam(name, description string) *huma.Param {
	return &huma.Param{Name: name, In: "query", Description: description, Schema: &huma.Schema{Type: huma.TypeString}}
}

func jsonBody(schema *huma.Schema) *huma.RequestBody {
	return &huma.RequestBody{
		Required: true,
		Content:  map[string]*huma.MediaType{"application/json": {Schema: schema}},
	}
}

func dataResponse(description string, data *huma.Schema) *huma.Response {
	return &huma.Response{
		Description: description,
		Content: map[string]*huma.MediaType{
			"application/json": {Schema: &huma.Schema{
				Type: huma.TypeObject,
				Properties: map[string]*huma.Schema{
					"data":        data,
					"status_code": {Type: huma.TypeInteger},
				},
				Required: []string{"data", "status_code"},
			}},
		},
	}
}

func withErrors(errSchema *huma.Schema, responses map[string]*huma.Response, statuses ...int) map[string]*huma.Response {
	for _, status := range statuses {
		responses[fmt.Sprintf("%d", status)] = &huma.Response{
			Description: http.StatusText(status),
			Content:     map[string]*huma.MediaType{"application/json": {Schema: errSchema}},
		}
	}
	return responses
}
