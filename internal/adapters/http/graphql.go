package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

func rectangleSource(src interface{}) (domain.Rectangle, error) {
	switch r := src.(type) {
	case domain.Rectangle:
		return r, nil
	case *domain.Rectangle:
		return *r, nil
	}
	return domain.Rectangle{}, fmt.Errorf("unexpected rectangle source %T", src)
}

func timeField(get func(src interface{}) (time.Time, bool)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		t, ok := get(p.Source)
		if !ok || t.IsZero() {
			return nil, nil
		}
		return t.UTC().Format(time.RFC3339), nil
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	rectangleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Rectangle",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.String},
			"color": &graphql.Field{Type: graphql.String},
			"data": &graphql.Field{
				Type:        graphql.NewList(graphql.Float),
				Description: "Opposite corners: lat0, lng0, lat1, lng1",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, err := rectangleSource(p.Source)
					if err != nil {
						return nil, err
					}
					return r.Data[:], nil
				},
			},
			"path": &graphql.Field{
				Type:        graphql.NewList(geoPointType),
				Description: "Closed outline, first corner repeated last",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, err := rectangleSource(p.Source)
					if err != nil {
						return nil, err
					}
					return r.Path(), nil
				},
			},
		},
	})

	setType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RectangleSet",
		Fields: graphql.Fields{
			"name":          &graphql.Field{Type: graphql.String},
			"default_color": &graphql.Field{Type: graphql.String},
			"rectangles":    &graphql.Field{Type: graphql.NewList(rectangleType)},
			"updated_at": &graphql.Field{
				Type: graphql.String,
				Resolve: timeField(func(src interface{}) (time.Time, bool) {
					s, ok := src.(*domain.RectangleSet)
					if !ok {
						return time.Time{}, false
					}
					return s.UpdatedAt, true
				}),
			},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SetSummary",
		Fields: graphql.Fields{
			"name":       &graphql.Field{Type: graphql.String},
			"rectangles": &graphql.Field{Type: graphql.Int},
			"updated_at": &graphql.Field{
				Type: graphql.String,
				Resolve: timeField(func(src interface{}) (time.Time, bool) {
					s, ok := src.(domain.SetSummary)
					if !ok {
						return time.Time{}, false
					}
					return s.UpdatedAt, true
				}),
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"sets": &graphql.Field{
				Type:        graphql.NewList(summaryType),
				Description: "List stored rectangle sets",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					page, _, err := deps.Sets.List(p.Context, limit, offset)
					return page, err
				},
			},
			"set": &graphql.Field{
				Type:        setType,
				Description: "Get a rectangle set by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sets.Get(p.Context, p.Args["name"].(string))
				},
			},
			"rectangles": &graphql.Field{
				Type:        graphql.NewList(rectangleType),
				Description: "Stored rectangles crossing a viewport",
				Args: graphql.FieldConfigArgument{
					"min_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"min_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"max_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"max_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 500},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := domain.Bounds{
						MinLat: p.Args["min_lat"].(float64),
						MinLng: p.Args["min_lng"].(float64),
						MaxLat: p.Args["max_lat"].(float64),
						MaxLng: p.Args["max_lng"].(float64),
					}
					return deps.Sets.Intersecting(p.Context, b, p.Args["limit"].(int))
				},
			},
			"coverage": &graphql.Field{
				Type:        graphql.NewList(rectangleType),
				Description: "Tiles covering an area, row by row",
				Args: graphql.FieldConfigArgument{
					"level": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 16},
					"area":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.Float))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw := p.Args["area"].([]interface{})
					if len(raw) != 4 {
						return nil, fmt.Errorf("area needs 4 numbers, got %d", len(raw))
					}
					var area domain.Rectangle
					for i, v := range raw {
						f, ok := v.(float64)
						if !ok {
							return nil, fmt.Errorf("area[%d] is not a number", i)
						}
						area.Data[i] = f
					}
					return deps.Tiles.Coverage(p.Args["level"].(int), area)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
