package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/curvedlines/internal/core/domain"
)

// arcArgs are shared by the arc query and the drawCurve mutation.
var arcArgs = graphql.FieldConfigArgument{
	"fromLat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"fromLon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"toLat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"toLon":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"curvature":  &graphql.ArgumentConfig{Type: graphql.Float, Description: "Radians in (0, pi); omitted uses the server default"},
	"resolution": &graphql.ArgumentConfig{Type: graphql.Int, Description: "Interior sample count; omitted uses the server default"},
}

func arcRequestFromArgs(args map[string]interface{}) domain.ArcRequest {
	req := domain.ArcRequest{
		Start: domain.GeoPoint{Lat: args["fromLat"].(float64), Lon: args["fromLon"].(float64)},
		End:   domain.GeoPoint{Lat: args["toLat"].(float64), Lon: args["toLon"].(float64)},
	}
	if v, ok := args["curvature"].(float64); ok {
		req.Curvature = &v
	}
	if v, ok := args["resolution"].(int); ok {
		req.Resolution = &v
	}
	return req
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingRegion",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	arcType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Arc",
		Fields: graphql.Fields{
			"start":      &graphql.Field{Type: geoPointType},
			"end":        &graphql.Field{Type: geoPointType},
			"center":     &graphql.Field{Type: geoPointType},
			"bounds":     &graphql.Field{Type: boundsType},
			"radius":     &graphql.Field{Type: graphql.Float, Description: "Meters"},
			"curvature":  &graphql.Field{Type: graphql.Float},
			"resolution": &graphql.Field{Type: graphql.Int},
			"path": &graphql.Field{
				Type:        graphql.NewList(geoPointType),
				Description: "Sampled points, end point first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					arc, ok := p.Source.(*domain.Arc)
					if !ok {
						return nil, fmt.Errorf("unexpected source %T", p.Source)
					}
					return arc.Path.Points, nil
				},
			},
			"pointCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					arc, ok := p.Source.(*domain.Arc)
					if !ok {
						return nil, fmt.Errorf("unexpected source %T", p.Source)
					}
					return arc.Path.Len(), nil
				},
			},
		},
	})

	curveType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Curve",
		Fields: graphql.Fields{
			"handle": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*domain.Curve).Handle), nil
				},
			},
			"arc": &graphql.Field{Type: arcType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"arc": &graphql.Field{
				Type:        arcType,
				Description: "Build a curved arc between two points",
				Args:        arcArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Curves.Arc(p.Context, arcRequestFromArgs(p.Args))
				},
			},
			"curves": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Handles of curves drawn through the API",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					handles := deps.Set.Handles()
					out := make([]string, len(handles))
					for i, h := range handles {
						out[i] = string(h)
					}
					return out, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"drawCurve": &graphql.Field{
				Type:        curveType,
				Description: "Draw a curve with markers on both ends and frame the camera on it",
				Args:        arcArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Curves.Draw(p.Context, deps.Set, arcRequestFromArgs(p.Args))
				},
			},
			"clearCurves": &graphql.Field{
				Type:        graphql.Int,
				Description: "Remove every curve drawn through the API",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Curves.Clear(p.Context, deps.Set)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
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
