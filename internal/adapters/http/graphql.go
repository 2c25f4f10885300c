package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	vehicleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vehicle",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"device_id":    &graphql.Field{Type: graphql.String},
			"plate_number": &graphql.Field{Type: graphql.String},
			"make":         &graphql.Field{Type: graphql.String},
			"model":        &graphql.Field{Type: graphql.String},
			"year":         &graphql.Field{Type: graphql.Int},
			"driver_name":  &graphql.Field{Type: graphql.String},
			"driver_phone": &graphql.Field{Type: graphql.String},
			"status":       &graphql.Field{Type: graphql.String},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VehiclePosition",
		Fields: graphql.Fields{
			"vehicle_id": &graphql.Field{Type: graphql.String},
			"device_id":  &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"speed":      &graphql.Field{Type: graphql.Float},
			"heading":    &graphql.Field{Type: graphql.Float},
			"ignition":   &graphql.Field{Type: graphql.Boolean},
			"time":       &graphql.Field{Type: graphql.String},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"north": &graphql.Field{Type: graphql.Float},
			"south": &graphql.Field{Type: graphql.Float},
			"east":  &graphql.Field{Type: graphql.Float},
			"west":  &graphql.Field{Type: graphql.Float},
		},
	})

	clusterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Cluster",
		Fields: graphql.Fields{
			"center_lat": &graphql.Field{Type: graphql.Float},
			"center_lng": &graphql.Field{Type: graphql.Float},
			"count":      &graphql.Field{Type: graphql.Int},
			"member_ids": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"bounds":     &graphql.Field{Type: boundsType},
		},
	})

	viewportResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ViewportResult",
		Fields: graphql.Fields{
			"visible_vehicle_ids": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"clusters":            &graphql.Field{Type: graphql.NewList(clusterType)},
			"total_count":         &graphql.Field{Type: graphql.Int},
			"render_level":        &graphql.Field{Type: graphql.String},
			"loaded_bounds":       &graphql.Field{Type: boundsType},
		},
	})

	resolvedFeeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ResolvedFee",
		Fields: graphql.Fields{
			"commission_rate":     &graphql.Field{Type: graphql.Float},
			"commission_source":   &graphql.Field{Type: graphql.String},
			"registration_fee":    &graphql.Field{Type: graphql.Float},
			"registration_source": &graphql.Field{Type: graphql.String},
			"currency":            &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"vehicles": &graphql.Field{
				Type:        graphql.NewList(vehicleType),
				Description: "List fleet vehicles, optionally by status",
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					status := domain.VehicleStatus(p.Args["status"].(string))
					if status != "" && !status.Valid() {
						return nil, errors.New("status must be one of active, inactive, maintenance")
					}
					return deps.Vehicles.List(p.Context, status)
				},
			},
			"vehicle": &graphql.Field{
				Type:        vehicleType,
				Description: "Get a vehicle by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Vehicles.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"vehiclePositions": &graphql.Field{
				Type:        graphql.NewList(positionType),
				Description: "Position history of a vehicle",
				Args: graphql.FieldConfigArgument{
					"vehicle_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"hours":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 24},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 500},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["vehicle_id"].(string)
					hours := p.Args["hours"].(int)
					limit := p.Args["limit"].(int)
					to := time.Now()
					from := to.Add(-time.Duration(hours) * time.Hour)
					return deps.Vehicles.History(p.Context, id, from, to, limit)
				},
			},
			"mapViewport": &graphql.Field{
				Type:        viewportResultType,
				Description: "Virtualized fleet view for a map viewport",
				Args: graphql.FieldConfigArgument{
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"zoom":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewport := domain.Viewport{
						North: p.Args["north"].(float64),
						South: p.Args["south"].(float64),
						East:  p.Args["east"].(float64),
						West:  p.Args["west"].(float64),
					}
					zoom := p.Args["zoom"].(int)
					return deps.Map.Viewport(p.Context, viewport, zoom)
				},
			},
			"resolveFees": &graphql.Field{
				Type:        resolvedFeeType,
				Description: "Resolve billing fees for a merchant context",
				Args: graphql.FieldConfigArgument{
					"merchant_id": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"category_id": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"country":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fctx := domain.FeeContext{
						MerchantID:  p.Args["merchant_id"].(string),
						CategoryID:  p.Args["category_id"].(string),
						CountryCode: p.Args["country"].(string),
					}
					return deps.Fees.Resolve(p.Context, fctx)
				},
			},
			"geofences": &graphql.Field{
				Type: graphql.NewList(graphql.NewObject(graphql.ObjectConfig{
					Name: "GeofenceZone",
					Fields: graphql.Fields{
						"id":             &graphql.Field{Type: graphql.String},
						"name":           &graphql.Field{Type: graphql.String},
						"center":         &graphql.Field{Type: geoPointType},
						"radius_m":       &graphql.Field{Type: graphql.Float},
						"alert_on_enter": &graphql.Field{Type: graphql.Boolean},
						"alert_on_exit":  &graphql.Field{Type: graphql.Boolean},
						"active":         &graphql.Field{Type: graphql.Boolean},
					},
				})),
				Description: "List all geofence zones",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Geofences.ListZones(p.Context)
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
