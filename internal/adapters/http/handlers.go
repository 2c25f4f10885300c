package http

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// bytesReader wraps a request body for the CSV importer. Fiber reuses the
// underlying buffer after the handler returns, so copy first.
func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(append([]byte(nil), b...))
}

// FleetStatusHandler returns row counts from the fleet tables.
func FleetStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats domain.FleetStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM vehicles),
				(SELECT count(*) FROM vehicles WHERE status = 'active'),
				(SELECT count(*) FROM vehicle_positions WHERE time > now() - interval '24 hours'),
				(SELECT count(*) FROM geofence_zones WHERE active),
				(SELECT count(*) FROM users WHERE active),
				COALESCE((SELECT max(time)::text FROM vehicle_positions), '')
		`)
		if err := row.Scan(&stats.Vehicles, &stats.ActiveVehicles, &stats.Positions,
			&stats.Geofences, &stats.Users, &stats.LastPosition); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ListVehiclesHandler returns the fleet, optionally filtered by status.
func ListVehiclesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := domain.VehicleStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			return errBadRequest(c, "status must be one of active, inactive, maintenance")
		}

		vehicles, err := deps.Vehicles.List(c.Context(), status)
		if err != nil {
			return errInternal(c, err.Error())
		}

		page, pg := paginate(c, vehicles, 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetVehicleHandler returns a single vehicle by ID.
func GetVehicleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vehicle id is required")
		}
		vehicle, err := deps.Vehicles.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "vehicle not found")
		}
		return c.JSON(vehicle)
	}
}

// SaveVehicleHandler creates or updates a vehicle keyed by device ID.
func SaveVehicleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var v domain.Vehicle
		if err := c.BodyParser(&v); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Vehicles.Save(c.Context(), &v); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(v)
	}
}

// DeleteVehicleHandler removes a vehicle.
func DeleteVehicleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vehicle id is required")
		}
		if err := deps.Vehicles.Delete(c.Context(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// VehicleHistoryHandler returns the position trail of a vehicle.
// GET /v1/vehicles/:id/history?from=<RFC3339>&to=<RFC3339>&limit=500
func VehicleHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vehicle id is required")
		}

		var from, to time.Time
		if raw := c.Query("from"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "from must be RFC3339")
			}
			from = t
		}
		if raw := c.Query("to"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "to must be RFC3339")
			}
			to = t
		}

		limit := c.QueryInt("limit", 500)
		positions, err := deps.Vehicles.History(c.Context(), id, from, to, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(fiber.Map{
			"vehicle_id": id,
			"positions":  positions,
			"count":      len(positions),
		})
	}
}

// MapViewportHandler returns the virtualized view of the fleet for a map
// viewport. GET /v1/map/viewport?north=&south=&east=&west=&zoom=
func MapViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewport := domain.Viewport{
			North: c.QueryFloat("north", 91),
			South: c.QueryFloat("south", 91),
			East:  c.QueryFloat("east", 181),
			West:  c.QueryFloat("west", 181),
		}
		if viewport.North > 90 || viewport.South > 90 || viewport.East > 180 || viewport.West > 180 {
			return errBadRequest(c, "north, south, east, and west are required")
		}
		if viewport.North < -90 || viewport.South < -90 || viewport.East < -180 || viewport.West < -180 {
			return errBadRequest(c, "bounds out of range")
		}
		if viewport.North < viewport.South {
			return errBadRequest(c, "north must be greater than south")
		}

		zoom := c.QueryInt("zoom", -1)
		if zoom < 0 || zoom > 22 {
			return errBadRequest(c, "zoom must be between 0 and 22")
		}

		result, err := deps.Map.Viewport(c.Context(), viewport, zoom)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(result)
	}
}

// ResolveFeesHandler resolves billing fees for a merchant context.
// GET /v1/fees/resolve?merchant_id=&category_id=&country=KE
func ResolveFeesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fctx := domain.FeeContext{
			MerchantID:  c.Query("merchant_id"),
			CategoryID:  c.Query("category_id"),
			CountryCode: c.Query("country"),
		}
		if fctx.CountryCode == "" {
			return errBadRequest(c, "country query parameter is required")
		}

		resolved, err := deps.Fees.Resolve(c.Context(), fctx)
		if err != nil {
			if errors.Is(err, domain.ErrBillingConfigUnavailable) {
				return errUnavailable(c, "billing configuration unavailable")
			}
			return errInternal(c, err.Error())
		}

		return c.JSON(resolved)
	}
}

// ReloadFeesHandler drops the cached billing snapshot so the next resolve
// reads fresh configuration. POST /v1/fees/reload, called after config writes.
func ReloadFeesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Fees.InvalidateSnapshot(c.Context())
		return c.SendStatus(204)
	}
}

// ListGeofencesHandler returns all geofence zones.
func ListGeofencesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Geofences.ListZones(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(zones)
	}
}

// SaveGeofenceHandler creates or updates a geofence zone.
func SaveGeofenceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var zone domain.GeofenceZone
		if err := c.BodyParser(&zone); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Geofences.SaveZone(c.Context(), &zone); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(zone)
	}
}

// DeleteGeofenceHandler removes a geofence zone.
func DeleteGeofenceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "zone id is required")
		}
		if err := deps.Geofences.DeleteZone(c.Context(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// ImportVehiclesHandler ingests a CSV of vehicles from the request body.
func ImportVehiclesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			return errBadRequest(c, "CSV body is required")
		}

		report, err := deps.Importer.ImportVehicles(c.Context(), bytesReader(body))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(report)
	}
}

// ImportUsersHandler ingests a CSV of users from the request body.
func ImportUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			return errBadRequest(c, "CSV body is required")
		}

		report, err := deps.Importer.ImportUsers(c.Context(), bytesReader(body))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(report)
	}
}

// ListUsersHandler returns all platform users.
func ListUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := deps.Users.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		page, pg := paginate(c, users, 100, 200)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// SaveUserHandler creates or updates a user keyed by email.
func SaveUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u domain.User
		if err := c.BodyParser(&u); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Users.Save(c.Context(), &u); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(u)
	}
}

// ListTemplatesHandler returns all notification templates.
func ListTemplatesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		templates, err := deps.Templates.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(templates)
	}
}

// SaveTemplateHandler creates or updates a notification template.
func SaveTemplateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tpl domain.NotificationTemplate
		if err := c.BodyParser(&tpl); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Templates.Save(c.Context(), &tpl); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(tpl)
	}
}

// LatestPositionsHandler is the pre-viewport way to fetch the whole fleet at
// once. Kept for older dashboard builds; superseded by /v1/map/viewport.
func LatestPositionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		rows, err := deps.DB.Pool.Query(c.Context(), `
			SELECT DISTINCT ON (vehicle_id)
				vehicle_id, device_id,
				ST_Y(location::geometry), ST_X(location::geometry),
				speed, heading, time
			FROM vehicle_positions
			WHERE time > now() - interval '1 hour'
			ORDER BY vehicle_id, time DESC
		`)
		if err != nil {
			return errInternal(c, err.Error())
		}
		defer rows.Close()

		type livePosition struct {
			VehicleID string          `json:"vehicle_id"`
			DeviceID  string          `json:"device_id"`
			Location  domain.GeoPoint `json:"location"`
			Speed     float64         `json:"speed"`
			Heading   float64         `json:"heading"`
			Time      time.Time       `json:"time"`
		}

		var positions []livePosition
		for rows.Next() {
			var p livePosition
			if err := rows.Scan(&p.VehicleID, &p.DeviceID, &p.Location.Lat, &p.Location.Lon,
				&p.Speed, &p.Heading, &p.Time); err != nil {
				return errInternal(c, err.Error())
			}
			positions = append(positions, p)
		}

		return c.JSON(positions)
	}
}
