package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// createPOIRequest uses pointers so absent coordinates are distinguishable from 0.
type createPOIRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ListPOIsHandler returns every POI as a bare JSON array.
// Optional lat/lon/radius restricts to POIs within radius meters, nearest first.
// Optional offset/limit pages the result and sets X-Total-Count and Link.
func ListPOIsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		var (
			pois []domain.POI
			err  error
		)
		if c.Query("lat") != "" || c.Query("lon") != "" || c.Query("radius") != "" {
			if c.Query("lat") == "" || c.Query("lon") == "" {
				return errBadRequest(c, "lat and lon are required together")
			}
			lat := c.QueryFloat("lat", 0)
			lon := c.QueryFloat("lon", 0)
			radius := c.QueryFloat("radius", 1000)
			pois, err = deps.POIs.FindNearby(ctx, lat, lon, radius)
		} else {
			pois, err = deps.POIs.List(ctx)
		}
		if err != nil {
			return serviceError(c, err)
		}

		if pg, ok := pageParams(c); ok {
			pois = paginate(pois, &pg)
			SetPageHeaders(c, pg)
		}

		// Clients refresh after every mutation; revalidate through the ETag.
		c.Set("Cache-Control", "no-cache")
		return c.JSON(pois)
	}
}

// GetPOIHandler returns a single POI.
func GetPOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		poi, err := deps.POIs.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(poi)
	}
}

// CreatePOIHandler creates a POI and returns it with 201.
func CreatePOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createPOIRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Latitude == nil || req.Longitude == nil {
			return errValidation(c, domain.ValidationErrors{
				{Field: "latitude/longitude", Message: "are required"},
			})
		}

		poi, err := deps.POIs.Create(c.UserContext(), domain.NewPOI{
			Title:       req.Title,
			Description: req.Description,
			Latitude:    *req.Latitude,
			Longitude:   *req.Longitude,
		})
		if err != nil {
			return serviceError(c, err)
		}

		c.Location("/pois/" + poi.ID)
		return c.Status(fiber.StatusCreated).JSON(poi)
	}
}

// UpdatePOIHandler replaces title and description. Coordinates in the body are ignored.
func UpdatePOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.POIUpdate
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		poi, err := deps.POIs.Update(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(poi)
	}
}

// DeletePOIHandler removes a POI and returns 204.
func DeletePOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.POIs.Delete(c.UserContext(), c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
