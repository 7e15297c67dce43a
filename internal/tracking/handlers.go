package tracking

import (
	"backend-dtg/internal/trip"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, engine *Engine) {
	r.Post("/trips/start", func(c *fiber.Ctx) error {
		var req trip.StartRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.VehicleID == "" || req.PlateNo == "" || req.DriverID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vehicleId, plateNo and driverId required")
		}
		if req.StartLatitude == nil || req.StartLongitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "startLatitude and startLongitude required")
		}
		tripID := engine.StartTrip(req)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"tripId": tripID})
	})

	r.Post("/trips/end", func(c *fiber.Ctx) error {
		var req trip.EndRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.VehicleID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "vehicleId required")
		}
		if req.EndLatitude == nil || req.EndLongitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "endLatitude and endLongitude required")
		}
		session, ok := engine.EndTrip(req)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active trip for vehicle")
		}
		return c.JSON(session)
	})

	r.Get("/trips/active", func(c *fiber.Ctx) error {
		return c.JSON(engine.ActiveTrips())
	})

	r.Get("/trips/:vehicleId", func(c *fiber.Ctx) error {
		session, ok := engine.Session(c.Params("vehicleId"))
		if !ok {
			return c.JSON(nil)
		}
		return c.JSON(session)
	})
}
