package dataset

import "github.com/gofiber/fiber/v2"

// RegisterRoutes exposes replay-data introspection and reset endpoints.
// reload re-reads the configured dataset directory and may be nil.
func RegisterRoutes(r fiber.Router, store *Store, enabled bool, reload func() int) {
	r.Get("/status", func(c *fiber.Ctx) error {
		ids := store.VehicleIDs()
		return c.JSON(fiber.Map{
			"enabled":             enabled,
			"availableVehicleIds": ids,
			"totalVehicles":       len(ids),
		})
	})

	r.Get("/vehicles/:vehicleId", func(c *fiber.Ctx) error {
		vehicleID := c.Params("vehicleId")
		if !store.Has(vehicleID) {
			return fiber.NewError(fiber.StatusNotFound, "no dataset for vehicle")
		}
		size := store.Size(vehicleID)
		cursor := store.Cursor(vehicleID)
		remaining := size - cursor
		if remaining < 0 {
			remaining = 0
		}
		return c.JSON(fiber.Map{
			"vehicleId":     vehicleID,
			"dataCount":     size,
			"currentIndex":  cursor,
			"isExhausted":   store.IsExhausted(vehicleID),
			"remainingData": remaining,
		})
	})

	r.Post("/vehicles/:vehicleId/reset", func(c *fiber.Ctx) error {
		vehicleID := c.Params("vehicleId")
		if !store.Has(vehicleID) {
			return fiber.NewError(fiber.StatusNotFound, "no dataset for vehicle")
		}
		store.Reset(vehicleID)
		return c.JSON(fiber.Map{
			"vehicleId":    vehicleID,
			"currentIndex": store.Cursor(vehicleID),
		})
	})

	r.Post("/reinitialize", func(c *fiber.Ctx) error {
		loaded := 0
		if reload != nil {
			loaded = reload()
		}
		ids := store.VehicleIDs()
		return c.JSON(fiber.Map{
			"loadedFiles":         loaded,
			"availableVehicleIds": ids,
			"totalVehicles":       len(ids),
		})
	})
}
