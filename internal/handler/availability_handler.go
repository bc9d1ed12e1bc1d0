package handler

import (
	"github.com/gofiber/fiber/v2"

	"college-appointments-api/internal/middleware"
	"college-appointments-api/internal/model"
)

func (h *Handler) AddAvailability(c *fiber.Ctx) error {
	var req struct {
		Date      string `json:"date"`
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	caller := middleware.Caller(c)
	slot, err := h.booking.AddAvailability(c.Context(), caller.ID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Availability slot added successfully",
		"availability": slot,
	})
}

func (h *Handler) ProfessorAvailability(c *fiber.Ctx) error {
	slots, err := h.booking.ProfessorSlots(c.Context(), c.Params("professorId"), c.Query("date"))
	if err != nil {
		return respondErr(c, err)
	}
	if slots == nil {
		slots = []model.AvailabilitySlot{}
	}
	return c.JSON(slots)
}

// AvailableSlots is the student-facing listing: open slots minus anything
// already claimed by an active appointment.
func (h *Handler) AvailableSlots(c *fiber.Ctx) error {
	slots, err := h.booking.OpenSlots(c.Context(), c.Params("professorId"), c.Query("date"))
	if err != nil {
		return respondErr(c, err)
	}
	if slots == nil {
		slots = []model.AvailabilitySlot{}
	}
	return c.JSON(slots)
}

func (h *Handler) RemoveAvailability(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	if err := h.booking.RemoveAvailability(c.Context(), caller.ID, c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "Availability slot removed successfully"})
}
