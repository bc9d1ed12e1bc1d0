package handler

import (
	"github.com/gofiber/fiber/v2"

	"college-appointments-api/internal/middleware"
	"college-appointments-api/internal/model"
)

func (h *Handler) BookAppointment(c *fiber.Ctx) error {
	var req struct {
		ProfessorID string `json:"professorId"`
		Date        string `json:"date"`
		StartTime   string `json:"startTime"`
		EndTime     string `json:"endTime"`
		Notes       string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	caller := middleware.Caller(c)
	appt, err := h.booking.Book(c.Context(), caller.ID, req.ProfessorID, req.Date, req.StartTime, req.EndTime, req.Notes)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Appointment booked successfully",
		"appointment": appt,
	})
}

func (h *Handler) StudentAppointments(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	appts, err := h.booking.StudentAppointments(c.Context(), caller.ID)
	if err != nil {
		return respondErr(c, err)
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	return c.JSON(appts)
}

func (h *Handler) ProfessorAppointments(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	appts, err := h.booking.ProfessorAppointments(c.Context(), caller.ID)
	if err != nil {
		return respondErr(c, err)
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	return c.JSON(appts)
}

func (h *Handler) GetAppointment(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	appt, err := h.booking.Get(c.Context(), caller, c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(appt)
}

func (h *Handler) CancelAppointment(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	appt, err := h.booking.Cancel(c.Context(), caller, c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Appointment cancelled successfully",
		"appointment": appt,
	})
}

func (h *Handler) CompleteAppointment(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	appt, err := h.booking.Complete(c.Context(), caller, c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Appointment marked as completed",
		"appointment": appt,
	})
}
