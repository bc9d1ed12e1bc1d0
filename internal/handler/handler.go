package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"college-appointments-api/internal/booking"
	"college-appointments-api/internal/middleware"
	"college-appointments-api/internal/model"
	"college-appointments-api/internal/store"
)

type Handler struct {
	store   store.Store
	booking *booking.Coordinator
	secret  string
}

func New(st store.Store, coord *booking.Coordinator, secret string) *Handler {
	return &Handler{store: st, booking: coord, secret: secret}
}

// Routes registers the full REST surface on app.
func (h *Handler) Routes(app *fiber.App, authLimiter *middleware.RateLimiter) {
	api := app.Group("/api")

	authed := middleware.Auth(h.secret, h.store)
	student := middleware.RequireRole(model.RoleStudent)
	professor := middleware.RequireRole(model.RoleProfessor)

	authGrp := api.Group("/auth")
	authGrp.Post("/register", middleware.RateLimit(authLimiter), h.Register)
	authGrp.Post("/login", middleware.RateLimit(authLimiter), h.Login)
	authGrp.Post("/refresh", h.Refresh)
	authGrp.Post("/logout", authed, h.Logout)

	av := api.Group("/availability", authed)
	av.Post("/", professor, h.AddAvailability)
	av.Get("/professor/:professorId", h.ProfessorAvailability)
	av.Get("/available/:professorId", student, h.AvailableSlots)
	av.Delete("/:id", professor, h.RemoveAvailability)

	ap := api.Group("/appointments", authed)
	ap.Post("/", student, h.BookAppointment)
	ap.Get("/student", student, h.StudentAppointments)
	ap.Get("/professor", professor, h.ProfessorAppointments)
	ap.Get("/:id", h.GetAppointment)
	ap.Patch("/:id/cancel", h.CancelAppointment)
	ap.Patch("/:id/complete", professor, h.CompleteAppointment)
}

// respondErr turns coordinator errors into the documented status + message
// pairs; anything unclassified surfaces as a 500 with the raw error.
func respondErr(c *fiber.Ctx, err error) error {
	var be *booking.Error
	if errors.As(err, &be) {
		return c.Status(statusFor(be.Kind)).JSON(fiber.Map{"message": be.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(k booking.Kind) int {
	switch k {
	case booking.KindForbidden:
		return fiber.StatusForbidden
	case booking.KindNotFound:
		return fiber.StatusNotFound
	default:
		// invalid input and all conflict kinds report as 400
		return fiber.StatusBadRequest
	}
}
