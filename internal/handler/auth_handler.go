package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"college-appointments-api/internal/auth"
	"college-appointments-api/internal/middleware"
	"college-appointments-api/internal/model"
	"college-appointments-api/internal/store"
)

const refreshCookie = "refresh_token"

func (h *Handler) Register(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All fields are required"})
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Role must be student or professor"})
	}
	if len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Password must be at least 6 characters"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := h.store.CreateUser(c.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email already registered"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"userId":  u.ID,
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email and password are required"})
	}

	u, err := h.store.UserByEmail(c.Context(), req.Email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	tok, err := auth.MakeToken(u.ID, h.secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.issueRefreshCookie(c, u.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"token": tok, "user": u})
}

// Refresh rotates the presented refresh token and returns a fresh access
// token. Reuse of an already-rotated token revokes the whole family.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	raw := c.Cookies(refreshCookie)
	if raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing refresh token"})
	}

	rt, err := h.store.RefreshTokenByHash(c.Context(), auth.HashRefreshToken(raw))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid refresh token"})
	}
	if rt.Revoked {
		_ = h.store.RevokeRefreshTokens(c.Context(), rt.UserID)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid refresh token"})
	}
	if time.Now().After(rt.ExpiresAt) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Refresh token expired"})
	}

	newRaw, newHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	newID := uuid.New().String()
	expiry := time.Now().Add(auth.RefreshTokenTTL)
	if err := h.store.RotateRefreshToken(c.Context(), rt.ID, newID, rt.UserID, newHash, expiry); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	setRefreshCookie(c, newRaw, expiry)

	tok, err := auth.MakeToken(rt.UserID, h.secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"token": tok})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	if err := h.store.RevokeRefreshTokens(c.Context(), caller.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Cookie(&fiber.Cookie{
		Name: refreshCookie, Value: "", Path: "/api/auth",
		Expires: time.Now().Add(-time.Hour), HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *Handler) issueRefreshCookie(c *fiber.Ctx, userID string) error {
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(auth.RefreshTokenTTL)
	if _, err := h.store.CreateRefreshToken(c.Context(), userID, hash, expiry); err != nil {
		return err
	}
	setRefreshCookie(c, raw, expiry)
	return nil
}

func setRefreshCookie(c *fiber.Ctx, raw string, expiry time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    raw,
		Path:     "/api/auth",
		Expires:  expiry,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
