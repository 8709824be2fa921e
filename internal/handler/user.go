package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
)

func (h *Handler) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, placement, err := h.participants.Signup(c.Context(), req)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"userId":    p.ID,
		"placement": placement,
	})
}

type ActivatePackageRequest struct {
	UserID    uuid.UUID `json:"userId"`
	PackageID uuid.UUID `json:"packageId"`
}

func (h *Handler) ActivatePackage(c *fiber.Ctx) error {
	var req ActivatePackageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID == uuid.Nil || req.PackageID == uuid.Nil {
		return badRequest(c, "userId and packageId are required")
	}

	order, err := h.packages.Activate(c.Context(), req.UserID, req.PackageID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Activated!",
		"order":   order,
	})
}

func (h *Handler) GetPackages(c *fiber.Ctx) error {
	packages, err := h.packages.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(packages)
}

func (h *Handler) GetUserData(c *fiber.Ctx) error {
	id, err := parseID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user_id")
	}

	data, err := h.participants.UserData(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(data)
}

type PayoutRequest struct {
	UserID uuid.UUID `json:"userId"`
}

func (h *Handler) RequestPayout(c *fiber.Ctx) error {
	var req PayoutRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return badRequest(c, "userId is required")
	}

	payout, err := h.payouts.Request(c.Context(), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payout)
}
