package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
	"github.com/jonboulle/clockwork"
)

// AdminHandler handles admin panel requests
type AdminHandler struct {
	batch    service.PeriodRunner
	reports  Reports
	reset    Resetter
	packages Packages
	payouts  Payouts
	clock    clockwork.Clock
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(batch service.PeriodRunner, reports Reports, reset Resetter, packages Packages, payouts Payouts, clock clockwork.Clock) *AdminHandler {
	return &AdminHandler{
		batch:    batch,
		reports:  reports,
		reset:    reset,
		packages: packages,
		payouts:  payouts,
		clock:    clock,
	}
}

// --- Batch ---

type RunMonthlyRequest struct {
	Period string `json:"period"`
}

// RunMonthly runs the commission batch for the requested period, defaulting
// to the month that just closed.
func (h *AdminHandler) RunMonthly(c *fiber.Ctx) error {
	var req RunMonthlyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	period := strings.TrimSpace(req.Period)
	if period == "" {
		period = service.PreviousPeriod(h.clock.Now())
	}

	res, err := h.batch.RunPeriodBatch(c.Context(), period)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}

// --- Reports ---

func (h *AdminHandler) MasterReport(c *fiber.Ctx) error {
	report, err := h.reports.MasterReport(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"report":  report,
	})
}

func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.reports.Stats(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

// --- Reset ---

func (h *AdminHandler) ResetSystem(c *fiber.Ctx) error {
	res, err := h.reset.ResetSystem(c.Context())
	if err != nil {
		if res != nil && errors.Is(err, service.ErrRootIdentityNotFound) {
			return c.Status(fiber.StatusConflict).JSON(res)
		}
		return fail(c, err)
	}
	return c.JSON(res)
}

func (h *AdminHandler) ResetPreview(c *fiber.Ctx) error {
	counts, err := h.reset.Preview(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrRootIdentityNotFound) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return fail(c, err)
	}
	return c.JSON(counts)
}

// --- Packages ---

func (h *AdminHandler) CreatePackage(c *fiber.Ctx) error {
	var req service.PackageInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	pkg, err := h.packages.Create(c.Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pkg)
}

func (h *AdminHandler) UpdatePackage(c *fiber.Ctx) error {
	id, err := parseID(c, "package_id")
	if err != nil {
		return badRequest(c, "invalid package_id")
	}

	var req service.PackagePatch
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	pkg, err := h.packages.Update(c.Context(), id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pkg)
}

// --- Payouts ---

func (h *AdminHandler) MarkPayoutPaid(c *fiber.Ctx) error {
	id, err := parseID(c, "payout_id")
	if err != nil {
		return badRequest(c, "invalid payout_id")
	}

	payout, err := h.payouts.MarkPaid(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(payout)
}

func (h *AdminHandler) CancelPayout(c *fiber.Ctx) error {
	id, err := parseID(c, "payout_id")
	if err != nil {
		return badRequest(c, "invalid payout_id")
	}

	payout, err := h.payouts.Cancel(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(payout)
}
