package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
)

// Handlers depend on the narrow method sets below; the service types satisfy them.

type Participants interface {
	Signup(ctx context.Context, in service.SignupInput) (*model.Participant, *model.Placement, error)
	UserData(ctx context.Context, id uuid.UUID) (*service.UserData, error)
}

type Packages interface {
	List(ctx context.Context) ([]model.Package, error)
	Create(ctx context.Context, in service.PackageInput) (*model.Package, error)
	Update(ctx context.Context, id uuid.UUID, patch service.PackagePatch) (*model.Package, error)
	Activate(ctx context.Context, participantID, packageID uuid.UUID) (*model.Order, error)
}

type Payouts interface {
	Request(ctx context.Context, participantID uuid.UUID) (*model.Payout, error)
	MarkPaid(ctx context.Context, payoutID uuid.UUID) (*model.Payout, error)
	Cancel(ctx context.Context, payoutID uuid.UUID) (*model.Payout, error)
}

type Reports interface {
	MasterReport(ctx context.Context) ([]model.ReportRow, error)
	Stats(ctx context.Context) (*model.PlatformStats, error)
}

type Resetter interface {
	ResetSystem(ctx context.Context) (*service.ResetResult, error)
	Preview(ctx context.Context) ([]model.TableCount, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	participants Participants
	packages     Packages
	payouts      Payouts
	db           Pinger
}

func New(participants Participants, packages Packages, payouts Payouts) *Handler {
	return &Handler{
		participants: participants,
		packages:     packages,
		payouts:      payouts,
	}
}

func (h *Handler) SetPinger(db Pinger) {
	h.db = db
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if h.db != nil {
		if err := h.db.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  "database unreachable",
			})
		}
	}
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// statusFor maps domain errors onto HTTP status codes. Anything unrecognised,
// including integrity and allocation failures, is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPackage),
		errors.Is(err, service.ErrSponsorNotFound):
		return fiber.StatusBadRequest
	case errors.Is(err, repository.ErrParticipantNotFound),
		errors.Is(err, repository.ErrPackageNotFound),
		errors.Is(err, repository.ErrPayoutNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrNothingToPayout),
		errors.Is(err, service.ErrBatchInProgress),
		errors.Is(err, service.ErrPackageInactive),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, network.ErrRootExists):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(param))
}
