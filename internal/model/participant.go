package model

import (
	"time"

	"github.com/google/uuid"
)

type Participant struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	DisplayName *string    `json:"display_name,omitempty" db:"display_name"`
	SponsorID   *uuid.UUID `json:"sponsor_id,omitempty" db:"sponsor_id"`
	PackageID   *uuid.UUID `json:"package_id,omitempty" db:"package_id"`
	IsAffiliate bool       `json:"is_affiliate" db:"is_affiliate"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ParticipantWithPackage is a participant joined with its current package, if any.
type ParticipantWithPackage struct {
	Participant
	Package *Package `json:"package,omitempty"`
}

// HasActivePackage reports whether the participant holds a package that is still sold.
func (p *ParticipantWithPackage) HasActivePackage() bool {
	return p.Package != nil && p.Package.IsActive
}
