package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
)

// Verification statuses for the seller application workflow. The zero
// value means the user never applied.
const (
	VerificationNone     = ""
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

const (
	SellerTypeIndividual = "individual"
	SellerTypeCompany    = "company"
)

type User struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Email   string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Phone   string `gorm:"type:varchar(20)" json:"phone"`
	Role    string `gorm:"type:varchar(20);default:'customer'" json:"role"`
	IsAdmin bool   `gorm:"default:false" json:"is_admin"`

	// IsVerify gates seller-only capabilities. Invariant: true implies
	// Role == seller and VerificationStatus == approved.
	IsVerify           bool   `gorm:"default:false" json:"is_verify"`
	VerificationStatus string `gorm:"type:varchar(20);default:''" json:"verification_status"`
	SellerType         string `gorm:"type:varchar(20)" json:"seller_type,omitempty"`

	PassportNumber   string     `gorm:"type:varchar(50)" json:"passport_number,omitempty"`
	PassportIssuer   string     `gorm:"type:varchar(200)" json:"passport_issuer,omitempty"`
	PassportIssuedAt *time.Time `json:"passport_issued_at,omitempty"`

	// INN is nullable so the unique index only applies to users that
	// actually submitted a company application.
	INN            *string `gorm:"column:inn;type:varchar(12);uniqueIndex" json:"inn,omitempty"`
	CompanyName    string  `gorm:"type:varchar(200)" json:"company_name,omitempty"`
	CompanyAddress string  `gorm:"type:varchar(255)" json:"company_address,omitempty"`

	VerificationRejectionReason string     `gorm:"type:text" json:"verification_rejection_reason,omitempty"`
	VerificationRequestedAt     *time.Time `json:"verification_requested_at,omitempty"`
	VerificationApprovedAt      *time.Time `json:"verification_approved_at,omitempty"`
	VerificationRejectedAt      *time.Time `json:"verification_rejected_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
