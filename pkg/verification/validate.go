package verification

import (
	"regexp"
	"time"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
)

var innPattern = regexp.MustCompile(`^[0-9]{10,12}$`)

const (
	minPassportLen = 6
	maxPassportAge = 100 // years
)

// Application is what a customer submits to become a seller.
type Application struct {
	SellerType string `json:"seller_type"`
	Phone      string `json:"phone"`

	// individual
	PassportNumber   string     `json:"passport_number,omitempty"`
	PassportIssuer   string     `json:"passport_issuer,omitempty"`
	PassportIssuedAt *time.Time `json:"passport_issued_at,omitempty"`

	// company
	INN            string `json:"inn,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	CompanyAddress string `json:"company_address,omitempty"`
}

// validate reports every field problem at once instead of failing on the
// first, so the form can highlight all of them in a single round trip.
func validate(app Application, now time.Time) error {
	fields := errs.FieldErrors{}

	if app.Phone == "" {
		fields["phone"] = "required"
	}

	switch app.SellerType {
	case models.SellerTypeIndividual:
		if len(app.PassportNumber) < minPassportLen {
			fields["passport_number"] = "must be at least 6 characters"
		}
		if app.PassportIssuer == "" {
			fields["passport_issuer"] = "required"
		}
		switch {
		case app.PassportIssuedAt == nil:
			fields["passport_issued_at"] = "required"
		case app.PassportIssuedAt.After(now):
			fields["passport_issued_at"] = "must not be in the future"
		case app.PassportIssuedAt.Before(now.AddDate(-maxPassportAge, 0, 0)):
			fields["passport_issued_at"] = "must not be older than 100 years"
		}
	case models.SellerTypeCompany:
		if !innPattern.MatchString(app.INN) {
			fields["inn"] = "must be 10 to 12 digits"
		}
		if app.CompanyName == "" {
			fields["company_name"] = "required"
		}
		if app.CompanyAddress == "" {
			fields["company_address"] = "required"
		}
	default:
		fields["seller_type"] = "must be individual or company"
	}

	if len(fields) > 0 {
		return fields
	}
	return nil
}
