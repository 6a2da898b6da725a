package verification

import (
	"errors"
	"testing"
	"time"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func validIndividual() Application {
	issued := now.AddDate(-5, 0, 0)
	return Application{
		SellerType:       models.SellerTypeIndividual,
		Phone:            "+10000000000",
		PassportNumber:   "AB12345",
		PassportIssuer:   "City Police Dept",
		PassportIssuedAt: &issued,
	}
}

func validCompany() Application {
	return Application{
		SellerType:     models.SellerTypeCompany,
		Phone:          "+10000000000",
		INN:            "1234567890",
		CompanyName:    "Acme LLC",
		CompanyAddress: "1 Acme Way",
	}
}

func TestValidate_IndividualOK(t *testing.T) {
	assert.NoError(t, validate(validIndividual(), now))
}

func TestValidate_CompanyOK(t *testing.T) {
	assert.NoError(t, validate(validCompany(), now))

	app := validCompany()
	app.INN = "123456789012" // 12 digits also valid
	assert.NoError(t, validate(app, now))
}

func TestValidate_ShortINN(t *testing.T) {
	app := validCompany()
	app.INN = "123456789" // 9 digits

	err := validate(app, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	assert.Contains(t, errs.Fields(err), "inn")
}

func TestValidate_NonNumericINN(t *testing.T) {
	app := validCompany()
	app.INN = "12345678AB"

	err := validate(app, now)
	require.Error(t, err)
	assert.Contains(t, errs.Fields(err), "inn")
}

func TestValidate_ShortPassport(t *testing.T) {
	app := validIndividual()
	app.PassportNumber = "AB123"

	err := validate(app, now)
	require.Error(t, err)
	assert.Contains(t, errs.Fields(err), "passport_number")
}

func TestValidate_PassportIssuedInFuture(t *testing.T) {
	app := validIndividual()
	future := now.AddDate(0, 0, 1)
	app.PassportIssuedAt = &future

	err := validate(app, now)
	require.Error(t, err)
	assert.Contains(t, errs.Fields(err), "passport_issued_at")
}

func TestValidate_PassportTooOld(t *testing.T) {
	app := validIndividual()
	ancient := now.AddDate(-101, 0, 0)
	app.PassportIssuedAt = &ancient

	err := validate(app, now)
	require.Error(t, err)
	assert.Contains(t, errs.Fields(err), "passport_issued_at")
}

func TestValidate_PhoneAlwaysRequired(t *testing.T) {
	individual := validIndividual()
	individual.Phone = ""
	err := validate(individual, now)
	require.Error(t, err)
	assert.Contains(t, errs.Fields(err), "phone")

	company := validCompany()
	company.Phone = ""
	err = validate(company, now)
	require.Error(t, err)
	assert.Contains(t, errs.Fields(err), "phone")
}

func TestValidate_UnknownSellerType(t *testing.T) {
	err := validate(Application{SellerType: "charity", Phone: "+1"}, now)
	require.Error(t, err)
	assert.Contains(t, errs.Fields(err), "seller_type")
}

func TestValidate_ReportsAllFieldsAtOnce(t *testing.T) {
	err := validate(Application{SellerType: models.SellerTypeCompany}, now)
	require.Error(t, err)

	fields := errs.Fields(err)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "inn")
	assert.Contains(t, fields, "company_name")
	assert.Contains(t, fields, "company_address")
}
