package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/middleware"
	"github.com/mediqr-dev/mediqr/services"
)

type signupRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	GuestPatientID string `json:"guestPatientId"`
	LicenseNumber  string `json:"licenseNumber"`
	ClinicName     string `json:"clinicName"`
}

// SignupHandler registers a new account.
func (a *API) SignupHandler(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: "Invalid request body"})
	}

	result, err := a.users.Signup(c.Request().Context(), services.SignupInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           domain.Role(req.Role),
		GuestPatientID: req.GuestPatientID,
		LicenseNumber:  req.LicenseNumber,
		ClinicName:     req.ClinicName,
	})
	if err != nil {
		return respondError(c, err, "User not found")
	}

	return respond(c, http.StatusCreated, "Account created", result)
}

type loginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	GuestPatientID string `json:"guestPatientId"`
}

// LoginHandler authenticates an account.
func (a *API) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: "Invalid request body"})
	}

	result, err := a.users.Login(c.Request().Context(), services.LoginInput{
		Email:          req.Email,
		Password:       req.Password,
		GuestPatientID: req.GuestPatientID,
	})
	if err != nil {
		return respondError(c, err, "User not found")
	}

	return respond(c, http.StatusOK, "Logged in", result)
}

// MeHandler returns the authenticated caller's identity.
func (a *API) MeHandler(c echo.Context) error {
	return respond(c, http.StatusOK, "Authenticated", middleware.IdentityFrom(c))
}

type upsertPatientRequest struct {
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Emergency *domain.EmergencyInfo `json:"emergency"`
}

// GetPatientHandler returns a patient profile.
func (a *API) GetPatientHandler(c echo.Context) error {
	patient, err := a.patients.Get(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return respondError(c, err, "Patient not found")
	}

	return respond(c, http.StatusOK, "Patient found", patient)
}

// UpsertPatientHandler creates or updates a patient profile. Absent fields
// are left untouched.
func (a *API) UpsertPatientHandler(c echo.Context) error {
	var req upsertPatientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: "Invalid request body"})
	}

	update := domain.PatientUpdate{Emergency: req.Emergency}
	if req.Name != "" {
		update.Name = &req.Name
	}
	if req.Email != "" {
		update.Email = &req.Email
	}

	patient, err := a.patients.Upsert(c.Request().Context(), c.Param("patientId"), update)
	if err != nil {
		return respondError(c, err, "Patient not found")
	}

	return respond(c, http.StatusOK, "Patient saved", patient)
}
