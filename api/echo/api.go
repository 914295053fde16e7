// Package echo exposes the HTTP surface: sessions, documents, accounts and
// patient profiles. Handlers translate between JSON and the services; all
// policy lives in the services.
package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/middleware"
	"github.com/mediqr-dev/mediqr/services"
)

// API holds the handler dependencies.
type API struct {
	sessions  *services.SessionService
	documents *services.DocumentService
	summaries *services.SummaryService
	users     *services.UserService
	patients  *services.PatientService
}

// NewAPI initializes the HTTP API.
func NewAPI(
	sessions *services.SessionService,
	documents *services.DocumentService,
	summaries *services.SummaryService,
	users *services.UserService,
	patients *services.PatientService,
) *API {
	return &API{
		sessions:  sessions,
		documents: documents,
		summaries: summaries,
		users:     users,
		patients:  patients,
	}
}

// RegisterRoutes registers every route on the echo instance.
func (a *API) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/signup", a.SignupHandler)
	e.POST("/auth/login", a.LoginHandler)
	e.GET("/auth/me", a.MeHandler, middleware.RequireAuth)

	e.GET("/patients/:patientId", a.GetPatientHandler)
	e.PUT("/patients/:patientId", a.UpsertPatientHandler)

	e.POST("/session/create", a.CreateSessionHandler, middleware.RequireRole(domain.RolePatient))
	e.POST("/session/create-anon", a.CreateAnonSessionHandler)
	e.POST("/session/validate", a.ValidateSessionHandler, middleware.RequireRole(domain.RoleDoctor))
	e.GET("/session/:sessionId", a.GetSessionHandler)
	e.DELETE("/session/:sessionId", a.EndSessionHandler)

	e.POST("/documents/upload/:sessionId", a.UploadUnderSessionHandler)
	e.POST("/documents/patient", a.UploadByPatientHandler)
	e.POST("/documents/patient/json", a.UploadByPatientJSONHandler)
	e.GET("/documents/session/:sessionId", a.ListBySessionHandler)
	e.GET("/documents/patient/:patientId", a.ListByPatientHandler)
	e.GET("/documents/patient/:patientId/summary", a.PatientSummaryHandler, middleware.RequireAuth)
	e.POST("/documents/:id/summarize", a.SummarizeDocumentHandler, middleware.RequireAuth)
	e.DELETE("/documents/:id", a.DeleteDocumentHandler)

	e.GET("/health", a.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// HealthHandler reports liveness.
func (a *API) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type responseBody struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, responseBody{Message: message, Data: data})
}

func respondError(c echo.Context, err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, responseBody{Message: err.Error()})
	case errors.Is(err, domain.ErrTokenInvalid):
		return c.JSON(http.StatusUnauthorized, responseBody{Message: "Invalid or expired token"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, responseBody{Message: "Invalid email or password"})
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, responseBody{Message: "Authentication required"})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, responseBody{Message: "Forbidden"})
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, responseBody{Message: notFoundMessage})
	case errors.Is(err, domain.ErrSessionConflict):
		return c.JSON(http.StatusConflict, responseBody{Message: "An active session already exists for this patient"})
	case errors.Is(err, domain.ErrDuplicateEmail):
		return c.JSON(http.StatusConflict, responseBody{Message: "An account with this email already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, responseBody{Message: "Internal server error"})
	}
}
