package echo

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/middleware"
	"github.com/mediqr-dev/mediqr/services"
)

type createSessionRequest struct {
	PatientID       string   `json:"patientId"`
	AccessType      string   `json:"accessType"`
	DurationMinutes int      `json:"durationMinutes"`
	SharedDocIDs    []string `json:"sharedDocIds"`
}

// sessionView is the client-facing session summary. The signed token is
// never echoed back here.
type sessionView struct {
	SessionID       string    `json:"sessionId"`
	PatientID       string    `json:"patientId"`
	AccessType      string    `json:"accessType"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
	DurationMinutes int       `json:"durationMinutes"`
	SharedDocIDs    []string  `json:"sharedDocIds,omitempty"`
}

// createdSessionView flattens a freshly minted session and its token into
// one object, so clients read sessionId and token side by side.
type createdSessionView struct {
	sessionView
	Token string `json:"token"`
}

func newCreatedSessionView(created *services.CreatedSession) createdSessionView {
	return createdSessionView{
		sessionView: newSessionView(created.Session),
		Token:       created.Token,
	}
}

func newSessionView(s *domain.Session) sessionView {
	return sessionView{
		SessionID:       s.ID,
		PatientID:       s.PatientID,
		AccessType:      string(s.AccessType),
		CreatedAt:       s.CreatedAt,
		ExpiresAt:       s.ExpiresAt,
		DurationMinutes: s.DurationMinutes,
		SharedDocIDs:    s.SharedDocIDs,
	}
}

// CreateSessionHandler mints a session for the authenticated patient. The
// owner is always the caller; a patientId in the body is ignored.
func (a *API) CreateSessionHandler(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: "Invalid request body"})
	}

	created, err := a.sessions.CreateSession(c.Request().Context(), services.CreateSessionInput{
		PatientID:       identity.UserID,
		AccessType:      domain.AccessType(req.AccessType),
		DurationMinutes: req.DurationMinutes,
		SharedDocIDs:    req.SharedDocIDs,
	})
	if err != nil {
		return respondError(c, err, "Session not found")
	}

	return respond(c, http.StatusCreated, "Session created", newCreatedSessionView(created))
}

// CreateAnonSessionHandler mints a session for an unauthenticated device.
// The body carries the guest patientId.
func (a *API) CreateAnonSessionHandler(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: "Invalid request body"})
	}

	created, err := a.sessions.CreateSession(c.Request().Context(), services.CreateSessionInput{
		PatientID:       req.PatientID,
		AccessType:      domain.AccessType(req.AccessType),
		DurationMinutes: req.DurationMinutes,
		SharedDocIDs:    req.SharedDocIDs,
	})
	if err != nil {
		return respondError(c, err, "Session not found")
	}

	return respond(c, http.StatusCreated, "Session created", newCreatedSessionView(created))
}

type validateSessionRequest struct {
	Token string `json:"token"`
}

// ValidateSessionHandler verifies a scanned token for a doctor. A token
// whose signature checks out but whose session was revoked or expired comes
// back 404, indistinguishable from a session that never existed.
func (a *API) ValidateSessionHandler(c echo.Context) error {
	var req validateSessionRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, responseBody{Message: "token is required"})
	}

	session, err := a.sessions.ValidateToken(c.Request().Context(), req.Token)
	if err != nil {
		return respondError(c, err, "Session not found or expired")
	}

	return respond(c, http.StatusOK, "Session valid", newSessionView(session))
}

// GetSessionHandler returns the session summary by id.
func (a *API) GetSessionHandler(c echo.Context) error {
	session, err := a.sessions.Resolve(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return respondError(c, err, "Session not found or expired")
	}

	return respond(c, http.StatusOK, "Session found", newSessionView(session))
}

// EndSessionHandler revokes a session. Patients may only end their own;
// doctors and unauthenticated devices may end any session they hold the id
// for.
func (a *API) EndSessionHandler(c echo.Context) error {
	sessionID := c.Param("sessionId")
	identity := middleware.IdentityFrom(c)

	if err := a.sessions.EndSession(c.Request().Context(), sessionID, identity); err != nil {
		return respondError(c, err, "Session not found or expired")
	}

	return respond(c, http.StatusOK, "Session ended", nil)
}
