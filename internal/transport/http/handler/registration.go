package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/metrics"
	"github.com/tdpcorpsa/singup/internal/token"
)

// registrationUsecaser is the subset of RegistrationUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type registrationUsecaser interface {
	RequestVerification(ctx context.Context, d domain.Draft) error
	VerifyEmail(ctx context.Context, rawToken string) (domain.VerifyOutcome, error)
}

// identityLookup is the slice of the worker-registry client used by CheckDNI.
type identityLookup interface {
	Lookup(ctx context.Context, dni string) (*domain.WorkerRecord, error)
}

type RegistrationHandler struct {
	usecase    registrationUsecaser
	lookup     identityLookup
	successURL string // base URL of the page the verify link redirects to
	logger     *slog.Logger
}

func NewRegistrationHandler(uc registrationUsecaser, lookup identityLookup, successURL string, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		usecase:    uc,
		lookup:     lookup,
		successURL: successURL,
		logger:     logger.With("component", "registration_handler"),
	}
}

type checkDNIRequest struct {
	DNI string `json:"dni" binding:"required"`
}

type checkDNIData struct {
	Estado string `json:"ESTADO"`
	Nombre string `json:"NOMBRE"`
	Mail   string `json:"mail"`
}

// POST /api/check-dni
// Proxies the worker-registry lookup for the form. The record is passed
// through as-is; the form decides how to branch on it.
func (h *RegistrationHandler) CheckDNI(c *gin.Context) {
	var req checkDNIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.lookup.Lookup(c.Request.Context(), req.DNI)
	if err != nil {
		metrics.LookupsTotal.WithLabelValues("error").Inc()
		h.logger.Error("check dni", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgLookupFailed})
		return
	}

	metrics.LookupsTotal.WithLabelValues(lookupResult(rec)).Inc()
	c.JSON(http.StatusOK, gin.H{"data": checkDNIData{
		Estado: rec.Estado,
		Nombre: rec.Nombre,
		Mail:   rec.Mail,
	}})
}

func lookupResult(rec *domain.WorkerRecord) string {
	switch {
	case !rec.Active():
		return "not_active"
	case rec.Mail != "":
		return "already_registered"
	default:
		return "active"
	}
}

type sendVerificationRequest struct {
	Username  string `json:"username"  binding:"required"`
	Nombres   string `json:"nombres"   binding:"required"`
	Apellidos string `json:"apellidos" binding:"required"`
	Mail      string `json:"mail"      binding:"required,email"`
	Clave     string `json:"clave"     binding:"required"`
}

// POST /api/send-verification-email
// Issues the signed token and emails the verification link.
// The confirmation field never crosses the wire; the form enforces the match
// before submit, so the draft is re-validated here with the password doubled.
func (h *RegistrationHandler) SendVerificationEmail(c *gin.Context) {
	var req sendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	draft := domain.Draft{
		Username:       req.Username,
		Nombres:        req.Nombres,
		Apellidos:      req.Apellidos,
		Mail:           req.Mail,
		Clave:          req.Clave,
		ConfirmarClave: req.Clave,
	}

	if err := h.usecase.RequestVerification(c.Request.Context(), draft); err != nil {
		if errors.Is(err, token.ErrDraftInvalid) {
			metrics.VerificationEmailsTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msgInvalidFields})
			return
		}
		metrics.VerificationEmailsTotal.WithLabelValues("error").Inc()
		h.logger.Error("send verification email", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgInternal})
		return
	}

	metrics.VerificationEmailsTotal.WithLabelValues("sent").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/verify-email?token=<signed>
// Verifies the emailed token and creates the account in the external system.
// Each outcome keeps its own caller-visible result: new account and
// already-existing account redirect to distinct success-page flags, token
// problems and creation failures each get their own error body.
func (h *RegistrationHandler) VerifyEmail(c *gin.Context) {
	rawToken := c.Query("token")

	outcome, err := h.usecase.VerifyEmail(c.Request.Context(), rawToken)
	if err != nil {
		h.verifyError(c, err)
		return
	}

	switch outcome {
	case domain.OutcomeAlreadyExists:
		metrics.VerificationsTotal.WithLabelValues("already_exists").Inc()
		c.Redirect(http.StatusFound, h.successURL+"/registro-exitoso?yaExiste=true")
	default:
		metrics.VerificationsTotal.WithLabelValues("created").Inc()
		c.Redirect(http.StatusFound, h.successURL+"/registro-exitoso?nuevo=true")
	}
}

func (h *RegistrationHandler) verifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		metrics.VerificationsTotal.WithLabelValues("missing_token").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgMissingToken})
	case errors.Is(err, domain.ErrTokenInvalid):
		metrics.VerificationsTotal.WithLabelValues("invalid_token").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgTokenInvalid})
	default:
		var ce *domain.CreationError
		if errors.As(err, &ce) && ce.Malformed {
			metrics.VerificationsTotal.WithLabelValues("creation_failed").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": msgBadUpstream, "raw": ce.Raw})
			return
		}
		metrics.VerificationsTotal.WithLabelValues("creation_failed").Inc()
		h.logger.Error("verify email", "error", err)
		detail := msgInternal
		if ce != nil {
			detail = ce.Detail
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgCreateFailed, "error": detail})
	}
}
