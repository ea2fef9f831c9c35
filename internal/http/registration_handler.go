package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reg-gateway/internal/directory"
	"reg-gateway/internal/domain"
	"reg-gateway/internal/service"
)

// RegistrationHandler mantiene dependencias para el formulario y el
// alta de cuentas.
type RegistrationHandler struct {
	logger       *zap.Logger
	regServ      *service.RegistrationService
	siteKey      string
	domainSuffix string
}

// NewRegistrationHandler crea una instancia de RegistrationHandler.
func NewRegistrationHandler(logger *zap.Logger, regServ *service.RegistrationService, siteKey, domainSuffix string) *RegistrationHandler {
	return &RegistrationHandler{
		logger:       logger,
		regServ:      regServ,
		siteKey:      siteKey,
		domainSuffix: domainSuffix,
	}
}

// ShowForm maneja GET /.
func (h *RegistrationHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form", gin.H{
		"SiteKey":      h.siteKey,
		"DomainSuffix": h.domainSuffix,
	})
}

// Register maneja POST / con el cuerpo del formulario.
func (h *RegistrationHandler) Register(c *gin.Context) {
	req := domain.RegistrationRequest{
		FirstName:        c.PostForm("firstName"),
		LastName:         c.PostForm("lastName"),
		Username:         c.PostForm("username"),
		Password:         c.PostForm("password"),
		RecoveryEmail:    c.PostForm("recoveryEmail"),
		VerificationCode: c.PostForm("verificationCode"),
		BotToken:         c.PostForm("cf-turnstile-response"),
	}

	res, err := h.regServ.Register(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "success", gin.H{"Email": res.PrimaryEmail})
}

func (h *RegistrationHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		c.String(http.StatusBadRequest, "All fields are required.")
	case errors.Is(err, service.ErrInvalidRecoveryEmail):
		c.String(http.StatusBadRequest, "The recovery email format is invalid.")
	case errors.Is(err, service.ErrInvalidInviteCode):
		c.String(http.StatusBadRequest, "The invite code is incorrect.")
	case errors.Is(err, service.ErrBadDomainSuffix):
		c.String(http.StatusBadRequest, "The email suffix must be %s.", h.domainSuffix)
	case errors.Is(err, service.ErrBotCheckFailed):
		c.String(http.StatusForbidden, "Bot verification failed, please reload and try again.")
	case errors.Is(err, service.ErrQuotaExhausted):
		c.String(http.StatusForbidden, "Sorry, all registration spots are taken. Thanks for your interest!")
	default:
		var apiErr *directory.APIError
		if errors.As(err, &apiErr) {
			c.String(apiErr.StatusCode, "Registration failed: %s", apiErr.Message)
			return
		}
		h.logger.Error("registration failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal error, please try again later.")
	}
}
