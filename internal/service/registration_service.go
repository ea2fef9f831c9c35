package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"reg-gateway/internal/botverify"
	"reg-gateway/internal/directory"
	"reg-gateway/internal/domain"
	"reg-gateway/internal/quota"
)

var (
	ErrMissingFields        = errors.New("missing required fields")
	ErrInvalidRecoveryEmail = errors.New("invalid recovery email format")
	ErrInvalidInviteCode    = errors.New("invalid verification code")
	ErrBotCheckFailed       = errors.New("bot verification failed")
	ErrQuotaExhausted       = errors.New("registration quota exhausted")
	ErrBadDomainSuffix      = errors.New("primary email does not match the configured domain suffix")
)

// RegistrationService ejecuta la secuencia de admisión y, si todos los
// chequeos pasan, aprovisiona la cuenta en el directorio upstream.
//
// Orden de los chequeos: primero los locales baratos (campos, formato,
// codigo de invitación), despues los que cuestan red (verificación
// anti-bot, lectura de cupo). Asi una solicitud malformada nunca gasta
// cuota del proveedor de verificación.
type RegistrationService struct {
	logger       *zap.Logger
	verifier     botverify.Verifier
	quota        quota.Store
	tokens       directory.TokenProvider
	directory    directory.Client
	inviteCode   string
	domainSuffix string
}

func NewRegistrationService(
	logger *zap.Logger,
	verifier botverify.Verifier,
	quotaStore quota.Store,
	tokens directory.TokenProvider,
	directoryClient directory.Client,
	inviteCode string,
	domainSuffix string,
) *RegistrationService {
	return &RegistrationService{
		logger:       logger,
		verifier:     verifier,
		quota:        quotaStore,
		tokens:       tokens,
		directory:    directoryClient,
		inviteCode:   inviteCode,
		domainSuffix: domainSuffix,
	}
}

// RegistrationResult describe una cuenta aprovisionada con exito.
type RegistrationResult struct {
	PrimaryEmail string
}

// Register corre la secuencia completa: admisión, reserva de cupo y
// aprovisionamiento. Cada chequeo corta la secuencia al primer fallo.
func (s *RegistrationService) Register(ctx context.Context, req domain.RegistrationRequest) (RegistrationResult, error) {
	if req.MissingFields() {
		return RegistrationResult{}, ErrMissingFields
	}

	if !ValidRecoveryEmail(req.RecoveryEmail) {
		return RegistrationResult{}, ErrInvalidRecoveryEmail
	}

	// Comparación exacta y sensible a mayusculas, en tiempo constante.
	if subtle.ConstantTimeCompare([]byte(req.VerificationCode), []byte(s.inviteCode)) != 1 {
		return RegistrationResult{}, ErrInvalidInviteCode
	}

	if !s.verifier.Verify(ctx, req.BotToken) {
		return RegistrationResult{}, ErrBotCheckFailed
	}

	snap, err := s.quota.Snapshot(ctx)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("read quota: %w", err)
	}
	if snap.Full() {
		return RegistrationResult{}, ErrQuotaExhausted
	}

	primaryEmail := req.Username + s.domainSuffix
	if !strings.HasSuffix(primaryEmail, s.domainSuffix) {
		return RegistrationResult{}, ErrBadDomainSuffix
	}

	return s.provision(ctx, req, primaryEmail)
}

func (s *RegistrationService) provision(ctx context.Context, req domain.RegistrationRequest, primaryEmail string) (RegistrationResult, error) {
	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		// La causa no se expone al usuario; el handler la mapea a 500.
		return RegistrationResult{}, fmt.Errorf("obtain access token: %w", err)
	}

	account := directory.Account{
		Name: directory.AccountName{
			GivenName:  req.FirstName,
			FamilyName: req.LastName,
		},
		Password:      req.Password,
		PrimaryEmail:  primaryEmail,
		RecoveryEmail: req.RecoveryEmail,
	}

	// La reserva es atómica con techo: entre lecturas concurrentes de
	// cupo puede admitirse de más, pero el contador nunca supera el
	// limite. Si el upstream falla, el cupo reservado se devuelve.
	reserved, err := s.quota.Reserve(ctx)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("reserve quota slot: %w", err)
	}
	if !reserved {
		return RegistrationResult{}, ErrQuotaExhausted
	}

	if err := s.directory.CreateAccount(ctx, accessToken, account); err != nil {
		s.releaseSlot(ctx)
		var apiErr *directory.APIError
		if errors.As(err, &apiErr) {
			return RegistrationResult{}, apiErr
		}
		return RegistrationResult{}, fmt.Errorf("provision account: %w", err)
	}

	s.logger.Info("account provisioned", zap.String("primary_email", primaryEmail))
	return RegistrationResult{PrimaryEmail: primaryEmail}, nil
}

func (s *RegistrationService) releaseSlot(ctx context.Context) {
	if err := s.quota.Release(ctx); err != nil {
		// El cupo queda sobre-contado hasta una corrección manual.
		s.logger.Error("release quota slot failed", zap.Error(err))
	}
}
