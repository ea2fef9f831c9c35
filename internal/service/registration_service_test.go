package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"reg-gateway/internal/directory"
	"reg-gateway/internal/domain"
	"reg-gateway/internal/quota"
)

type mockVerifier struct {
	result bool
	calls  int
}

func (m *mockVerifier) Verify(_ context.Context, _ string) bool {
	m.calls++
	return m.result
}

type mockQuotaStore struct {
	mu         sync.Mutex
	registered int
	limit      int
	snapErr    error
	reserveErr error
}

func (m *mockQuotaStore) Snapshot(_ context.Context) (quota.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapErr != nil {
		return quota.Snapshot{}, m.snapErr
	}
	return quota.Snapshot{Registered: m.registered, Limit: m.limit}, nil
}

func (m *mockQuotaStore) Reserve(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveErr != nil {
		return false, m.reserveErr
	}
	if m.registered >= m.limit {
		return false, nil
	}
	m.registered++
	return true, nil
}

func (m *mockQuotaStore) Release(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered > 0 {
		m.registered--
	}
	return nil
}

func (m *mockQuotaStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered
}

type mockTokenProvider struct {
	token string
	err   error
}

func (m *mockTokenProvider) AccessToken(_ context.Context) (string, error) {
	return m.token, m.err
}

type mockDirectoryClient struct {
	mu       sync.Mutex
	err      error
	calls    int
	lastTok  string
	accounts []directory.Account
}

func (m *mockDirectoryClient) CreateAccount(_ context.Context, accessToken string, account directory.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastTok = accessToken
	m.accounts = append(m.accounts, account)
	return m.err
}

func (m *mockDirectoryClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func validRequest() domain.RegistrationRequest {
	return domain.RegistrationRequest{
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Username:         "ada",
		Password:         "s3cret",
		RecoveryEmail:    "ada@backup.example.com",
		VerificationCode: "ABC123",
		BotToken:         "challenge-token",
	}
}

func newTestService(verifier *mockVerifier, store *mockQuotaStore, tokens *mockTokenProvider, dir *mockDirectoryClient) *RegistrationService {
	return NewRegistrationService(zap.NewNop(), verifier, store, tokens, dir, "ABC123", "@example.edu")
}

func TestRegisterAdmissionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("missing field rejected before any network call", func(t *testing.T) {
		verifier := &mockVerifier{result: true}
		dir := &mockDirectoryClient{}
		svc := newTestService(verifier, &mockQuotaStore{limit: 10}, &mockTokenProvider{token: "tok"}, dir)

		req := validRequest()
		req.Username = ""
		_, err := svc.Register(ctx, req)
		if !errors.Is(err, ErrMissingFields) {
			t.Fatalf("expected ErrMissingFields, got %v", err)
		}
		if verifier.calls != 0 {
			t.Fatalf("expected no bot verification for malformed input")
		}
		if dir.callCount() != 0 {
			t.Fatalf("expected no directory call")
		}
	})

	t.Run("bad recovery email rejected before bot check", func(t *testing.T) {
		verifier := &mockVerifier{result: true}
		svc := newTestService(verifier, &mockQuotaStore{limit: 10}, &mockTokenProvider{token: "tok"}, &mockDirectoryClient{})

		req := validRequest()
		req.RecoveryEmail = "not-an-email"
		_, err := svc.Register(ctx, req)
		if !errors.Is(err, ErrInvalidRecoveryEmail) {
			t.Fatalf("expected ErrInvalidRecoveryEmail, got %v", err)
		}
		if verifier.calls != 0 {
			t.Fatalf("expected no bot verification for bad email")
		}
	})

	t.Run("invite code comparison is case sensitive", func(t *testing.T) {
		svc := newTestService(&mockVerifier{result: true}, &mockQuotaStore{limit: 10}, &mockTokenProvider{token: "tok"}, &mockDirectoryClient{})

		req := validRequest()
		req.VerificationCode = "abc123"
		_, err := svc.Register(ctx, req)
		if !errors.Is(err, ErrInvalidInviteCode) {
			t.Fatalf("expected ErrInvalidInviteCode, got %v", err)
		}
	})

	t.Run("failed bot check rejects", func(t *testing.T) {
		dir := &mockDirectoryClient{}
		svc := newTestService(&mockVerifier{result: false}, &mockQuotaStore{limit: 10}, &mockTokenProvider{token: "tok"}, dir)

		_, err := svc.Register(ctx, validRequest())
		if !errors.Is(err, ErrBotCheckFailed) {
			t.Fatalf("expected ErrBotCheckFailed, got %v", err)
		}
		if dir.callCount() != 0 {
			t.Fatalf("expected no directory call")
		}
	})

	t.Run("exhausted quota rejects before provisioning", func(t *testing.T) {
		dir := &mockDirectoryClient{}
		store := &mockQuotaStore{registered: 10, limit: 10}
		svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{token: "tok"}, dir)

		_, err := svc.Register(ctx, validRequest())
		if !errors.Is(err, ErrQuotaExhausted) {
			t.Fatalf("expected ErrQuotaExhausted, got %v", err)
		}
		if dir.callCount() != 0 {
			t.Fatalf("expected no directory call")
		}
		if store.count() != 10 {
			t.Fatalf("expected counter untouched, got %d", store.count())
		}
	})

	t.Run("quota store failure is not exhaustion", func(t *testing.T) {
		store := &mockQuotaStore{limit: 10, snapErr: errors.New("redis down")}
		svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{token: "tok"}, &mockDirectoryClient{})

		_, err := svc.Register(ctx, validRequest())
		if err == nil || errors.Is(err, ErrQuotaExhausted) {
			t.Fatalf("expected a generic error, got %v", err)
		}
	})
}

func TestRegisterProvisioning(t *testing.T) {
	ctx := context.Background()

	t.Run("success provisions once and counts one", func(t *testing.T) {
		store := &mockQuotaStore{registered: 3, limit: 10}
		dir := &mockDirectoryClient{}
		svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{token: "tok-1"}, dir)

		res, err := svc.Register(ctx, validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.PrimaryEmail != "ada@example.edu" {
			t.Fatalf("unexpected primary email: %q", res.PrimaryEmail)
		}
		if dir.callCount() != 1 {
			t.Fatalf("expected exactly one provisioning call, got %d", dir.callCount())
		}
		if dir.lastTok != "tok-1" {
			t.Fatalf("expected fresh access token to be used, got %q", dir.lastTok)
		}
		if store.count() != 4 {
			t.Fatalf("expected count 4, got %d", store.count())
		}
		acc := dir.accounts[0]
		if acc.Name.GivenName != "Ada" || acc.Name.FamilyName != "Lovelace" {
			t.Fatalf("unexpected account name: %+v", acc.Name)
		}
		if acc.RecoveryEmail != "ada@backup.example.com" {
			t.Fatalf("unexpected recovery email: %q", acc.RecoveryEmail)
		}
	})

	t.Run("last slot reaches the limit exactly", func(t *testing.T) {
		store := &mockQuotaStore{registered: 9, limit: 10}
		svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{token: "tok"}, &mockDirectoryClient{})

		if _, err := svc.Register(ctx, validRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.count() != 10 {
			t.Fatalf("expected count 10, got %d", store.count())
		}
	})

	t.Run("token exchange failure leaves quota untouched", func(t *testing.T) {
		store := &mockQuotaStore{registered: 3, limit: 10}
		dir := &mockDirectoryClient{}
		svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{err: errors.New("invalid_grant")}, dir)

		_, err := svc.Register(ctx, validRequest())
		if err == nil {
			t.Fatalf("expected error")
		}
		var apiErr *directory.APIError
		if errors.As(err, &apiErr) {
			t.Fatalf("auth failure must not surface as upstream response")
		}
		if dir.callCount() != 0 {
			t.Fatalf("expected no directory call")
		}
		if store.count() != 3 {
			t.Fatalf("expected counter untouched, got %d", store.count())
		}
	})

	t.Run("upstream rejection surfaces message and releases the slot", func(t *testing.T) {
		store := &mockQuotaStore{registered: 3, limit: 10}
		dir := &mockDirectoryClient{err: &directory.APIError{StatusCode: 409, Message: "Entity already exists"}}
		svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{token: "tok"}, dir)

		_, err := svc.Register(ctx, validRequest())
		var apiErr *directory.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Message != "Entity already exists" {
			t.Fatalf("unexpected message: %q", apiErr.Message)
		}
		if store.count() != 3 {
			t.Fatalf("expected counter back to 3, got %d", store.count())
		}
	})

	t.Run("transport failure releases the slot", func(t *testing.T) {
		store := &mockQuotaStore{registered: 3, limit: 10}
		dir := &mockDirectoryClient{err: errors.New("connection refused")}
		svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{token: "tok"}, dir)

		_, err := svc.Register(ctx, validRequest())
		if err == nil {
			t.Fatalf("expected error")
		}
		if store.count() != 3 {
			t.Fatalf("expected counter back to 3, got %d", store.count())
		}
	})
}

// Dos solicitudes concurrentes con un solo cupo libre: ambas pueden
// pasar la lectura de admisión, pero la reserva atómica deja pasar a
// lo sumo una; la otra termina limpia con cupo agotado.
func TestRegisterConcurrentLastSlot(t *testing.T) {
	ctx := context.Background()
	store := &mockQuotaStore{registered: 9, limit: 10}
	dir := &mockDirectoryClient{}
	svc := newTestService(&mockVerifier{result: true}, store, &mockTokenProvider{token: "tok"}, dir)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, validRequest())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrQuotaExhausted):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes < 1 {
		t.Fatalf("expected at least one registration to succeed")
	}
	if store.count() > 10 {
		t.Fatalf("counter overshot the limit: %d", store.count())
	}
}
