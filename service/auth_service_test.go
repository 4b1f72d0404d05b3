package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/walletgate/adapters/store"
	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/ports"
)

// fakeRegistry records pushes instead of delivering them.
type fakeRegistry struct {
	mu       sync.Mutex
	sessions map[string]core.Session
	pushes   map[string][]core.ServerMessage
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		sessions: make(map[string]core.Session),
		pushes:   make(map[string][]core.ServerMessage),
	}
}

func (r *fakeRegistry) add(id, challenge string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = core.Session{ID: id, Challenge: challenge, CreatedAt: time.Now()}
}

func (r *fakeRegistry) Get(sessionID string) (core.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

func (r *fakeRegistry) Push(sessionID string, msg core.ServerMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	r.pushes[sessionID] = append(r.pushes[sessionID], msg)
}

func (r *fakeRegistry) pushed(sessionID string) []core.ServerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.ServerMessage(nil), r.pushes[sessionID]...)
}

// stubIssuer returns a fixed token and counts calls.
type stubIssuer struct {
	mu    sync.Mutex
	token string
	calls int
}

func (i *stubIssuer) Issue(ctx context.Context, identity *core.Identity) (*ports.IssuedToken, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	return &ports.IssuedToken{
		AccessToken: i.token,
		Permissions: identity.Permissions,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
	}, nil
}

func (i *stubIssuer) Parse(ctx context.Context, tokenStr string) (*ports.TokenClaims, error) {
	return nil, core.ErrInvalidToken
}

type nopEvents struct{}

func (nopEvents) PublishLogin(ctx context.Context, identityID, address string) error  { return nil }
func (nopEvents) PublishIdentityCreated(ctx context.Context, id, addr string) error   { return nil }
func (nopEvents) PublishLogout(ctx context.Context, identityID, tokenID string) error { return nil }

func signChallenge(t *testing.T, challenge string) (sigHex, address string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(challenge)), key)
	require.NoError(t, err)
	sig[64] += 27
	return hexutil.Encode(sig), crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeRegistry, *store.MemoryIdentityStore, *stubIssuer) {
	t.Helper()
	reg := newFakeRegistry()
	identities := store.NewMemoryIdentityStore()
	issuer := &stubIssuer{token: "test-access-token"}
	auth := NewAuthService(reg, identities, issuer, store.NewMemoryRevocationStore(), nopEvents{}, nil)
	return auth, reg, identities, issuer
}

func TestLoginWalletAccessGranted(t *testing.T) {
	auth, reg, identities, issuer := newTestAuthService(t)

	reg.add("s1", "c1")
	sigHex, address := signChallenge(t, "c1")

	_, err := identities.Create(context.Background(), core.Candidate{WalletAddress: address})
	require.NoError(t, err)

	result, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s1", Signature: sigHex})
	require.NoError(t, err)

	assert.Equal(t, AccessGranted, result.Outcome)
	assert.Equal(t, "test-access-token", result.AccessToken)
	assert.Equal(t, address, result.Address)
	assert.Equal(t, 1, issuer.calls)

	pushes := reg.pushed("s1")
	require.Len(t, pushes, 1)
	assert.Equal(t, core.ActionAccessGranted, pushes[0].Action)
	assert.Equal(t, "test-access-token", pushes[0].AccessToken)
	assert.Empty(t, pushes[0].EncryptedWallet)
}

func TestLoginWalletAccountLocked(t *testing.T) {
	auth, reg, identities, issuer := newTestAuthService(t)

	reg.add("s1", "c1")
	sigHex, address := signChallenge(t, "c1")

	identity, err := identities.Create(context.Background(), core.Candidate{WalletAddress: address})
	require.NoError(t, err)
	identities.SetActive(identity.ID, false)

	result, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s1", Signature: sigHex})
	require.NoError(t, err)

	assert.Equal(t, AccountLocked, result.Outcome)
	assert.Empty(t, result.AccessToken)
	assert.Zero(t, issuer.calls, "no token may be issued for a locked account")

	pushes := reg.pushed("s1")
	require.Len(t, pushes, 1)
	assert.Equal(t, core.ServerMessage{Action: core.ActionAccountLocked}, pushes[0])
}

func TestLoginWalletUnauthorized(t *testing.T) {
	auth, reg, _, issuer := newTestAuthService(t)

	reg.add("s1", "c1")
	sigHex, address := signChallenge(t, "c1")

	result, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s1", Signature: sigHex})
	require.NoError(t, err)

	assert.Equal(t, Unauthorized, result.Outcome)
	assert.Equal(t, address, result.Address)
	assert.Zero(t, issuer.calls)

	pushes := reg.pushed("s1")
	require.Len(t, pushes, 1)
	assert.Equal(t, core.ActionUnauthorized, pushes[0].Action)
	assert.Equal(t, address, pushes[0].Address, "unauthorized push carries the recovered address")
}

func TestLoginWalletSessionNotFound(t *testing.T) {
	auth, reg, _, _ := newTestAuthService(t)

	sigHex, _ := signChallenge(t, "c1")

	_, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "missing", Signature: sigHex})
	require.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.Empty(t, reg.pushed("missing"), "no push may be attempted without a session")
}

func TestLoginWalletMalformedSignature(t *testing.T) {
	auth, reg, _, _ := newTestAuthService(t)

	reg.add("s1", "c1")

	_, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s1", Signature: "0xdeadbeef"})
	require.ErrorIs(t, err, core.ErrMalformedSignature)
	assert.Empty(t, reg.pushed("s1"), "protocol faults are not pushed to the session")
}

func TestLoginWalletLockedTakesPriorityOverUnknown(t *testing.T) {
	// The isActive check must run against the found identity before
	// the not-found branch is ever considered.
	auth, reg, identities, _ := newTestAuthService(t)

	reg.add("s1", "c1")
	sigHex, address := signChallenge(t, "c1")

	identity, err := identities.Create(context.Background(), core.Candidate{
		WalletAddress: address,
		Email:         "locked@example.com",
	})
	require.NoError(t, err)
	identities.SetActive(identity.ID, false)

	result, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s1", Signature: sigHex})
	require.NoError(t, err)
	assert.Equal(t, AccountLocked, result.Outcome)

	pushes := reg.pushed("s1")
	require.Len(t, pushes, 1)
	assert.Equal(t, core.ActionAccountLocked, pushes[0].Action)
}

func TestLoginWalletCaseInsensitiveAddressMatch(t *testing.T) {
	auth, reg, identities, _ := newTestAuthService(t)

	reg.add("s1", "c1")
	sigHex, address := signChallenge(t, "c1")

	// Stored mixed-case; recovery yields checksum casing; they must
	// still match.
	_, err := identities.Create(context.Background(), core.Candidate{WalletAddress: "0x" + strings.ToUpper(address[2:])})
	require.NoError(t, err)

	result, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s1", Signature: sigHex})
	require.NoError(t, err)
	assert.Equal(t, AccessGranted, result.Outcome)
}

func TestLoginWalletEncryptedWalletPassthrough(t *testing.T) {
	auth, reg, identities, _ := newTestAuthService(t)

	reg.add("s1", "c1")
	sigHex, address := signChallenge(t, "c1")

	_, err := identities.Create(context.Background(), core.Candidate{WalletAddress: address})
	require.NoError(t, err)

	_, err = auth.LoginWallet(context.Background(), LoginRequest{
		SessionID:       "s1",
		Signature:       sigHex,
		EncryptedWallet: "opaque-blob",
	})
	require.NoError(t, err)

	pushes := reg.pushed("s1")
	require.Len(t, pushes, 1)
	assert.Equal(t, "opaque-blob", pushes[0].EncryptedWallet)
}

func TestLoginWalletOutcomeIndependentOfChallenge(t *testing.T) {
	// The same signature against a fresh session with a different
	// challenge recovers a different address; the identity lookup is a
	// pure function of the recovered address.
	auth, reg, identities, _ := newTestAuthService(t)

	reg.add("s1", "c1")
	sigHex, address := signChallenge(t, "c1")
	_, err := identities.Create(context.Background(), core.Candidate{WalletAddress: address})
	require.NoError(t, err)

	first, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s1", Signature: sigHex})
	require.NoError(t, err)
	assert.Equal(t, AccessGranted, first.Outcome)

	reg.add("s2", "c2")
	second, err := auth.LoginWallet(context.Background(), LoginRequest{SessionID: "s2", Signature: sigHex})
	require.NoError(t, err)
	assert.NotEqual(t, address, second.Address)
	assert.Equal(t, Unauthorized, second.Outcome)
}

func TestLogoutRevokesToken(t *testing.T) {
	reg := newFakeRegistry()
	identities := store.NewMemoryIdentityStore()
	revocation := store.NewMemoryRevocationStore()
	issuer := &parseableIssuer{claims: ports.TokenClaims{
		TokenID:    "jti-1",
		IdentityID: "id-1",
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}}
	auth := NewAuthService(reg, identities, issuer, revocation, nopEvents{}, nil)

	require.NoError(t, auth.Logout(context.Background(), "whatever"))

	revoked, err := revocation.IsTokenRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestValidateAccessTokenRejectsRevokedAndInactive(t *testing.T) {
	reg := newFakeRegistry()
	identities := store.NewMemoryIdentityStore()
	revocation := store.NewMemoryRevocationStore()

	identity, err := identities.Create(context.Background(), core.Candidate{WalletAddress: "0xabc"})
	require.NoError(t, err)

	issuer := &parseableIssuer{claims: ports.TokenClaims{
		TokenID:    "jti-1",
		IdentityID: identity.ID,
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}}
	auth := NewAuthService(reg, identities, issuer, revocation, nopEvents{}, nil)

	got, _, err := auth.ValidateAccessToken(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, got.ID)

	require.NoError(t, revocation.RevokeToken(context.Background(), "jti-1", time.Minute))
	_, _, err = auth.ValidateAccessToken(context.Background(), "t")
	require.ErrorIs(t, err, core.ErrTokenRevoked)

	issuer.claims.TokenID = "jti-2"
	identities.SetActive(identity.ID, false)
	_, _, err = auth.ValidateAccessToken(context.Background(), "t")
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

// parseableIssuer returns fixed claims from Parse.
type parseableIssuer struct {
	claims ports.TokenClaims
}

func (i *parseableIssuer) Issue(ctx context.Context, identity *core.Identity) (*ports.IssuedToken, error) {
	return nil, errors.New("not implemented")
}

func (i *parseableIssuer) Parse(ctx context.Context, tokenStr string) (*ports.TokenClaims, error) {
	c := i.claims
	return &c, nil
}
