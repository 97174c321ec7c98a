// Package auth talks to the Keycloak realm that holds scout accounts.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"scoutly/internal/common/errors"
	scouthttp "scoutly/internal/common/http"
)

// KeycloakClient signs scouts in with the password grant and creates accounts
// through the admin API.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *scouthttp.Client

	mu          sync.Mutex
	adminToken  string
	adminExpiry time.Time
}

// User is the admin API representation of an account.
type User struct {
	ID            string       `json:"id,omitempty"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	Username      string       `json:"username"`
	Enabled       bool         `json:"enabled"`
	EmailVerified bool         `json:"emailVerified"`
	Credentials   []Credential `json:"credentials,omitempty"`
}

type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
}

// UserInfo is the OIDC userinfo document.
type UserInfo struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string, timeout time.Duration) *KeycloakClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   scouthttp.NewClient(timeout),
	}
}

func (k *KeycloakClient) realmURL(path string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", k.baseURL, k.realm, path)
}

func (k *KeycloakClient) clientForm() url.Values {
	data := url.Values{}
	data.Set("client_id", k.clientID)
	if k.clientSecret != "" {
		data.Set("client_secret", k.clientSecret)
	}
	return data
}

// PasswordGrant exchanges scout credentials for tokens.
func (k *KeycloakClient) PasswordGrant(ctx context.Context, username, password string) (*TokenResponse, error) {
	data := k.clientForm()
	data.Set("grant_type", "password")
	data.Set("username", username)
	data.Set("password", password)
	data.Set("scope", "openid email profile")

	resp, err := k.httpClient.PostForm(ctx, k.realmURL("token"), data, "")
	if err != nil {
		return nil, errors.NewIdentityUnavailableError(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.NewInvalidCredentialsError(fmt.Errorf("token endpoint: %s", string(resp.Body)))
	default:
		return nil, k.apiError("password grant", resp)
	}

	var tokens TokenResponse
	if err := resp.DecodeJSON(&tokens); err != nil {
		return nil, errors.NewIdentityUnavailableError(err)
	}
	return &tokens, nil
}

// RefreshGrant renews an expired access token.
func (k *KeycloakClient) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := k.clientForm()
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	resp, err := k.httpClient.PostForm(ctx, k.realmURL("token"), data, "")
	if err != nil {
		return nil, errors.NewIdentityUnavailableError(err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.NewNotAuthenticatedError()
	default:
		return nil, k.apiError("refresh grant", resp)
	}

	var tokens TokenResponse
	if err := resp.DecodeJSON(&tokens); err != nil {
		return nil, errors.NewIdentityUnavailableError(err)
	}
	return &tokens, nil
}

// UserInfo resolves the account behind an access token.
func (k *KeycloakClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	resp, err := k.httpClient.Get(ctx, k.realmURL("userinfo"), accessToken)
	if err != nil {
		return nil, errors.NewIdentityUnavailableError(err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.NewNotAuthenticatedError()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, k.apiError("userinfo", resp)
	}

	var info UserInfo
	if err := resp.DecodeJSON(&info); err != nil {
		return nil, errors.NewIdentityUnavailableError(err)
	}
	return &info, nil
}

// CreateUser registers a new enabled account with a permanent password.
func (k *KeycloakClient) CreateUser(ctx context.Context, user *User, password string) (*User, error) {
	token, err := k.getAdminToken(ctx)
	if err != nil {
		return nil, err
	}

	if user.Username == "" {
		user.Username = user.Email
	}
	user.Enabled = true
	user.Credentials = []Credential{{Type: "password", Value: password}}

	resp, err := k.httpClient.PostJSON(ctx, fmt.Sprintf("%s/admin/realms/%s/users", k.baseURL, k.realm), user, token)
	user.Credentials = nil
	if err != nil {
		return nil, errors.NewIdentityUnavailableError(err)
	}

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		return nil, errors.NewSignupConflictError(user.Email)
	default:
		return nil, k.apiError("create user", resp)
	}

	// The new id is the last segment of the Location header.
	if location := resp.Header.Get("Location"); location != "" {
		parts := strings.Split(location, "/")
		user.ID = parts[len(parts)-1]
	}
	return user, nil
}

// Logout revokes the session behind refreshToken.
func (k *KeycloakClient) Logout(ctx context.Context, refreshToken string) error {
	data := k.clientForm()
	data.Set("refresh_token", refreshToken)

	resp, err := k.httpClient.PostForm(ctx, k.realmURL("logout"), data, "")
	if err != nil {
		return errors.NewIdentityUnavailableError(err)
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return k.apiError("logout", resp)
	}
	return nil
}

// getAdminToken fetches a client-credentials token and caches it until expiry.
func (k *KeycloakClient) getAdminToken(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.adminToken != "" && k.adminExpiry.After(time.Now()) {
		return k.adminToken, nil
	}

	data := k.clientForm()
	data.Set("grant_type", "client_credentials")

	resp, err := k.httpClient.PostForm(ctx, k.realmURL("token"), data, "")
	if err != nil {
		return "", errors.NewIdentityUnavailableError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", k.apiError("client credentials", resp)
	}

	var tokens TokenResponse
	if err := resp.DecodeJSON(&tokens); err != nil {
		return "", errors.NewIdentityUnavailableError(err)
	}

	k.adminToken = tokens.AccessToken
	// renew slightly early
	k.adminExpiry = time.Now().Add(time.Duration(tokens.ExpiresIn)*time.Second - 5*time.Second)
	return k.adminToken, nil
}

func (k *KeycloakClient) apiError(op string, resp *scouthttp.Response) error {
	se := errors.NewIdentityUnavailableError(
		fmt.Errorf("keycloak %s failed with status %d: %s", op, resp.StatusCode, string(resp.Body)))
	se.Retryable = scouthttp.IsTransient(resp.StatusCode)
	return se
}

// SplitName maps a full name onto Keycloak's first/last name fields.
func SplitName(fullName string) (first, last string) {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
