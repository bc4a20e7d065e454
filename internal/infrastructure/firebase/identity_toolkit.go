package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lostfound/internal/domain/service"
	"lostfound/pkg/errors"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// IdentityToolkit talks to the Firebase Auth REST API with a web API key.
type IdentityToolkit struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewIdentityToolkit(apiKey string, httpClient *http.Client) *IdentityToolkit {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &IdentityToolkit{
		apiKey:     apiKey,
		baseURL:    identityToolkitURL,
		httpClient: httpClient,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type toolkitErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *IdentityToolkit) SignInWithPassword(ctx context.Context, email, password string) (*service.SignInResult, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, errors.Internal("Failed to encode sign-in request", err)
	}

	endpoint := t.baseURL + "/accounts:signInWithPassword?" + url.Values{"key": {t.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Internal("Failed to build sign-in request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Store("Failed to reach authentication provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp toolkitErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return nil, errors.Store("Authentication provider error", fmt.Errorf("status %d", resp.StatusCode))
		}
		return nil, mapToolkitError(errResp.Error.Message)
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Store("Failed to decode sign-in response", err)
	}

	return &service.SignInResult{
		UID:          out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

// mapToolkitError turns REST error messages such as "EMAIL_NOT_FOUND" or
// "WEAK_PASSWORD : Password should be at least 6 characters" into AppErrors.
func mapToolkitError(message string) error {
	code := message
	if i := strings.Index(message, " "); i > 0 {
		code = message[:i]
	}
	cause := fmt.Errorf("%s", message)

	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL":
		return errors.InvalidCredentials(cause)
	case "EMAIL_EXISTS":
		return errors.EmailInUse(cause)
	case "WEAK_PASSWORD":
		return errors.WeakPassword("Password must be at least 6 characters", cause)
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return errors.TooManyRequests("Too many sign-in attempts, try again later")
	}
	return errors.Store("Authentication provider error", cause)
}
