package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sos/pkg/models"
)

// APIError is a failure reported by the server inside the envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// wireEnvelope mirrors the server's envelope with raw payload fields so
// each call can decode its own shape.
type wireEnvelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	User    json.RawMessage `json:"user"`
	Session json.RawMessage `json:"session"`
}

// API is the remote backend handle: one configured client used for all
// handler calls, attaching the current bearer token. Implements Backend
// for the session manager.
type API struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	access  string
	refresh string
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *API) SetSession(accessToken, refreshToken string) {
	a.mu.Lock()
	a.access = accessToken
	a.refresh = refreshToken
	a.mu.Unlock()
}

func (a *API) ClearSession() {
	a.SetSession("", "")
}

func (a *API) session() (string, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.access, a.refresh
}

func (a *API) do(ctx context.Context, method, path string, body any, authed bool) (wireEnvelope, error) {
	var env wireEnvelope

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return env, err
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return env, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		access, _ := a.session()
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return env, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("decoding response: %w", err)
	}

	if !env.Success {
		return env, &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	return env, nil
}

func (a *API) decodeAuth(env wireEnvelope) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := json.Unmarshal(env.User, &resp.User); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	if err := json.Unmarshal(env.Session, &resp.Session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	a.SetSession(resp.Session.AccessToken, resp.Session.RefreshToken)
	return &resp, nil
}

func (a *API) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	env, err := a.do(ctx, http.MethodPost, "/auth/register", req, false)
	if err != nil {
		return nil, err
	}
	return a.decodeAuth(env)
}

func (a *API) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	env, err := a.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, false)
	if err != nil {
		return nil, err
	}
	return a.decodeAuth(env)
}

// RestoreSession verifies the current access token, falling back to a
// refresh when the server rejects it.
func (a *API) RestoreSession(ctx context.Context) (RestoredSession, error) {
	access, refresh := a.session()

	if _, err := a.do(ctx, http.MethodGet, "/auth/session", nil, true); err == nil {
		return RestoredSession{AccessToken: access, RefreshToken: refresh}, nil
	}

	env, err := a.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, false)
	if err != nil {
		return RestoredSession{}, err
	}

	var session models.AuthSession
	if err := json.Unmarshal(env.Session, &session); err != nil {
		return RestoredSession{}, fmt.Errorf("decoding session: %w", err)
	}

	a.SetSession(session.AccessToken, session.RefreshToken)
	return RestoredSession{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		Rotated:      true,
	}, nil
}

func (a *API) SignOut(ctx context.Context) error {
	_, refresh := a.session()
	_, err := a.do(ctx, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": refresh}, true)
	return err
}

func (a *API) CreateEmergency(ctx context.Context, req models.CreateEmergencyRequest) (models.Emergency, error) {
	var emergency models.Emergency
	env, err := a.do(ctx, http.MethodPost, "/emergencies/", req, true)
	if err != nil {
		return emergency, err
	}
	err = json.Unmarshal(env.Data, &emergency)
	return emergency, err
}

func (a *API) GetEmergencies(ctx context.Context) ([]models.Emergency, error) {
	env, err := a.do(ctx, http.MethodGet, "/emergencies/", nil, true)
	if err != nil {
		return nil, err
	}
	var list []models.Emergency
	err = json.Unmarshal(env.Data, &list)
	return list, err
}

func (a *API) GetProfile(ctx context.Context) (models.Profile, error) {
	var profile models.Profile
	env, err := a.do(ctx, http.MethodGet, "/profile/", nil, true)
	if err != nil {
		return profile, err
	}
	err = json.Unmarshal(env.Data, &profile)
	return profile, err
}

// UpdateProfile sends a free-form field map; the server applies its
// allow-list and drops anything else.
func (a *API) UpdateProfile(ctx context.Context, fields map[string]any) (models.Profile, error) {
	var profile models.Profile
	env, err := a.do(ctx, http.MethodPut, "/profile/", fields, true)
	if err != nil {
		return profile, err
	}
	err = json.Unmarshal(env.Data, &profile)
	return profile, err
}
