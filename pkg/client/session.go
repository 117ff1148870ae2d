package client

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"
)

const (
	// The whole session tuple lives under one key so persistence is
	// all-or-nothing; a crash can never leave half a session behind.
	keyAuthSession = "@auth_session"
	keyAppTheme    = "@app_theme"

	// Legacy layout: four independent keys. Read once on load for
	// migration, then cleared.
	legacyKeyToken   = "@auth_token"
	legacyKeyRefresh = "@auth_refresh"
	legacyKeyUserID  = "@auth_userId"
	legacyKeyExpiry  = "@auth_expiry"
)

// Backend is the remote auth surface the session manager forwards
// tokens to. The API client implements it.
type Backend interface {
	// SetSession makes subsequent backend calls use this token pair.
	SetSession(accessToken, refreshToken string)
	// RestoreSession verifies the pair set via SetSession, refreshing
	// it when the access token has gone stale.
	RestoreSession(ctx context.Context) (RestoredSession, error)
	SignOut(ctx context.Context) error
	ClearSession()
}

// RestoredSession is the (possibly rotated) pair after a restore.
type RestoredSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Rotated      bool
}

type sessionRecord struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	UserID           string `json:"user_id"`
	ExpiresAtEpochMs int64  `json:"expires_at_ms"`
}

func (r sessionRecord) complete() bool {
	return r.AccessToken != "" && r.RefreshToken != "" && r.UserID != ""
}

func (r sessionRecord) expired(now time.Time) bool {
	return r.ExpiresAtEpochMs != 0 && r.ExpiresAtEpochMs <= now.UnixMilli()
}

// SessionManager owns the client-held session: in-memory copy plus the
// persisted record, with the backend kept in sync. Reads are safe from
// any number of in-flight requests; writes replace the whole tuple.
type SessionManager struct {
	store   Store
	backend Backend
	now     func() time.Time

	mu        sync.RWMutex
	token     string
	refresh   string
	userID    string
	expiresAt int64
	loaded    bool
}

func NewSessionManager(store Store, backend Backend) *SessionManager {
	return &SessionManager{store: store, backend: backend, now: time.Now}
}

// Load restores the persisted session on startup. Any storage or
// backend failure degrades to logged-out instead of surfacing an
// error; Loaded reports true afterwards either way, so UI can tell
// "still loading" from "confirmed logged out".
func (m *SessionManager) Load(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.loaded = true
		m.mu.Unlock()
	}()

	rec, found := m.readRecord()
	legacy := false
	if !found {
		rec, found = m.readLegacyRecord()
		legacy = found
	}

	if !found || !rec.complete() || rec.expired(m.now()) {
		m.clear(ctx, false)
		return
	}

	m.mu.Lock()
	m.token = rec.AccessToken
	m.refresh = rec.RefreshToken
	m.userID = rec.UserID
	m.expiresAt = rec.ExpiresAtEpochMs
	m.mu.Unlock()

	m.backend.SetSession(rec.AccessToken, rec.RefreshToken)

	restored, err := m.backend.RestoreSession(ctx)
	if err != nil {
		log.Printf("[AUTH] session restore failed: %v", err)
		m.clear(ctx, true)
		return
	}

	switch {
	case restored.Rotated:
		var expiresAt int64
		if restored.ExpiresIn > 0 {
			expiresAt = m.now().Add(time.Duration(restored.ExpiresIn) * time.Second).UnixMilli()
		}
		m.apply(sessionRecord{
			AccessToken:      restored.AccessToken,
			RefreshToken:     restored.RefreshToken,
			UserID:           rec.UserID,
			ExpiresAtEpochMs: expiresAt,
		})
	case legacy:
		// Migrate the four-key layout to the single record.
		m.apply(rec)
	}

	if legacy {
		m.store.Delete(legacyKeyToken, legacyKeyRefresh, legacyKeyUserID, legacyKeyExpiry)
	}
}

// SetAuth stores a fresh session after login or register and points the
// backend at it.
func (m *SessionManager) SetAuth(ctx context.Context, accessToken, refreshToken, userID string, expiresIn int) {
	var expiresAt int64
	if expiresIn > 0 {
		expiresAt = m.now().Add(time.Duration(expiresIn) * time.Second).UnixMilli()
	}

	m.apply(sessionRecord{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		UserID:           userID,
		ExpiresAtEpochMs: expiresAt,
	})
}

// Logout clears persisted and in-memory state and signs out of the
// backend. Safe to call when already logged out.
func (m *SessionManager) Logout(ctx context.Context) {
	m.clear(ctx, true)
}

func (m *SessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *SessionManager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

func (m *SessionManager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

func (m *SessionManager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

func (m *SessionManager) LoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.userID != ""
}

func (m *SessionManager) apply(rec sessionRecord) {
	data, err := json.Marshal(rec)
	if err == nil {
		if err := m.store.Set(keyAuthSession, string(data)); err != nil {
			log.Printf("[AUTH] failed to persist session: %v", err)
		}
	}

	m.mu.Lock()
	m.token = rec.AccessToken
	m.refresh = rec.RefreshToken
	m.userID = rec.UserID
	m.expiresAt = rec.ExpiresAtEpochMs
	m.mu.Unlock()

	m.backend.SetSession(rec.AccessToken, rec.RefreshToken)
}

func (m *SessionManager) clear(ctx context.Context, signOut bool) {
	if err := m.store.Delete(
		keyAuthSession,
		legacyKeyToken, legacyKeyRefresh, legacyKeyUserID, legacyKeyExpiry,
	); err != nil {
		log.Printf("[AUTH] failed to clear session storage: %v", err)
	}

	m.mu.Lock()
	m.token = ""
	m.refresh = ""
	m.userID = ""
	m.expiresAt = 0
	m.mu.Unlock()

	if signOut {
		if err := m.backend.SignOut(ctx); err != nil {
			log.Printf("[AUTH] sign-out failed: %v", err)
		}
	}
	m.backend.ClearSession()
}

func (m *SessionManager) readRecord() (sessionRecord, bool) {
	raw, ok := m.store.Get(keyAuthSession)
	if !ok {
		return sessionRecord{}, false
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Printf("[AUTH] corrupt session record: %v", err)
		return sessionRecord{}, false
	}
	return rec, true
}

func (m *SessionManager) readLegacyRecord() (sessionRecord, bool) {
	token, okToken := m.store.Get(legacyKeyToken)
	refresh, okRefresh := m.store.Get(legacyKeyRefresh)
	userID, okUser := m.store.Get(legacyKeyUserID)
	if !okToken && !okRefresh && !okUser {
		return sessionRecord{}, false
	}

	rec := sessionRecord{AccessToken: token, RefreshToken: refresh, UserID: userID}
	if raw, ok := m.store.Get(legacyKeyExpiry); ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			rec.ExpiresAtEpochMs = ms
		}
	}
	return rec, true
}
