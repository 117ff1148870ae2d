package services

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"sos/pkg/cache"
	"sos/pkg/middleware"
	"sos/pkg/models"
	"sos/pkg/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 1 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

type AuthService interface {
	Register(req models.RegisterRequest, userAgent, ip string) (models.AuthResponse, error)
	Login(req models.LoginRequest, userAgent, ip string) (models.AuthResponse, error)
	Refresh(refreshToken string) (models.AuthResponse, error)
	Me(userID string) (models.User, error)
	Logout(refreshToken, userID string) error
	LogoutAll(userID string) error
	CleanExpiredSessions() error
}

type cachedUser struct {
	User      models.User
	ExpiresAt time.Time
}

type authService struct {
	repo      repository.AuthRepository
	cache     cache.Cache
	jwtSecret string

	mu   sync.RWMutex
	byID map[string]*cachedUser
}

func NewAuthService(repo repository.AuthRepository, c cache.Cache) AuthService {
	s := &authService{
		repo:      repo,
		cache:     c,
		jwtSecret: middleware.JwtSecret(),
		byID:      make(map[string]*cachedUser),
	}
	go s.cleanupUsers()
	return s
}

func (s *authService) Register(req models.RegisterRequest, userAgent, ip string) (models.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return models.AuthResponse{}, fiber.NewError(400, "Missing required fields")
	}
	if err := validateEmail(req.Email); err != nil {
		return models.AuthResponse{}, err
	}
	if err := validatePassword(req.Password); err != nil {
		return models.AuthResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.AuthResponse{}, fiber.NewError(500, "Internal error")
	}

	profile := models.Profile{
		Name:      req.Name,
		BloodType: req.BloodType,
		Phone:     req.Phone,
	}

	user, err := s.repo.CreateUserWithProfile(uuid.NewString(), req.Email, string(hashed), profile)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return models.AuthResponse{}, fiber.NewError(409, "Email already registered")
		}
		return models.AuthResponse{}, fiber.NewError(500, "Error creating account")
	}

	s.setUser(user)
	return s.createSessionAndRespond(user, userAgent, ip)
}

func (s *authService) Login(req models.LoginRequest, userAgent, ip string) (models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return models.AuthResponse{}, fiber.NewError(400, "Missing email or password")
	}

	user, hashedPw, err := s.repo.GetUserByEmail(req.Email)
	if err != nil {
		return models.AuthResponse{}, fiber.NewError(401, "Invalid login credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPw), []byte(req.Password)); err != nil {
		return models.AuthResponse{}, fiber.NewError(401, "Invalid login credentials")
	}

	s.setUser(user)
	return s.createSessionAndRespond(user, userAgent, ip)
}

func (s *authService) Refresh(refreshToken string) (models.AuthResponse, error) {
	if refreshToken == "" {
		return models.AuthResponse{}, fiber.NewError(400, "Missing refresh token")
	}

	session, user, err := s.repo.GetSessionByToken(refreshToken)
	if err != nil {
		return models.AuthResponse{}, fiber.NewError(401, "Invalid or expired session")
	}

	if time.Now().After(session.ExpiresAt) {
		s.repo.DeleteSessionByID(session.ID)
		return models.AuthResponse{}, fiber.NewError(401, "Session expired, please log in again")
	}

	newRefresh := generateRefreshToken()
	newExpiry := time.Now().Add(refreshTokenTTL)

	if err := s.repo.UpdateSession(session.ID, newRefresh, newExpiry); err != nil {
		return models.AuthResponse{}, fiber.NewError(500, "Internal error")
	}

	s.setUser(user)
	return models.AuthResponse{
		User: user,
		Session: models.AuthSession{
			AccessToken:  s.generateAccessToken(user),
			RefreshToken: newRefresh,
			ExpiresIn:    int(accessTokenTTL.Seconds()),
		},
	}, nil
}

func (s *authService) Me(userID string) (models.User, error) {
	if user, ok := s.getUser(userID); ok {
		return user, nil
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return models.User{}, fiber.NewError(404, "User not found")
	}

	s.setUser(user)
	return user, nil
}

// Logout is idempotent: deleting an unknown refresh token is not an error.
func (s *authService) Logout(refreshToken, userID string) error {
	if refreshToken != "" {
		s.repo.DeleteSessionByToken(refreshToken)
	}
	if userID != "" {
		s.deleteUser(userID)
	}
	return nil
}

// LogoutAll revokes every refresh session of the user and sweeps the
// per-user cache keys ("profile:<id>", "emergencies:<id>") so no stale
// state survives the sign-out.
func (s *authService) LogoutAll(userID string) error {
	if err := s.repo.DeleteAllSessionsByUserID(userID); err != nil {
		return fiber.NewError(500, "Internal error")
	}
	s.deleteUser(userID)
	s.cache.DelPattern("*:" + userID)
	return nil
}

func (s *authService) CleanExpiredSessions() error {
	return s.repo.DeleteExpiredSessions()
}

func (s *authService) createSessionAndRespond(user models.User, userAgent, ip string) (models.AuthResponse, error) {
	refreshToken := generateRefreshToken()
	expiresAt := time.Now().Add(refreshTokenTTL)

	if err := s.repo.CreateSession(user.ID, refreshToken, userAgent, ip, expiresAt); err != nil {
		return models.AuthResponse{}, fiber.NewError(500, "Error creating session")
	}

	return models.AuthResponse{
		User: user,
		Session: models.AuthSession{
			AccessToken:  s.generateAccessToken(user),
			RefreshToken: refreshToken,
			ExpiresIn:    int(accessTokenTTL.Seconds()),
		},
	}, nil
}

func (s *authService) generateAccessToken(user models.User) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        user.ID,
		"email":      user.Email,
		"exp":        now.Add(accessTokenTTL).Unix(),
		"iat":        now.Unix(),
		"token_type": "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(s.jwtSecret))
	return signed
}

func generateRefreshToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *authService) getUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item, ok := s.byID[id]; ok && time.Now().Before(item.ExpiresAt) {
		return item.User, true
	}
	return models.User{}, false
}

func (s *authService) setUser(user models.User) {
	s.mu.Lock()
	s.byID[user.ID] = &cachedUser{User: user, ExpiresAt: time.Now().Add(15 * time.Minute)}
	s.mu.Unlock()
}

func (s *authService) deleteUser(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

func (s *authService) cleanupUsers() {
	for {
		time.Sleep(10 * time.Minute)
		s.mu.Lock()
		now := time.Now()
		for k, v := range s.byID {
			if now.After(v.ExpiresAt) {
				delete(s.byID, k)
			}
		}
		s.mu.Unlock()
	}
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return fiber.NewError(400, "Invalid email address")
	}
	if len(email) > 254 {
		return fiber.NewError(400, "Email too long")
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < 8 {
		return fiber.NewError(400, "Password must be at least 8 characters")
	}
	if len(p) > 128 {
		return fiber.NewError(400, "Password too long")
	}
	return nil
}
