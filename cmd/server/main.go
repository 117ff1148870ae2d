package main

import (
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"sos/pkg/broker"
	"sos/pkg/cache"
	"sos/pkg/database"
	"sos/pkg/handlers"
	"sos/pkg/hub"
	"sos/pkg/middleware"
	"sos/pkg/repository"
	"sos/pkg/server"
	"sos/pkg/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/golang-jwt/jwt/v5"
)

func main() {
	db := database.Connect()
	defer db.Close()

	// Serverless PG: keep pool small, connections short-lived
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	setupDatabase(db)

	log.Println("[SOS] Connecting to Redis...")
	redis := cache.New()
	defer redis.Close()
	log.Println("[SOS] Redis connected")

	events := broker.New()
	defer events.Close()

	wsHub := hub.New()
	events.On(broker.ActionEmergencyStatus, func(ev broker.Event) {
		raw, err := ev.Marshal()
		if err != nil {
			return
		}
		wsHub.SendToUser(ev.UserID, raw)
	})
	events.Subscribe(broker.EventsChannel)

	authRepo := repository.NewAuthRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	emergencyRepo := repository.NewEmergencyRepository(db)

	authService := services.NewAuthService(authRepo, redis)
	profileService := services.NewProfileService(profileRepo, redis)
	emergencyService := services.NewEmergencyService(emergencyRepo, redis, events)

	go cleanExpiredSessions(authService)

	auth := handlers.NewAuth(authService)
	profile := handlers.NewProfile(profileService)
	emergency := handlers.NewEmergency(emergencyService)

	app := server.NewApp("sos")

	authGroup := app.Group("/auth")
	authGroup.Post("/register", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.Register)

	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.Login)

	authGroup.Post("/refresh", auth.Refresh)

	protected := authGroup.Group("", middleware.AuthMiddleware)
	protected.Get("/session", auth.Session)
	protected.Post("/logout", auth.Logout)
	protected.Post("/logout-all", auth.LogoutAll)

	profileGroup := app.Group("/profile", middleware.AuthMiddleware)
	profileGroup.Get("/", profile.Get)
	profileGroup.Put("/", profile.Update)

	emergencyGroup := app.Group("/emergencies", middleware.AuthMiddleware)
	emergencyGroup.Post("/", emergency.Create)
	emergencyGroup.Get("/", emergency.List)

	internal := app.Group("/internal", middleware.AdminMiddleware)
	internal.Patch("/emergencies/:id/status", emergency.UpdateStatus)

	app.Get("/hub/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"clients":       wsHub.ClientCount(),
			"authenticated": wsHub.AuthenticatedCount(),
		})
	})

	app.Use("/ws", parseWSToken)
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		wsHub.HandleClientConn(c, userID)
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := "0.0.0.0:" + port
	log.Printf("[SOS] Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("[SOS] Failed to start: %v", err)
	}
}

func parseWSToken(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = authHeader[7:]
		}
	}

	userID := ""

	if tokenStr != "" {
		token, err := jwt.ParseWithClaims(tokenStr, &jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(middleware.JwtSecret()), nil
		})

		if err == nil && token.Valid {
			claims := token.Claims.(*jwt.MapClaims)
			if sub, ok := (*claims)["sub"].(string); ok {
				userID = sub
			}
		}
	}

	c.Locals("user_id", userID)
	return c.Next()
}

func setupDatabase(db *sql.DB) {
	db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`)

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id SERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			refresh_token TEXT UNIQUE NOT NULL,
			user_agent TEXT NOT NULL DEFAULT '',
			ip TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			blood_type TEXT,
			phone TEXT,
			date_of_birth TEXT,
			allergies TEXT,
			medications TEXT,
			conditions TEXT,
			emergency_contact_name TEXT,
			emergency_contact_phone TEXT,
			emergency_contact_relationship TEXT,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS emergencies (
			id SERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			nature_of_emergency TEXT NOT NULL,
			additional_info TEXT,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'resolved', 'rejected')),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, s := range schemas {
		db.Exec(s)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(refresh_token)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_emergencies_user_created ON emergencies(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_emergencies_status ON emergencies(status) WHERE status = 'pending'`,
	}

	for _, idx := range indexes {
		db.Exec(idx)
	}

	log.Println("[DB] Schema initialized")
}

func cleanExpiredSessions(auth services.AuthService) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		auth.CleanExpiredSessions()
	}
}
