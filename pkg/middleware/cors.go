package middleware

import (
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CORSConfig() cors.Config {
	return cors.Config{
		AllowOrigins: "http://localhost:3000,http://localhost:8081",
		AllowMethods: "POST,GET,DELETE,PUT,PATCH,OPTIONS",
		AllowHeaders: "Content-Type,Cache-Control,Pragma,Authorization,X-Admin-Key",
	}
}
