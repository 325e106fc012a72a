// Command token mints a bearer token for the operator endpoints.
package main

import (
	"flag"
	"fmt"
	"time"

	"WhatsappReminder/internal/middleware"
	jwtPkg "WhatsappReminder/pkg/jwt"
	"WhatsappReminder/pkg/log"
	"github.com/joho/godotenv"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", err)
	}

	token, expiresAt, err := jwtPkg.Sign(*subject, *ttl, middleware.APITokenSecret)
	if err != nil {
		logger.Fatalf("Failed to sign token: %v", err)
	}

	logger.WithField("expires_at", time.Unix(expiresAt, 0).Format(time.RFC3339)).Info("Token issued")
	fmt.Println(token)
}
