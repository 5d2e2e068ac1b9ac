package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"lobby-backend/internal/env"
	internaljwt "lobby-backend/internal/jwt"

	"github.com/sirupsen/logrus"
)

// admin-token mints a bearer token for the /api/admin/v1 routes, signed with
// ADMIN_SECRET.
func main() {
	if err := env.Load(); err != nil {
		logrus.WithError(err).Fatal("failed to load .env")
	}

	subject := flag.String("sub", "ops", "token subject")
	ttl := flag.Duration("ttl", internaljwt.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	issuer := internaljwt.NewIssuerWithClock(env.MustGet(env.AdminSecretKey), *ttl, time.Now)
	token, err := issuer.CreateToken(*subject, internaljwt.RoleAdmin)
	if err != nil {
		logrus.WithError(err).Fatal("could not mint admin token")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(token); err != nil {
		logrus.WithError(err).Fatal("could not write token")
	}
}
