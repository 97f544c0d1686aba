// Command issue-token mints a bearer token for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/config"
	"github.com/mingunC/renovationPlatform-sub000/internal/auth"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	id := flag.Int64("id", 0, "actor id")
	role := flag.String("role", string(auth.RoleCustomer), "customer, contractor or admin")
	ttl := flag.Duration("ttl", 0, "token lifetime (default from auth.token_expire_hours)")
	flag.Parse()

	actor := auth.Actor{ID: *id, Role: auth.Role(*role)}
	if actor.ID <= 0 || !actor.Role.Valid() {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	lifetime := *ttl
	if lifetime == 0 {
		lifetime = time.Duration(cfg.Auth.TokenExpireHours) * time.Hour
	}

	token, err := auth.IssueToken([]byte(cfg.Auth.JWTSecret), actor, lifetime)
	if err != nil {
		log.Fatalf("Cannot issue token: %v", err)
	}
	fmt.Println(token)
}
