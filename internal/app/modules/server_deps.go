package modules

import (
	"fieldops.io/fieldops/internal/api/handlers"
	"fieldops.io/fieldops/internal/api/middleware"
	"fieldops.io/fieldops/internal/config"
)

// TokenIssuer is the iss claim on every fieldops token.
const TokenIssuer = "fieldops"

// JWTConfig derives the token settings from cfg.
func JWTConfig(cfg *config.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSigningKey),
		Issuer:     TokenIssuer,
		ExpiresIn:  cfg.Security.TokenLifetime,
	}
}

// NewServerDeps lets each module contribute its part of the server deps.
func NewServerDeps(mods []Module) handlers.ServerDeps {
	var deps handlers.ServerDeps
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
