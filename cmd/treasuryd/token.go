package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mmynk/treasury/internal/auth"
	"github.com/mmynk/treasury/internal/models"
)

// TokenCmd mints a bearer token so local callers can exercise the API. In
// production tokens come from the wallet sign-in flow.
type TokenCmd struct {
	Address string        `arg:"" help:"Wallet address the token authenticates."`
	TTL     time.Duration `help:"Token lifetime." default:"24h" env:"TREASURY_TOKEN_TTL"`
}

func (c *TokenCmd) Run(g *Globals) error {
	addr, err := models.ParseAddress(c.Address)
	if err != nil {
		return err
	}

	token, err := auth.NewJWTManager(g.JWTSecret, c.TTL).Generate(addr)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
