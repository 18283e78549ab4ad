// Command devtoken mints bearer tokens for AUTH_PROVIDER=local.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"habitsAPI/internal/habit"
	"habitsAPI/middleware"
)

var CLI struct {
	Secret  string        `help:"Shared HS256 secret." env:"LOCAL_AUTH_SECRET" required:""`
	UID     string        `arg:"" help:"Subject (user id) of the token."`
	Email   string        `help:"Email claim."`
	Name    string        `help:"Display name claim."`
	Picture string        `help:"Photo URL claim."`
	TTL     time.Duration `help:"Token lifetime." default:"24h"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("devtoken"),
		kong.Description("Mint a development token for the habits API"),
		kong.UsageOnError(),
	)

	if len(CLI.Secret) < 32 {
		fmt.Fprintln(os.Stderr, "secret must be at least 32 bytes")
		os.Exit(1)
	}

	token, err := middleware.LocalVerifier{Secret: []byte(CLI.Secret)}.Sign(habit.Identity{
		UID:         CLI.UID,
		Email:       CLI.Email,
		DisplayName: CLI.Name,
		PhotoURL:    CLI.Picture,
	}, CLI.TTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
