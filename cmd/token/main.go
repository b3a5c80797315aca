// Command token issues a bearer token for an existing user id, signed with JWT_SECRET.
// Login flows live outside this service; operators use this to hand out API access.
//
//	token -user 42 -ttl 24h
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/splitledger/internal/config"
	mw "github.com/fkhayef/splitledger/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		logrus.WithError(err).Fatal("failed to issue token")
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userID := fs.Int64("user", 0, "user id to put in the subject claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID <= 0 {
		return errors.New("-user must be a positive user id")
	}
	if *ttl <= 0 {
		return errors.New("-ttl must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	token, err := mw.IssueToken([]byte(cfg.JWTSecret), *userID, *ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
