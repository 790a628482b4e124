// Package cli implements the gophauth command line client.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

var ErrUsage = errors.New("usage: client [flags] refresh TOKEN | revoke TOKEN | issue USER_ID")

type App struct {
	config *config.Config
	client client.Client
}

func NewApp(cfg *config.Config) *App {
	hc := &http.Client{Timeout: cfg.RequestTimeout}
	return &App{
		config: cfg,
		client: client.NewHTTPClient(cfg.ServerURL, cfg.AdminToken, hc),
	}
}

// Run executes one command and writes its JSON result to out.
func (a *App) Run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 2 || args[1] == "" {
		return ErrUsage
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	cmd, arg := args[0], args[1]
	switch cmd {
	case "refresh":
		s, err := a.client.Refresh(ctx, arg)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		return printJSON(out, s)
	case "revoke":
		if err := a.client.Revoke(ctx, arg); err != nil {
			return fmt.Errorf("revoke: %w", err)
		}
		_, err := fmt.Fprintln(out, "revoked")
		return err
	case "issue":
		s, err := a.client.Issue(ctx, arg)
		if err != nil {
			return fmt.Errorf("issue: %w", err)
		}
		return printJSON(out, s)
	default:
		return fmt.Errorf("%w (unknown command %q)", ErrUsage, cmd)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
