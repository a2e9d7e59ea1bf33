package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	database "github.com/FACorreiaa/go-trip-assistant/app/db"
	appMiddleware "github.com/FACorreiaa/go-trip-assistant/app/middleware"
	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/chat"
	"github.com/FACorreiaa/go-trip-assistant/internal/container"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	dbConfig, err := database.NewDatabaseConfig(ctx.Config, ctx.Logger)
	if err != nil {
		return err
	}
	return database.RunMigrations(dbConfig.ConnectionURL, ctx.Logger)
}

type TokenCmd struct {
	User uuid.UUID     `arg:"" help:"User id to put in the uid claim."`
	TTL  time.Duration `help:"Token lifetime. Defaults to auth.token_ttl."`
}

func (c *TokenCmd) Run(ctx *Context) error {
	if ctx.Config.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is not set")
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = ctx.Config.Auth.TokenTTL
	}
	token, err := appMiddleware.IssueToken([]byte(ctx.Config.Auth.JWTSecret), c.User, ctx.Config.Auth.Issuer, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	_, err = fmt.Fprintln(ctx.Out, token)
	return err
}

type ChatCmd struct {
	User    uuid.UUID `required:"" help:"User id to chat as."`
	Trip    uuid.UUID `required:"" help:"Trip the conversation belongs to."`
	Message []string  `arg:"" optional:"" help:"Send one message and exit. Reads lines from stdin when empty."`
}

func (c *ChatCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := container.NewContainer(runCtx, ctx.Config, metrics.NewNoop(), ctx.Logger)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())

	if len(c.Message) > 0 {
		return c.send(runCtx, ctx, deps.ChatRouter, strings.Join(c.Message, " "))
	}

	scanner := bufio.NewScanner(ctx.In)
	fmt.Fprint(ctx.Out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			if err = c.send(runCtx, ctx, deps.ChatRouter, line); err != nil {
				return err
			}
		}
		fmt.Fprint(ctx.Out, "> ")
	}
	return scanner.Err()
}

func (c *ChatCmd) send(runCtx context.Context, ctx *Context, router chat.Router, message string) error {
	env, err := router.Route(runCtx, chat.RouteRequest{UserID: c.User, TripID: c.Trip, Utterance: message})
	if errors.Is(err, types.ErrInvalidArguments) {
		return nil
	}
	if err != nil {
		return err
	}
	printEnvelope(ctx, env)
	return nil
}

func printEnvelope(ctx *Context, env *types.Envelope) {
	fmt.Fprintf(ctx.Out, "[%s]\n%s\n", env.ResultKind, env.Text)
	for i, m := range env.GeoMarkers {
		fmt.Fprintf(ctx.Out, "  pin %d: %.6f, %.6f\n", i+1, m.Latitude, m.Longitude)
	}
}
