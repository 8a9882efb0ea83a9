package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	in "ridecover/internal/coverage/application/ports/in"
	"ridecover/internal/coverage/bootstrap"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/auth"
)

var errSetupNotReady = errors.New("driving sdk setup did not reach READY")

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type ServeCmd struct{}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	bootstrap.Run(ctx, g.Config, g.Log)
	return nil
}

// DriverFlags — общие флаги одноразовых команд
type DriverFlags struct {
	DriverID string        `name:"driver-id" required:"" help:"Driver id"`
	Timeout  time.Duration `default:"60s" help:"How long to wait for the SDK"`
}

func (d DriverFlags) build(ctx context.Context, g *Globals) (context.Context, context.CancelFunc, *bootstrap.Components, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	c, err := bootstrap.Build(ctx, g.Config, bootstrap.Options{}, g.Log)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, c, nil
}

// awaitSetup запускает setup и ждёт его завершения
func awaitSetup(ctx context.Context, setup in.SetupUseCase, driverID string) (domain.SetupState, error) {
	out, err := setup.Setup(ctx, in.SetupInput{DriverID: driverID})
	if err != nil {
		return "", err
	}
	select {
	case <-out.Done:
		return setup.State(driverID), nil
	case <-ctx.Done():
		return setup.State(driverID), ctx.Err()
	}
}

type SetupCmd struct {
	DriverFlags `embed:""`
}

func (c *SetupCmd) Run(ctx context.Context, g *Globals) error {
	ctx, cancel, comps, err := c.build(ctx, g)
	if err != nil {
		return err
	}
	defer cancel()
	defer comps.Close()

	state, err := awaitSetup(ctx, comps.Setup, c.DriverID)
	if err != nil {
		return err
	}
	if err := printJSON(map[string]any{"driver_id": c.DriverID, "state": state}); err != nil {
		return err
	}
	if state != domain.SetupReady {
		return errSetupNotReady
	}
	return nil
}

type CheckSettingsCmd struct {
	DriverFlags `embed:""`
}

func (c *CheckSettingsCmd) Run(ctx context.Context, g *Globals) error {
	ctx, cancel, comps, err := c.build(ctx, g)
	if err != nil {
		return err
	}
	defer cancel()
	defer comps.Close()

	out, err := comps.Settings.Check(ctx, in.CheckSettingsInput{DriverID: c.DriverID})
	if err != nil {
		return err
	}
	return printJSON(out)
}

type RefreshPeriodCmd struct {
	DriverFlags `embed:""`
}

func (c *RefreshPeriodCmd) Run(ctx context.Context, g *Globals) error {
	ctx, cancel, comps, err := c.build(ctx, g)
	if err != nil {
		return err
	}
	defer cancel()
	defer comps.Close()

	// Период переключается только на инициализированном SDK
	state, err := awaitSetup(ctx, comps.Setup, c.DriverID)
	if err != nil {
		return err
	}
	if state != domain.SetupReady {
		return fmt.Errorf("%w: %s", errSetupNotReady, state)
	}

	out, err := comps.UpdatePeriod.Execute(ctx, in.UpdatePeriodInput{DriverID: c.DriverID, Reason: "manual"})
	if err != nil {
		return err
	}

	var result domain.OperationResult
	select {
	case result = <-out.Completion:
	case <-ctx.Done():
		return ctx.Err()
	}
	return printJSON(map[string]any{
		"driver_id":  c.DriverID,
		"trip_state": out.State,
		"decision":   out.Decision,
		"result":     result,
	})
}

type TokenCmd struct {
	DriverID string `name:"driver-id" help:"Driver id (DRIVER role)" xor:"subject"`
	Service  string `help:"Service name (SERVICE role)" xor:"subject"`
}

func (c *TokenCmd) Run(g *Globals) error {
	userID, role := c.DriverID, auth.RoleDriver
	if c.Service != "" {
		userID, role = c.Service, auth.RoleService
	}
	if userID == "" {
		return errors.New("one of --driver-id or --service is required")
	}

	token, err := auth.NewJWTService(g.Config.JWT).GenerateToken(userID, role)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	fmt.Println(token)
	return nil
}

type VerifyTokenCmd struct {
	Token string `arg:"" help:"JWT to verify"`
}

func (c *VerifyTokenCmd) Run(g *Globals) error {
	claims, err := auth.NewJWTService(g.Config.JWT).ValidateToken(c.Token)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"user_id":    claims.UserID,
		"role":       claims.Role,
		"issuer":     claims.Issuer,
		"issued_at":  claims.IssuedAt.Time,
		"expires_at": claims.ExpiresAt.Time,
	})
}
