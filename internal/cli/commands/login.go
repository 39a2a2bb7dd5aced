package commands

import (
	"context"
	"errors"
	"fmt"
)

type authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

type loginCmd struct{}

func (loginCmd) Name() string { return "login" }
func (loginCmd) Description() string {
	return "Obtain a gateway token with the configured client credentials"
}
func (loginCmd) Usage() string { return "login" }

func (loginCmd) Run(ctx context.Context, app *App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	a, ok := app.Remote.(authenticator)
	if !ok {
		return errors.New("gateway client does not support authentication")
	}
	if _, err := a.Authenticate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged in successfully")
	return nil
}

func init() { RegisterCmd(loginCmd{}) }
