package commands

import (
	"context"
	"errors"
	"fmt"
)

type syncCmd struct{}

func (syncCmd) Name() string { return "sync" }
func (syncCmd) Description() string {
	return "Push all cards with pending changes to the gateway"
}
func (syncCmd) Usage() string { return "sync" }

func (syncCmd) Run(ctx context.Context, app *App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if app.Remote == nil {
		return errors.New("no gateway configured")
	}

	fmt.Fprintln(Out, "→ Синхронизация карточек…")
	res := app.Controller.SyncNow(ctx)
	for _, err := range res.Errors {
		fmt.Fprintf(Out, "× %v\n", err)
	}
	if res.Synced == 0 && res.Failed == 0 && len(res.Errors) == 0 {
		fmt.Fprintln(Out, "• Нет несинхронизированных карточек")
		return nil
	}
	fmt.Fprintf(Out, "✓ Синхронизировано: %d, с ошибкой: %d\n", res.Synced, res.Failed)
	return nil
}

func init() { RegisterCmd(syncCmd{}) }
