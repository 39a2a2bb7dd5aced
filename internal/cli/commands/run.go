package commands

import (
	"context"
	"fmt"
)

type runCmd struct{}

func (runCmd) Name() string { return "run" }
func (runCmd) Description() string {
	return "Run the engine in foreground: migration, sync, cache sweep"
}
func (runCmd) Usage() string { return "run" }

func (runCmd) Run(ctx context.Context, app *App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	app.Controller.Start(ctx)
	// открываем хранилище сразу: это же планирует миграцию
	if _, err := app.Controller.Partitions(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	fmt.Fprintln(Out, "→ CardKeeper запущен, Ctrl+C для остановки")
	<-ctx.Done()
	fmt.Fprintln(Out, "• Остановка…")
	return nil
}

func init() { RegisterCmd(runCmd{}) }
