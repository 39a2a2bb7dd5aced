package commands

import (
	"context"
	"fmt"
)

type migrateCmd struct{}

func (migrateCmd) Name() string        { return "migrate" }
func (migrateCmd) Description() string { return "Import the legacy key/value storage right now" }
func (migrateCmd) Usage() string       { return "migrate" }

func (migrateCmd) Run(ctx context.Context, app *App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	res, err := app.Controller.MigrateNow(ctx)
	if err != nil {
		return err
	}
	if res.AlreadyAttempted {
		fmt.Fprintln(Out, "• Миграция уже выполнялась в этом процессе")
	}
	fmt.Fprintf(Out, "✓ Перенесено записей: %d\n", res.MigratedCount)
	if len(res.CleanedLocations) > 0 {
		fmt.Fprintf(Out, "• Очищено ключей: %v\n", res.CleanedLocations)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(Out, "! %s\n", w)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(Out, "× %v\n", e)
	}
	return nil
}

func init() { RegisterCmd(migrateCmd{}) }
