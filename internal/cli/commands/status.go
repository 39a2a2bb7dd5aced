package commands

import (
	"context"
	"fmt"
	"time"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show local store and gateway state" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, app *App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}

	storeErr := func() error {
		_, err := app.Controller.Partitions(ctx)
		return err
	}()

	online := "no gateway configured"
	if app.Remote != nil {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := app.Remote.Ping(pctx); err != nil {
			online = fmt.Sprintf("offline (%v)", err)
		} else {
			online = "online"
		}
	}

	d := app.Controller.Diagnostics()
	if storeErr != nil {
		fmt.Fprintf(Out, "Store:     unavailable (%v)\n", storeErr)
	} else {
		mode := "file"
		if d.Degraded {
			mode = "in-memory (degraded)"
		}
		fmt.Fprintf(Out, "Store:     %s, schema v%d\n", mode, d.SchemaVersion)
	}
	fmt.Fprintf(Out, "Gateway:   %s\n", online)

	if storeErr == nil {
		cards, err := app.Controller.Cards(ctx)
		if err != nil {
			return err
		}
		all, err := cards.ListCards(ctx, cardQueryAll)
		if err != nil {
			return err
		}
		dirty := 0
		for _, c := range all {
			if c.Dirty {
				dirty++
			}
		}
		fmt.Fprintf(Out, "Cards:     %d (%d pending sync)\n", len(all), dirty)
	}
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
