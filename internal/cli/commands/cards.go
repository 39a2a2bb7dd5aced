package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"CardKeeper/internal/cli/model"
)

var cardQueryAll = model.CardQuery{OrderBy: model.OrderByCreated}

type cardsCmd struct{}

func (cardsCmd) Name() string        { return "cards" }
func (cardsCmd) Description() string { return "List local cards" }
func (cardsCmd) Usage() string {
	return "cards [--creator ID] [--limit N] [--updated] [--desc]"
}

func (cardsCmd) Run(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("cards", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	creator := fs.String("creator", "", "only cards of this creator")
	limit := fs.Int("limit", 0, "max cards to show")
	byUpdated := fs.Bool("updated", false, "order by last update instead of creation")
	desc := fs.Bool("desc", false, "newest first")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || *limit < 0 {
		return ErrUsage
	}

	q := model.CardQuery{OrderBy: model.OrderByCreated, Desc: *desc, CreatorID: *creator, Limit: *limit}
	if *byUpdated {
		q.OrderBy = model.OrderByUpdated
	}

	svc, err := app.Controller.Cards(ctx)
	if err != nil {
		return err
	}
	list, err := svc.ListCards(ctx, q)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет карточек")
		return nil
	}
	for _, env := range list {
		var card model.CardData
		_ = json.Unmarshal(env.Payload, &card)
		mark := " "
		if env.Dirty {
			mark = "*"
		}
		fmt.Fprintf(Out, "%s %-24s %-32s %s\n", mark, env.ID, card.Title, env.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

type cardAddCmd struct{}

func (cardAddCmd) Name() string        { return "card-add" }
func (cardAddCmd) Description() string { return "Create or overwrite a local card" }
func (cardAddCmd) Usage() string {
	return "card-add [--rarity R] [--tags a,b] [--public] <id> <title>"
}

func (cardAddCmd) Run(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("card-add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	rarity := fs.String("rarity", "", "common | uncommon | rare | epic | legendary")
	tags := fs.String("tags", "", "comma separated tags")
	public := fs.Bool("public", false, "publish the card")
	creator := fs.String("creator", "", "creator id")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return ErrUsage
	}

	card := model.CardData{
		ID:        fs.Arg(0),
		Title:     fs.Arg(1),
		Rarity:    *rarity,
		CreatorID: *creator,
	}
	if *tags != "" {
		for _, t := range strings.Split(*tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				card.Tags = append(card.Tags, t)
			}
		}
	}
	if *public {
		card.Visibility = "public"
	}

	svc, err := app.Controller.Cards(ctx)
	if err != nil {
		return err
	}
	env, err := svc.SaveCard(ctx, card)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "✓ Сохранено: %s (ожидает синхронизации)\n", env.ID)
	return nil
}

type cardRmCmd struct{}

func (cardRmCmd) Name() string        { return "card-rm" }
func (cardRmCmd) Description() string { return "Delete a card locally and on the gateway" }
func (cardRmCmd) Usage() string       { return "card-rm <id>" }

func (cardRmCmd) Run(ctx context.Context, app *App, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	svc, err := app.Controller.Cards(ctx)
	if err != nil {
		return err
	}
	if err := svc.DeleteCard(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "✓ Удалено: %s\n", args[0])
	return nil
}

func init() {
	RegisterCmd(cardsCmd{})
	RegisterCmd(cardAddCmd{})
	RegisterCmd(cardRmCmd{})
}
