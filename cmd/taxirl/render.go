package main

import (
	"fmt"
	"os"

	"taxi-rl-go/internal/taxi"
)

func runRender(args []string) error {
	fs := newFlagSet("render")
	var c common
	c.register(fs)
	state := fs.Int("state", 0, "state to draw")
	action := fs.String("action", "", "take this action first and draw the result")
	color := fs.Bool("color", true, "ANSI colors")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	model, err := buildModel(cfg, logger)
	if err != nil {
		return err
	}
	st, err := taxi.Decode(*state)
	if err != nil {
		return err
	}
	fmt.Printf("%d %s\n", *state, st)
	if *action == "" {
		return model.Render(os.Stdout, *state, nil, *color)
	}

	a, err := taxi.ParseAction(*action)
	if err != nil {
		return err
	}
	if err := model.Render(os.Stdout, *state, nil, *color); err != nil {
		return err
	}
	tr := model.Outcome(*state, a)
	fmt.Printf("-> %d %s reward=%.0f done=%t\n", tr.Next, taxi.MustDecode(tr.Next), tr.Reward, tr.Done)
	return model.Render(os.Stdout, tr.Next, &a, *color)
}
