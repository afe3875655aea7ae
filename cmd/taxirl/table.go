package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"taxi-rl-go/internal/mdp"
	"taxi-rl-go/internal/taxi"
)

type tableDump struct {
	Registration        taxi.Registration `json:"registration"`
	InitialDistribution []float64         `json:"initial_distribution"`
	Transitions         mdp.Table         `json:"transitions"`
}

func runTable(args []string) error {
	fs := newFlagSet("table")
	var c common
	c.register(fs)
	state := fs.Int("state", -1, "only this state (-1 for all)")
	asJSON := fs.Bool("json", false, "dump registration, initial distribution and table as JSON")

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
	if err := model.P.Validate(); err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tableDump{
			Registration:        taxi.DefaultRegistration(),
			InitialDistribution: model.InitialDistribution,
			Transitions:         model.P,
		})
	}

	states := make([]int, 0, taxi.NumStates)
	if *state >= 0 {
		if _, err := taxi.Decode(*state); err != nil {
			return err
		}
		states = append(states, *state)
	} else {
		for s := 0; s < taxi.NumStates; s++ {
			states = append(states, s)
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "state\tdecoded\taction\tnext\tdecoded\treward\tdone")
	for _, s := range states {
		st := taxi.MustDecode(s)
		for _, a := range taxi.Actions() {
			tr := model.Outcome(s, a)
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%.0f\t%t\n",
				s, st, a, tr.Next, taxi.MustDecode(tr.Next), tr.Reward, tr.Done)
		}
	}
	return tw.Flush()
}
