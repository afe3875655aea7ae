//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"taxi-rl-go/internal/engine"
	"taxi-rl-go/internal/taxi"
)

var (
	registerOnce sync.Once
	trainerMu    sync.Mutex
	cancelRun    context.CancelFunc
	onSnapshot   js.Value
	model        = taxi.MustBuild(taxi.DefaultLayout())
)

func main() {
	registerCallbacks()
	select {}
}

func registerCallbacks() {
	registerOnce.Do(func() {
		js.Global().Set("taxirlRegisterSnapshotHandler", js.FuncOf(registerSnapshotHandler))
		js.Global().Set("taxirlStartTraining", js.FuncOf(startTraining))
		js.Global().Set("taxirlStopTraining", js.FuncOf(stopTraining))
		js.Global().Set("taxirlRender", js.FuncOf(renderState))
	})
}

func registerSnapshotHandler(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 || args[0].Type() != js.TypeFunction {
		fmt.Println("registerSnapshotHandler requires a function argument")
		return nil
	}
	onSnapshot = args[0]
	return nil
}

// startTraining takes a JSON encoded engine config and streams snapshots to
// the registered handler. A running session is cancelled first.
func startTraining(this js.Value, args []js.Value) interface{} {
	if len(args) == 0 {
		fmt.Println("startTraining requires a JSON config string")
		return nil
	}
	var cfg engine.Config
	if err := json.Unmarshal([]byte(args[0].String()), &cfg); err != nil {
		fmt.Printf("invalid config: %v\n", err)
		return nil
	}
	if onSnapshot.IsUndefined() || onSnapshot.IsNull() {
		fmt.Println("snapshot handler not registered")
		return nil
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = taxi.MaxEpisodeSteps
	}
	trainer, err := engine.NewTrainer(model, cfg, nil)
	if err != nil {
		fmt.Printf("invalid config: %v\n", err)
		return nil
	}

	trainerMu.Lock()
	if cancelRun != nil {
		cancelRun()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancelRun = cancel
	trainerMu.Unlock()

	go func() {
		for snap := range trainer.Run(ctx) {
			onSnapshot.Invoke(snapshotToJS(snap))
		}
	}()
	return nil
}

func stopTraining(this js.Value, args []js.Value) interface{} {
	trainerMu.Lock()
	if cancelRun != nil {
		cancelRun()
		cancelRun = nil
	}
	trainerMu.Unlock()
	return nil
}

// renderState returns the plain text frame of a state index.
func renderState(this js.Value, args []js.Value) interface{} {
	if len(args) == 0 {
		return nil
	}
	out, err := model.RenderString(args[0].Int(), nil)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	return out
}

func snapshotToJS(snap engine.Snapshot) js.Value {
	st := taxi.MustDecode(snap.State)
	var last *taxi.Action
	if snap.Action >= 0 {
		a := taxi.Action(snap.Action)
		last = &a
	}
	frame, _ := model.RenderString(snap.State, last)

	config := map[string]interface{}{
		"episodes":     snap.Config.Episodes,
		"seed":         snap.Config.Seed,
		"epsilon":      snap.Config.Epsilon,
		"epsilonMin":   snap.Config.EpsilonMin,
		"epsilonDecay": snap.Config.EpsilonDecay,
		"alpha":        snap.Config.Alpha,
		"gamma":        snap.Config.Gamma,
		"maxSteps":     snap.Config.MaxSteps,
		"stepDelayMs":  snap.Config.StepDelayMs,
		"algorithm":    snap.Config.Algorithm,
	}
	state := map[string]interface{}{
		"index":       snap.State,
		"row":         st.TaxiRow,
		"col":         st.TaxiCol,
		"passenger":   st.Passenger,
		"destination": st.Destination,
		"hazard":      st.Hazard,
	}
	payload := map[string]interface{}{
		"step":              snap.Step,
		"episode":           snap.Episode,
		"episodeSteps":      snap.EpisodeSteps,
		"episodeReward":     snap.EpisodeReward,
		"reward":            snap.Reward,
		"state":             state,
		"action":            snap.Action,
		"success":           snap.Success,
		"successCount":      snap.SuccessCount,
		"episodesCompleted": snap.EpisodesCompleted,
		"totalReward":       snap.TotalReward,
		"totalSteps":        snap.TotalSteps,
		"epsilon":           snap.Epsilon,
		"frame":             frame,
		"config":            config,
		"status":            snap.Status,
	}
	return js.ValueOf(payload)
}
