// Package ws streams live training sessions to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"taxi-rl-go/internal/engine"
)

const writeWait = 5 * time.Second

// FrameFunc renders a state and the action that led to it; action is -1
// when there is none.
type FrameFunc func(state, action int) string

type Server struct {
	model  engine.Model
	base   engine.Config
	render FrameFunc
	log    *slog.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(model engine.Model, base engine.Config, render FrameFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		model:  model,
		base:   base,
		render: render,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.WSHandler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok\n"))
	})
	return mux
}

func (s *Server) config(start StartMsg) engine.Config {
	cfg := s.base
	if start.Episodes > 0 {
		cfg.Episodes = start.Episodes
	}
	if start.Algorithm != "" {
		cfg.Algorithm = start.Algorithm
	}
	if start.Seed != 0 {
		cfg.Seed = start.Seed
	}
	if start.StepDelayMs != nil {
		cfg.StepDelayMs = *start.StepDelayMs
	}
	if start.StepSnapshots != nil {
		cfg.SkipStepSnapshots = !*start.StepSnapshots
	}
	return cfg
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send START first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var start StartMsg
		if err := json.Unmarshal(msg, &start); err != nil || start.Type != TypeStart {
			closeWith(conn, websocket.ClosePolicyViolation, "expected START")
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		trainer, err := engine.NewTrainer(s.model, s.config(start), s.log)
		if err != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteJSON(ErrorMsg{Type: TypeError, Message: err.Error()})
			closeWith(conn, websocket.CloseUnsupportedData, "bad config")
			return
		}

		sid := fmt.Sprintf("S%d", s.nextID.Add(1))
		log := s.log.With("session", sid)
		log.Info("session started", "remote", r.RemoteAddr, "algorithm", trainer.Config().Algorithm, "episodes", trainer.Config().Episodes)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader goroutine: STOP or a closed socket ends the run.
		go func() {
			defer cancel()
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var m struct {
					Type string `json:"type"`
				}
				if json.Unmarshal(msg, &m) == nil && m.Type == TypeStop {
					return
				}
			}
		}()

		snapshots := trainer.Run(ctx)
		sent := 0
		for snap := range snapshots {
			out := SnapshotMsg{Type: TypeSnapshot, Session: sid, Snapshot: snap}
			if s.render != nil {
				out.Frame = s.render(snap.State, snap.Action)
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(out); err != nil {
				log.Warn("session write failed", "error", err)
				cancel()
				for range snapshots {
				}
				return
			}
			sent++
		}
		log.Info("session finished", "snapshots", sent)
		closeWith(conn, websocket.CloseNormalClosure, "done")
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}
