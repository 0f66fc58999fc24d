package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bridgewatch/bridgewatch/pkg/simulator"
)

const (
	writeWait   = 10 * time.Second
	sendBacklog = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// simMessage is sent by the client to drive the simulator.
type simMessage struct {
	Type string `json:"type"` // toggle, activate, deactivate, state
}

// simEvent is pushed to the client.
type simEvent struct {
	Type    string           `json:"type"` // state or error
	Session string           `json:"session"`
	State   *simulator.State `json:"state,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// handleSimulate runs one simulator per connection. The server pushes the
// state on every tick and after every command; closing the connection or
// shutting the handler down stops the clock.
func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.catalog.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.beginSession() {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	defer h.sessions.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()
	// Unblock the read loop on shutdown.
	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	session := uuid.NewString()
	sim := simulator.New(rec, simulator.Options{
		Interval: h.interval,
		Seed:     h.seed,
		Engine:   h.catalog.Engine(),
	})

	send := make(chan simEvent, sendBacklog)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range send {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// Ticks are dropped rather than stall the simulator when the client
	// reads slowly.
	unsubscribe := sim.Subscribe(simulator.ObserverFunc(func(st simulator.State) {
		select {
		case send <- simEvent{Type: "state", Session: session, State: &st}:
		default:
		}
	}))
	if h.recorder != nil {
		defer sim.Subscribe(h.recorder.Session(session))()
	}

	reply := func(ev simEvent) {
		ev.Session = session
		select {
		case send <- ev:
		case <-writerDone:
		}
	}
	state := func() simEvent {
		st := sim.CurrentState()
		return simEvent{Type: "state", State: &st}
	}

	slog.Info("simulation session started", "session", session, "id", rec.ID)
	reply(state())

	for {
		var msg simMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "toggle":
			sim.Toggle(ctx)
		case "activate":
			sim.Activate(ctx)
		case "deactivate":
			sim.Deactivate()
		case "state":
		default:
			reply(simEvent{Type: "error", Error: "unknown message type " + msg.Type})
			continue
		}
		reply(state())
	}

	sim.Deactivate()
	// The reset pushed by Deactivate may have been dropped on a full backlog.
	reply(state())
	unsubscribe()
	close(send)
	<-writerDone
	if h.ctx.Err() != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	slog.Info("simulation session ended", "session", session, "id", rec.ID)
}
