// Package server exposes a sheet over a WebSocket endpoint: clients send
// cell edits as JSON messages and every connected client receives a grid
// snapshot after each successful edit.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"gridsheet/spreadsheet"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all for local dev
	},
}

// Request is a client to server message
type Request struct {
	Type string `json:"type"` // "set" or "clear"
	Ref  string `json:"ref"`
	Text string `json:"text,omitempty"`
}

// CellState is one populated cell in a grid snapshot
type CellState struct {
	Ref   string `json:"ref"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// GridState is a full snapshot of the printable region
type GridState struct {
	Type  string      `json:"type"` // "grid"
	Rows  int         `json:"rows"`
	Cols  int         `json:"cols"`
	Cells []CellState `json:"cells"`
}

// ErrorState reports a rejected edit back to the sender only
type ErrorState struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// Server owns one sheet and the set of connected clients. a single mutex
// serializes sheet access and connection writes; the engine itself is
// single-threaded by contract.
type Server struct {
	sheet   *spreadsheet.Sheet
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// New creates a server with an empty sheet
func New() *Server {
	return &Server{
		sheet:   spreadsheet.NewSheet(),
		clients: make(map[*websocket.Conn]bool),
	}
}

// Serve registers the WebSocket endpoint on /ws and blocks on the listener
func (s *Server) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	log.Printf("sheet server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// HandleWebSocket upgrades the connection, sends the initial grid snapshot,
// and applies incoming edits until the client disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	err = conn.WriteJSON(s.snapshotLocked())
	s.mu.Unlock()
	if err != nil {
		log.Printf("initial snapshot write failed: %v", err)
	}

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Printf("bad request payload: %v", err)
			continue
		}
		s.apply(conn, req)
	}
}

// apply runs one edit against the sheet. failures go back to the sender,
// successful edits broadcast the new grid to everyone.
func (s *Server) apply(conn *websocket.Conn, req Request) {
	s.mu.Lock()
	var err error
	switch req.Type {
	case "set":
		var pos spreadsheet.Position
		if pos, err = spreadsheet.PositionFromLabel(req.Ref); err == nil {
			err = s.sheet.SetCell(pos, req.Text)
		}
	case "clear":
		var pos spreadsheet.Position
		if pos, err = spreadsheet.PositionFromLabel(req.Ref); err == nil {
			err = s.sheet.ClearCell(pos)
		}
	default:
		err = fmt.Errorf("unknown request type %q", req.Type)
	}

	if err != nil {
		writeErr := conn.WriteJSON(ErrorState{Type: "error", Message: err.Error()})
		s.mu.Unlock()
		if writeErr != nil {
			log.Printf("error write failed: %v", writeErr)
		}
		return
	}

	state := s.snapshotLocked()
	for client := range s.clients {
		if err := client.WriteJSON(state); err != nil {
			log.Printf("broadcast write failed: %v", err)
			_ = client.Close()
			delete(s.clients, client)
		}
	}
	s.mu.Unlock()
}

// snapshotLocked renders the populated cells of the printable region.
// caller must hold s.mu.
func (s *Server) snapshotLocked() GridState {
	size := s.sheet.PrintableSize()
	state := GridState{
		Type:  "grid",
		Rows:  size.Rows,
		Cols:  size.Cols,
		Cells: []CellState{},
	}
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			pos := spreadsheet.Position{Row: row, Col: col}
			cell, err := s.sheet.GetCell(pos)
			if err != nil || cell == nil {
				continue
			}
			state.Cells = append(state.Cells, CellState{
				Ref:   pos.Label(),
				Text:  cell.GetText(),
				Value: spreadsheet.FormatValue(cell.GetValue()),
			})
		}
	}
	return state
}
