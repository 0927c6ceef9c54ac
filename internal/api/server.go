// Package api serves launch requests over a unix socket, streaming captured
// child output back to the requesting connection as JSON frames.
package api

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/outpipe/outpipe/internal/launcher"
)

// Server accepts control connections on a unix socket. Each connection
// carries one request and its response stream.
type Server struct {
	socketPath string
	registry   *launcher.Registry
	log        zerolog.Logger

	listener net.Listener
	stopChan chan struct{}
}

// NewServer creates a server bound to socketPath, tracking launches in reg.
func NewServer(socketPath string, reg *launcher.Registry, log zerolog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		registry:   reg,
		log:        log,
		stopChan:   make(chan struct{}),
	}
}

// Start listens on the socket and serves connections until Stop is called.
func (s *Server) Start() error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	s.listener = listener
	s.log.Info().Str("socket", s.socketPath).Msg("control server listening")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
				return err
			}
		}
		go s.handleConn(conn)
	}
}

// Stop closes the listener. In-flight spawns keep streaming until their
// children exit; callers that want them gone terminate via the registry.
func (s *Server) Stop() {
	close(s.stopChan)
	if s.listener != nil {
		s.listener.Close()
	}
	s.log.Info().Msg("control server stopped")
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		encoder.Encode(Frame{Err: "invalid request: " + err.Error(), Done: true})
		return
	}

	switch req.Action {
	case "spawn":
		s.handleSpawn(req, encoder)
	case "list":
		encoder.Encode(Frame{IDs: s.ids(), Done: true})
	case "kill":
		s.handleKill(req, encoder)
	default:
		encoder.Encode(Frame{Err: "unknown action: " + req.Action, Done: true})
	}
}

func (s *Server) ids() []string {
	launches := s.registry.List()
	ids := make([]string, 0, len(launches))
	for _, p := range launches {
		ids = append(ids, p.ID)
	}
	return ids
}

// handleSpawn launches the requested command and streams its output on the
// connection until the child exits. The sink runs on the launch's reader
// goroutine, so the encoder is mutex-guarded against the final frame.
func (s *Server) handleSpawn(req Request, encoder *json.Encoder) {
	var mu sync.Mutex
	announced := make(chan struct{})
	sink := func(text string) {
		// The ID frame must be the first thing on the wire; output can
		// arrive before the handler has had a chance to send it.
		<-announced
		mu.Lock()
		defer mu.Unlock()
		if err := encoder.Encode(Frame{Chunk: text}); err != nil {
			s.log.Warn().Err(err).Msg("chunk write failed")
		}
	}

	cmd := launcher.Command{
		Args:      req.Argv,
		Env:       req.Env,
		Sink:      sink,
		TeeStderr: req.Tee,
	}

	launch := launcher.Launch
	if req.Pty {
		launch = launcher.LaunchPty
	}

	p, err := launch(context.Background(), cmd)
	if err != nil {
		encoder.Encode(Frame{Err: err.Error(), Done: true})
		return
	}

	s.registry.Add(p)
	defer s.registry.Remove(p.ID)

	mu.Lock()
	encoder.Encode(Frame{ID: p.ID})
	mu.Unlock()
	close(announced)

	res, err := p.Wait()

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		encoder.Encode(Frame{Err: err.Error(), Done: true})
		return
	}
	encoder.Encode(Frame{Done: true, ExitCode: res.ExitCode})
}

func (s *Server) handleKill(req Request, encoder *json.Encoder) {
	p := s.registry.Get(req.ID)
	if p == nil {
		encoder.Encode(Frame{Err: "unknown launch: " + req.ID, Done: true})
		return
	}
	p.Terminate(0)
	encoder.Encode(Frame{Done: true, ID: p.ID})
}
