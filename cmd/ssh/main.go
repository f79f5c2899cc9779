package main

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/tomz197/nebula/internal/config"
	"github.com/tomz197/nebula/internal/draw"
	"github.com/tomz197/nebula/internal/gate"
	"github.com/tomz197/nebula/internal/loop"
	"github.com/tomz197/nebula/internal/session"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	defaultIdleSeconds = 600
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "ssh",
	})
	if config.GetEnvBool("NEBULA_DEBUG", false) {
		logger.SetLevel(log.DebugLevel)
	}

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	fps := config.GetEnvInt("NEBULA_FPS", loop.DefaultFPS)
	idle := time.Duration(config.GetEnvInt("SSH_IDLE_TIMEOUT", defaultIdleSeconds)) * time.Second
	workingDir, workErr := os.Getwd()
	if workErr != nil {
		logger.Warn("failed to get working directory", "err", workErr)
	}
	logger.Info("SSH config", "host", host, "port", port, "hostKeyPath", hostKeyPath, "workingDir", workingDir)

	sessions := newRegistry()
	handler := &nebulaHandler{sessions: sessions, fps: fps, logger: logger}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			handler.middleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
		// Set TCP_NODELAY to reduce latency for pointer input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if idle > 0 {
		opts = append(opts, wish.WithIdleTimeout(idle))
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Starting SSH server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("Shutting down server...")

	// Stop every running nebula so its terminal is restored before the
	// connection closes.
	n := sessions.stopAll()
	logger.Info("Stopped sessions", "count", n)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// nebulaHandler runs one independent nebula per SSH session.
type nebulaHandler struct {
	sessions *registry
	fps      int
	logger   *log.Logger
}

// middleware gates the session's terminal and runs the nebula on it.
func (h *nebulaHandler) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			wish.Fatalln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		logger := h.logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())
		logger.Info("New session", "term", pty.Term, "size", [2]int{pty.Window.Width, pty.Window.Height})

		env := gate.Environ(append(sess.Environ(), "TERM="+pty.Term))
		caps := gate.Detect(sess, gate.WithEnvironment(env), gate.WithTTY(true))
		if err := caps.Err(); err != nil {
			logger.Info("terminal not supported", "err", err)
			if _, err := gate.AddMessage(gate.MessageOptions{
				Parent:     newCRLFWriter(sess),
				Width:      pty.Window.Width,
				Reason:     err,
				Hyperlinks: true,
			}); err != nil {
				logger.Warn("failed to write notice", "err", err)
			}
			next(sess)
			return
		}

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		s := session.New(bufio.NewReader(sess), sess, session.Options{
			TermSizeFunc: sizeTracker.getSize,
			Profile:      caps.Profile,
			FPS:          h.fps,
			Logger:       logger,
		})
		id := h.sessions.add(s)
		defer h.sessions.remove(id)

		if err := s.Run(sess.Context()); err != nil {
			logger.Error("session error", "err", err)
		}

		logger.Info("Session ended")
		next(sess)
	}
}

// registry tracks running sessions for shutdown.
type registry struct {
	mu       sync.Mutex
	nextID   int
	sessions map[int]*session.Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[int]*session.Session)}
}

func (r *registry) add(s *session.Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.sessions[r.nextID] = s
	return r.nextID
}

func (r *registry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// stopAll stops every registered session and returns how many there were.
func (r *registry) stopAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.Stop()
	}
	return len(r.sessions)
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
