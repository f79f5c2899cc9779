package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/tomz197/nebula/internal/config"
	"github.com/tomz197/nebula/internal/draw"
	"github.com/tomz197/nebula/internal/gate"
	"github.com/tomz197/nebula/internal/loop"
	"github.com/tomz197/nebula/internal/session"
	"golang.org/x/term"
)

const defaultLogPath = "nebula-debug.log"

func main() {
	os.Exit(run())
}

func run() int {
	seed := flag.Uint64("seed", config.GetEnvUint64("NEBULA_SEED", 0), "random seed (0 picks one from the clock)")
	fps := flag.Int("fps", config.GetEnvInt("NEBULA_FPS", loop.DefaultFPS), "target frames per second")
	debugLog := flag.Bool("debug", config.GetEnvBool("NEBULA_DEBUG", false), "write a debug log")
	logPath := flag.String("log", config.GetEnv("NEBULA_LOG", defaultLogPath), "debug log path")
	colorMode := flag.String("color", config.GetEnv("NEBULA_COLOR", "auto"), "color mode: auto, truecolor, 256, 16, none (shades only)")
	flag.Parse()

	logger, closeLog, err := setupLogging(*debugLog, *logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
		return 1
	}
	defer closeLog()

	var gateOpts []gate.Option
	if p, ok := gate.ParseProfile(*colorMode); ok {
		gateOpts = append(gateOpts, gate.WithProfile(p))
	}
	caps := gate.Detect(os.Stdout, gateOpts...)
	if !gate.IsTerminal(os.Stdin) {
		caps.TTY = false
	}
	logger.Debug("capabilities", "tty", caps.TTY, "term", caps.Term, "profile", caps.Profile)

	if err := caps.Err(); err != nil {
		logger.Info("terminal not supported", "err", err)
		width, _, _ := term.GetSize(int(os.Stdout.Fd()))
		if _, err := gate.AddMessage(gate.MessageOptions{
			Parent:     os.Stdout,
			Width:      width,
			Reason:     err,
			Hyperlinks: caps.TTY,
		}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		return 1
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	// Restore the terminal even if a frame panics.
	defer func() {
		if r := recover(); r != nil {
			draw.DisableMouse(os.Stdout)
			draw.ShowCursor(os.Stdout)
			_ = term.Restore(fd, oldState)
			logger.Error("panic", "value", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "\nnebula crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := session.New(bufio.NewReader(os.Stdin), os.Stdout, session.Options{
		Profile: caps.Profile,
		Seed:    *seed,
		FPS:     *fps,
		Logger:  logger,
	})
	if err := s.Run(ctx); err != nil {
		logger.Error("session failed", "err", err)
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "nebula error: %v\n", err)
		return 1
	}
	return 0
}
