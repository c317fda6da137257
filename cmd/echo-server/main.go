// A TCP echo server demonstrating graceful shutdown with quell.
//
// SIGINT or SIGTERM triggers the shutdown: the accept loop stops, every
// open connection gets a goodbye line, and the process only exits once all
// connections have finished their cleanup (or the shutdown timeout runs
// out).
package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kwkoo/configparser"
	"github.com/sirupsen/logrus"

	"github.com/sharnoff/quell"
)

func main() {
	config := struct {
		Addr            string `default:":9372" usage:"TCP listen address"`
		LogLevel        string `default:"info" usage:"Log level"`
		ShutdownTimeout int    `default:"10" usage:"Seconds to wait for connections to finish after shutdown is triggered"`
	}{}
	if err := configparser.Parse(&config); err != nil {
		logrus.Fatal(err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(config.LogLevel); err != nil {
		log.WithField("level", config.LogLevel).Warn("unknown log level, using info")
	} else {
		log.SetLevel(level)
	}

	m := quell.NewManager[string]()
	stop := quell.TriggerOnSignal(m, "interrupt", os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx := context.Background()

	// The server is the vital task here: if it stops for any reason, the
	// rest of the process should shut down too.
	exitCode := 0
	_, err := quell.TriggerFor(ctx, m, "server stopped", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, runServer(ctx, m, log, config.Addr)
	})
	if err != nil {
		log.WithError(err).Error("server stopped with an error")
		exitCode = 1
	}

	// Wait for the connections to run their cleanup before exiting.
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(config.ShutdownTimeout)*time.Second)
	defer cancel()
	reason, err := m.WaitCompleted(waitCtx)
	if err != nil {
		log.WithField("pending", m.DelayCount()).Error("timed out waiting for connections to finish")
		os.Exit(1)
	}

	log.WithField("reason", reason).Info("shutdown complete")
	os.Exit(exitCode)
}

func runServer(ctx context.Context, m *quell.Manager[string], log *logrus.Logger, addr string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer listener.Close()
	log.WithField("addr", listener.Addr().String()).Info("server listening")

	for {
		// No cleanup is needed for the listening socket itself, so plain
		// cancellation is enough for the accept loop.
		conn, err := quell.CancelOnTrigger(ctx, m, func(ctx context.Context) (net.Conn, error) {
			// Accept doesn't take a context; unblock it by closing the
			// listener when we're canceled.
			cleanup := context.AfterFunc(ctx, func() { listener.Close() })
			defer cleanup()
			return listener.Accept()
		})
		if err != nil {
			var shutdown *quell.ShutdownError[string]
			if errors.As(err, &shutdown) {
				log.WithField("reason", shutdown.Reason).Info("no longer accepting connections")
				return nil
			}
			return err
		}

		go handleClient(ctx, m, log, conn)
	}
}

func handleClient(ctx context.Context, m *quell.Manager[string], log *logrus.Logger, conn net.Conn) {
	clog := log.WithFields(logrus.Fields{
		"conn":   uuid.NewString(),
		"remote": conn.RemoteAddr().String(),
	})
	clog.Info("accepted connection")

	// Hold a delay token for the whole connection, goodbye line included,
	// so the process doesn't exit mid-write. If the shutdown has already
	// completed we were too slow, and the connection is simply dropped.
	_, err := quell.DelayFor(ctx, m, func(ctx context.Context) (struct{}, error) {
		defer conn.Close()

		_, err := quell.CancelOnTrigger(ctx, m, func(ctx context.Context) (struct{}, error) {
			// unblock the blocking Read when we're canceled
			cleanup := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
			defer cleanup()
			return struct{}{}, echo(conn)
		})

		var shutdown *quell.ShutdownError[string]
		switch {
		case errors.As(err, &shutdown):
			clog.WithField("reason", shutdown.Reason).Info("closing connection for shutdown")
			_, _ = conn.Write([]byte("server is shutting down\n"))
		case err != nil:
			clog.WithError(err).Error("connection failed")
		default:
			clog.Info("connection closed by peer")
		}
		return struct{}{}, nil
	})
	if err != nil {
		clog.Info("shutdown already complete, dropping connection")
		conn.Close()
	}
}

func echo(conn net.Conn) error {
	buffer := make([]byte, 512)
	for {
		n, err := conn.Read(buffer)
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		if _, err := conn.Write(buffer[:n]); err != nil {
			return err
		}
	}
}
