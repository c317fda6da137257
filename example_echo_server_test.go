package quell_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"syscall"

	"github.com/sharnoff/quell"
)

// Run a TCP echo server that shuts down on SIGTERM or SIGINT, or once the
// client is done, and waits for every connection to finish before exiting.
func Example() {
	m := quell.NewManager[string]()
	stop := quell.TriggerOnSignal(m, "interrupt", os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatal(err)
	}

	// Accept connections until a shutdown is triggered. Each connection
	// holds a delay token so the shutdown can't complete mid-echo.
	go func() {
		for {
			conn, err := quell.CancelOnTrigger(context.Background(), m, func(ctx context.Context) (net.Conn, error) {
				// Accept doesn't take a context; unblock it by closing the
				// listener when we're canceled.
				cleanup := context.AfterFunc(ctx, func() { listener.Close() })
				defer cleanup()
				return listener.Accept()
			})
			if err != nil {
				return
			}

			go func() {
				_, _ = quell.DelayFor(context.Background(), m, func(context.Context) (struct{}, error) {
					defer conn.Close()
					_, err := io.Copy(conn, conn)
					return struct{}{}, err
				})
			}()
		}
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		log.Fatal(err)
	}
	if _, err := conn.Write([]byte("hello, world!\n")); err != nil {
		log.Fatal(err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(line)
	conn.Close()

	_ = m.Trigger("client finished")
	reason, err := m.WaitCompleted(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Shutdown complete! reason: %s\n", reason)
	// Output:
	// hello, world!
	// Shutdown complete! reason: client finished
}
