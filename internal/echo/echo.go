// Package echo implements a minimal line-oriented TCP echo exchange.
//
// It exists to exercise the toolkit under real network I/O in tests and
// examples; it is not a protocol of its own. The server echoes each
// newline-terminated line back to the client unchanged.
package echo

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

// Server accepts TCP connections and echoes lines back to the sender.
type Server struct {
	ln net.Listener

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Serve starts a server listening on addr ("127.0.0.1:0" picks a free
// port). The accept loop runs on its own goroutine until Close.
func Serve(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops accepting connections and waits for in-flight handlers.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			// Listener closed; shut down quietly.
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		if _, err := conn.Write([]byte(line)); err != nil {
			return
		}
	}
}

// Exchange dials addr, sends msg as a single line, and returns the echoed
// line. It honors ctx for both the dial and the read.
func Exchange(ctx context.Context, addr, msg string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", err
		}
	}

	// One conn per exchange keeps the protocol trivial on purpose.
	// Cancelling ctx unblocks the read by expiring the deadline.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write([]byte(msg + "\n")); err != nil {
		return "", exchangeErr(ctx, err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", exchangeErr(ctx, err)
	}
	return strings.TrimSuffix(line, "\n"), nil
}

func exchangeErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return context.DeadlineExceeded
	}
	return err
}
