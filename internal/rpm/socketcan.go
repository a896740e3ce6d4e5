// SPDX-License-Identifier: EPL-2.0

package rpm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.einride.tech/can/pkg/socketcan"
)

// SocketCAN reads frames from a Linux SocketCAN interface.
type SocketCAN struct {
	iface string
	conn  net.Conn
	recv  *socketcan.Receiver
}

// DialSocketCAN opens iface (for example "can0").
func DialSocketCAN(ctx context.Context, iface string) (*SocketCAN, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBusUnavailable, iface, err)
	}

	return &SocketCAN{iface: iface, conn: conn, recv: socketcan.NewReceiver(conn)}, nil
}

func (s *SocketCAN) ReadFrame(ctx context.Context, timeout time.Duration) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return Frame{}, fmt.Errorf("%s: %w", s.iface, err)
		}

		if !s.recv.Receive() {
			err := s.recv.Err()
			// A receiver stops for good after any error.
			s.recv = socketcan.NewReceiver(s.conn)
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return Frame{}, ErrNoFrame
			}
			if err == nil {
				err = io.EOF
			}
			return Frame{}, fmt.Errorf("%s: %w", s.iface, err)
		}

		if s.recv.HasErrorFrame() {
			continue
		}

		f := s.recv.Frame()
		if f.IsRemote {
			continue
		}

		return Frame{
			ID:        f.ID,
			Extended:  f.IsExtended,
			Data:      append([]byte(nil), f.Data[:f.Length]...),
			Timestamp: time.Now(),
		}, nil
	}
}

func (s *SocketCAN) Close() error {
	return s.conn.Close()
}

var runIP = func(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "ip", args...).CombinedOutput()
}

// LinkUp (re)configures iface at bitrate through iproute2. It needs
// CAP_NET_ADMIN.
func LinkUp(ctx context.Context, iface string, bitrate int) error {
	steps := [][]string{
		{"link", "set", iface, "down"},
		{"link", "set", iface, "up", "type", "can", "bitrate", strconv.Itoa(bitrate)},
	}

	for _, args := range steps {
		out, err := runIP(ctx, args...)
		if err != nil {
			return fmt.Errorf("%w: ip %s: %w: %s",
				ErrBusUnavailable, strings.Join(args, " "), err, bytes.TrimSpace(out))
		}
	}

	return nil
}
