package pcaptypes

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/sync/errgroup"

	"github.com/callscope/callscope/internal/pkg/capture"
	"github.com/callscope/callscope/internal/pkg/types"
)

// ListenerInput passively receives packets pushed over UDP by a remote
// capture agent. Each datagram payload is delivered as one raw packet
// stamped with arrival time; decoding the agent's encapsulation is the
// consumer's concern.
type ListenerInput struct {
	conn *net.UDPConn
	sink capture.PacketSink
	done atomic.Bool
}

// NewListenerInput binds a UDP socket on addr ("host:port").
func NewListenerInput(addr string) (*ListenerInput, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &ListenerInput{conn: conn}, nil
}

// Mode reports this input as a passive listener; listeners count as online.
func (in *ListenerInput) Mode() capture.Mode {
	return capture.ModeListen
}

// Bind sets the sink received packets are delivered to.
func (in *ListenerInput) Bind(sink capture.PacketSink) {
	in.sink = sink
}

// SetFilter is a no-op; the listener accepts whatever the agent sends.
func (in *ListenerInput) SetFilter(expr string) error {
	return nil
}

// Run receives datagrams until ctx is cancelled. Cancellation unblocks the
// read by closing the socket.
func (in *ListenerInput) Run(ctx context.Context) error {
	defer in.done.Store(true)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		in.conn.Close()
		return nil
	})
	g.Go(func() error {
		buf := make([]byte, MaxSnapshotLen)
		for {
			n, _, err := in.conn.ReadFromUDP(buf)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
			data := make([]byte, n)
			copy(data, buf[:n])

			if in.sink != nil {
				ci := gopacket.CaptureInfo{
					Timestamp:     time.Now(),
					CaptureLength: n,
					Length:        n,
				}
				in.sink.OutputPacket(types.NewPacket(ci, layers.LinkTypeRaw, data))
			}
		}
	})
	return g.Wait()
}

// Done reports whether the listener has shut down.
func (in *ListenerInput) Done() bool {
	return in.done.Load()
}

// Close releases the socket. Safe after Run has already closed it.
func (in *ListenerInput) Close() error {
	err := in.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Addr returns the bound listen address.
func (in *ListenerInput) Addr() net.Addr {
	return in.conn.LocalAddr()
}
