package device

import (
	"context"

	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
)

// Hub floods every frame received on one port to every other port
// unchanged, the Ethernet analogue of a physical hub (not a switch: no
// learning, no filtering by destination address).
type Hub struct {
	senders   []plug.Sender[wire.EtherFrame]
	receivers []plug.Receiver[wire.EtherFrame]
}

// NewHub creates a Hub joining the given ports. Spawn starts its forwarding
// goroutines; NewHub alone does no work.
func NewHub(ports []plug.EtherPlug) *Hub {
	h := &Hub{
		senders:   make([]plug.Sender[wire.EtherFrame], len(ports)),
		receivers: make([]plug.Receiver[wire.EtherFrame], len(ports)),
	}
	for i, p := range ports {
		h.senders[i], h.receivers[i] = p.SplitSenderReceiver()
	}
	return h
}

// Spawn starts one goroutine per port, each reading that port and cloning
// the frame out (via the refcounted buffer's cheap retain) to every other
// port. Each goroutine returns once its port half-closes.
func (h *Hub) Spawn(ctx context.Context) {
	for i := range h.receivers {
		go h.runPort(ctx, i)
	}
}

func (h *Hub) runPort(ctx context.Context, ingress int) {
	for {
		frame, ok := h.receivers[ingress].Poll(ctx)
		if !ok {
			return
		}
		for i, sender := range h.senders {
			if i == ingress {
				continue
			}
			sender.Send(frame.Clone())
		}
		frame.Buffer().Release()
	}
}
