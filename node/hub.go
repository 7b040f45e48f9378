package node

import (
	"github.com/canndrew/netsim-sub001/device"
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Hub joins children into a shared Ethernet broadcast domain: every frame
// any child sends is flooded to every other child and to the subtree's own
// escape plug, with no address learning or filtering. Unlike Router, Hub
// carves no address range of its own — EtherRecipe children (and the
// escape plug) see raw frames.
func Hub[R any](children ...EtherRecipe[R]) EtherRecipe[[]R] {
	return func(s *sched.Scheduler) (*machine.SpawnComplete[[]R], plug.EtherPlug) {
		completes := make([]*machine.SpawnComplete[R], len(children))
		childPlugs := make([]plug.EtherPlug, len(children))

		tasks := make([]func() error, len(children))
		for i, child := range children {
			i, child := i, child
			tasks[i] = func() error {
				complete, childPlug := child(s)
				completes[i] = complete
				childPlugs[i] = childPlug
				return nil
			}
		}
		if err := s.Run(tasks...); err != nil {
			newError("failed to build hub children").Base(err).AtError().WriteToLog()
		}

		escapeInner, escapeOuter := plug.NewPair[wire.EtherFrame]()
		ports := append(childPlugs, escapeInner)

		h := device.NewHub(ports)
		h.Spawn(s.Context())

		complete := machine.Join(s.Context(), completes)
		return complete, escapeOuter
	}
}
