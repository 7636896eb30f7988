package transit

import "transit_router/pkg/graph"

// unpackRide returns the names of the stops a ride edge passes, boarding and
// alighting stops included, in travel order.
func (n *Network) unpackRide(info EdgeInfo) []string {
	bus := n.store.Bus(info.Bus)
	step := 1
	if info.Reverse {
		step = -1
	}
	names := make([]string, 0, info.Span+1)
	for i := info.From; ; i += step {
		names = append(names, n.store.Stop(bus.Stops[i]).Name)
		if i == info.To {
			break
		}
	}
	return names
}

// decode turns a path of network edges into itinerary items. An edge leaving
// an arrived vertex is a wait; every other edge is a ride.
func (n *Network) decode(edges []graph.EdgeID) []Item {
	items := make([]Item, 0, len(edges))
	for _, id := range edges {
		e, info := n.Edge(id)
		if VertexFromID(e.From).Phase == PhaseArrived {
			items = append(items, Item{
				Kind:     ItemWait,
				StopName: n.store.Stop(VertexFromID(e.From).Stop).Name,
				Time:     e.Weight,
			})
			continue
		}
		items = append(items, Item{
			Kind:      ItemBus,
			BusName:   n.store.Bus(info.Bus).Name,
			SpanCount: info.Span,
			Time:      e.Weight,
			Stops:     n.unpackRide(info),
		})
	}
	return items
}
