package transit

import (
	"transit_router/pkg/catalogue"
	"transit_router/pkg/graph"
)

// Phase distinguishes the two routing vertices of a stop.
type Phase uint8

const (
	// PhaseArrived is the state of having just reached a stop.
	PhaseArrived Phase = iota
	// PhaseBoarding is the state of having waited and being ready to board.
	PhaseBoarding
)

// Vertex is a (stop, phase) routing state. Every stop owns exactly two.
type Vertex struct {
	Stop  catalogue.StopID
	Phase Phase
}

// Arrived returns the arrived vertex of a stop.
func Arrived(s catalogue.StopID) Vertex { return Vertex{Stop: s, Phase: PhaseArrived} }

// Boarding returns the boarding vertex of a stop.
func Boarding(s catalogue.StopID) Vertex { return Vertex{Stop: s, Phase: PhaseBoarding} }

// ID returns the dense graph vertex id: 2*stop for arrived, 2*stop+1 for
// boarding.
func (v Vertex) ID() graph.VertexID {
	return graph.VertexID(2*uint32(v.Stop) + uint32(v.Phase))
}

// VertexFromID is the inverse of Vertex.ID.
func VertexFromID(id graph.VertexID) Vertex {
	return Vertex{Stop: catalogue.StopID(id / 2), Phase: Phase(id % 2)}
}
