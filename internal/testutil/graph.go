package testutil

import "github.com/vk/flowgridgo/internal/workflow"

// ValueNode declares a node of the given type with the conventional
// any-typed "value" input and output.
func ValueNode(id, typeID string) *workflow.Node {
	return &workflow.Node{
		ID:   id,
		Name: id,
		Type: typeID,
		Inputs: []workflow.Parameter{
			{Name: "value", Type: workflow.TypeAny},
		},
		Outputs: []workflow.Parameter{
			{Name: "value", Type: workflow.TypeAny},
		},
	}
}

// ValueConn wires source.value to target.value.
func ValueConn(source, target string) *workflow.Connection {
	return &workflow.Connection{
		Source:       source,
		SourceOutput: "value",
		Target:       target,
		TargetInput:  "value",
	}
}

// LinearGraph builds a chain of ValueNodes of one type, wired head to tail
// in the order the ids are given.
func LinearGraph(typeID string, ids ...string) *workflow.Graph {
	g := &workflow.Graph{}
	for _, id := range ids {
		g.Nodes = append(g.Nodes, ValueNode(id, typeID))
	}
	for i := 1; i < len(ids); i++ {
		g.Connections = append(g.Connections, ValueConn(ids[i-1], ids[i]))
	}
	return g
}
