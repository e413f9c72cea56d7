package workflow

// ParamType identifies the data type of a parameter. Types are compared by
// exact string equality, with TypeAny acting as a wildcard on either side of
// a connection.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeJSON    ParamType = "json"
	TypeImage   ParamType = "image"
	TypeAudio   ParamType = "audio"
	TypeBlob    ParamType = "blob"
	TypeGeoJSON ParamType = "geojson"
	TypeAny     ParamType = "any"
)

// Matches reports whether a value of type t may flow into a slot of type
// other.
func (t ParamType) Matches(other ParamType) bool {
	return t == other || t == TypeAny || other == TypeAny
}

// TriggerKind identifies what kind of event starts a workflow run. Node
// types may restrict which trigger kinds they are compatible with.
type TriggerKind string

const (
	TriggerHTTP     TriggerKind = "http"
	TriggerSchedule TriggerKind = "schedule"
	TriggerManual   TriggerKind = "manual"
)

// Parameter is one named, typed input or output slot on a node.
type Parameter struct {
	Name string    `json:"name"`
	Type ParamType `json:"type"`
}

// Position is the node's location on the editor canvas. The engine carries
// it through serialization but never interprets it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the declaration of one unit of work. It owns no runtime state;
// the registry maps Type to an executable implementation when the graph is
// dispatched.
type Node struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Inputs   []Parameter    `json:"inputs"`
	Outputs  []Parameter    `json:"outputs"`
	Position Position       `json:"position"`
	Defaults map[string]any `json:"defaults,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Input returns the declared input parameter with the given name.
func (n *Node) Input(name string) (Parameter, bool) {
	for _, p := range n.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Output returns the declared output parameter with the given name.
func (n *Node) Output(name string) (Parameter, bool) {
	for _, p := range n.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Connection is a directed data-flow link: the named output of the source
// node feeds the named input of the target node.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceOutput string `json:"source_output"`
	TargetInput  string `json:"target_input"`
}

// Key returns the canonical identity of the connection, used for duplicate
// detection.
func (c *Connection) Key() string {
	return c.Source + "." + c.SourceOutput + "->" + c.Target + "." + c.TargetInput
}

// Graph is the declared set of nodes and connections defining a workflow.
// Construction is permissive; run the validate package before planning or
// dispatching.
type Graph struct {
	Nodes       []*Node       `json:"nodes"`
	Connections []*Connection `json:"connections"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Incoming returns the connections targeting the given node, in declaration
// order.
func (g *Graph) Incoming(nodeID string) []*Connection {
	var conns []*Connection
	for _, c := range g.Connections {
		if c.Target == nodeID {
			conns = append(conns, c)
		}
	}
	return conns
}

// Outgoing returns the connections originating at the given node, in
// declaration order.
func (g *Graph) Outgoing(nodeID string) []*Connection {
	var conns []*Connection
	for _, c := range g.Connections {
		if c.Source == nodeID {
			conns = append(conns, c)
		}
	}
	return conns
}
