// Package hclfile loads workflow definitions from HCL files for the CLI
// host. The editor/persistence boundary exchanges graphs as JSON; HCL is
// the on-disk format for running workflows directly from a file.
package hclfile

import (
	"fmt"
	"os"
	"regexp"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/workflow"
)

// Workflow is one parsed workflow definition.
type Workflow struct {
	Name    string
	Trigger workflow.TriggerKind
	Graph   *workflow.Graph
}

type fileSchema struct {
	Workflows []*workflowBlock `hcl:"workflow,block"`
}

type workflowBlock struct {
	Name        string             `hcl:"name,label"`
	Trigger     string             `hcl:"trigger,optional"`
	Nodes       []*nodeBlock       `hcl:"node,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
}

type nodeBlock struct {
	Type     string        `hcl:"type,label"`
	ID       string        `hcl:"id,label"`
	Name     string        `hcl:"name,optional"`
	Position []float64     `hcl:"position,optional"`
	Inputs   []*paramBlock `hcl:"input,block"`
	Outputs  []*paramBlock `hcl:"output,block"`
}

type paramBlock struct {
	Name    string     `hcl:"name,label"`
	Type    string     `hcl:"type"`
	Default *cty.Value `hcl:"default,optional"`
}

type connectionBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// endpointRegex parses connection endpoints of the form "node_id.param".
var endpointRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)\.([a-zA-Z0-9_-]+)$`)

// LoadFile parses one workflow definition from the file at path.
func LoadFile(path string) (*Workflow, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes a workflow definition from HCL source. The file must
// contain exactly one workflow block.
func Parse(src []byte, filename string) (*Workflow, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var root fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}
	if len(root.Workflows) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one workflow block, found %d", filename, len(root.Workflows))
	}

	return translate(root.Workflows[0])
}

func translate(wb *workflowBlock) (*Workflow, error) {
	g := &workflow.Graph{}

	for _, nb := range wb.Nodes {
		n := &workflow.Node{
			ID:   nb.ID,
			Name: nb.Name,
			Type: nb.Type,
		}
		if n.Name == "" {
			n.Name = nb.ID
		}
		if len(nb.Position) == 2 {
			n.Position = workflow.Position{X: nb.Position[0], Y: nb.Position[1]}
		}
		for _, pb := range nb.Inputs {
			n.Inputs = append(n.Inputs, workflow.Parameter{
				Name: pb.Name,
				Type: workflow.ParamType(pb.Type),
			})
			if pb.Default != nil {
				v, err := ctyToGo(*pb.Default)
				if err != nil {
					return nil, fmt.Errorf("node %q input %q: %w", nb.ID, pb.Name, err)
				}
				if n.Defaults == nil {
					n.Defaults = make(map[string]any)
				}
				n.Defaults[pb.Name] = v
			}
		}
		for _, pb := range nb.Outputs {
			n.Outputs = append(n.Outputs, workflow.Parameter{
				Name: pb.Name,
				Type: workflow.ParamType(pb.Type),
			})
		}
		g.Nodes = append(g.Nodes, n)
	}

	for _, cb := range wb.Connections {
		srcNode, srcParam, err := splitEndpoint(cb.From)
		if err != nil {
			return nil, fmt.Errorf("connection from: %w", err)
		}
		tgtNode, tgtParam, err := splitEndpoint(cb.To)
		if err != nil {
			return nil, fmt.Errorf("connection to: %w", err)
		}
		g.Connections = append(g.Connections, &workflow.Connection{
			Source:       srcNode,
			SourceOutput: srcParam,
			Target:       tgtNode,
			TargetInput:  tgtParam,
		})
	}

	trigger := workflow.TriggerKind(wb.Trigger)
	if trigger == "" {
		trigger = workflow.TriggerManual
	}

	return &Workflow{Name: wb.Name, Trigger: trigger, Graph: g}, nil
}

func splitEndpoint(addr string) (nodeID, param string, err error) {
	matches := endpointRegex.FindStringSubmatch(addr)
	if matches == nil {
		return "", "", fmt.Errorf("invalid endpoint address %q, want \"node_id.parameter\"", addr)
	}
	return matches[1], matches[2], nil
}
