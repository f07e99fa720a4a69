package observe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/comalice/fsmx"
)

// Edge is an observed transition between two states.
type Edge struct {
	From  fsmx.StateKey `json:"from" yaml:"from"`
	To    fsmx.StateKey `json:"to" yaml:"to"`
	Count int           `json:"count" yaml:"count"`
}

// Graph is the transition graph observed by a Recorder.
type Graph struct {
	MachineID string          `json:"machineID,omitempty" yaml:"machineID,omitempty"`
	Initial   fsmx.StateKey   `json:"initial,omitempty" yaml:"initial,omitempty"`
	Current   fsmx.StateKey   `json:"current,omitempty" yaml:"current,omitempty"`
	States    []fsmx.StateKey `json:"states" yaml:"states"`
	Edges     []Edge          `json:"edges" yaml:"edges"`

	History []fsmx.Transition `json:"history,omitempty" yaml:"history,omitempty"`
}

// Recorder keeps the transitions of one machine and exports them as a graph.
type Recorder struct {
	mu         sync.Mutex
	machineID  string
	initial    fsmx.StateKey
	current    fsmx.StateKey
	states     []fsmx.StateKey
	seen       map[fsmx.StateKey]bool
	edges      map[[2]fsmx.StateKey]int
	history    []fsmx.Transition
	maxHistory int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithHistory keeps up to n transitions in the exported history. Zero keeps
// none; a negative n keeps everything.
func WithHistory(n int) RecorderOption {
	return func(r *Recorder) { r.maxHistory = n }
}

// NewRecorder creates an empty recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		seen:  make(map[fsmx.StateKey]bool),
		edges: make(map[[2]fsmx.StateKey]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) OnTransition(t fsmx.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.Initial {
		r.machineID = t.MachineID
		r.initial = t.To
	} else {
		r.see(t.From)
		r.edges[[2]fsmx.StateKey{t.From, t.To}]++
	}
	r.see(t.To)
	r.current = t.To

	if r.maxHistory != 0 {
		r.history = append(r.history, t)
		if r.maxHistory > 0 && len(r.history) > r.maxHistory {
			r.history = r.history[len(r.history)-r.maxHistory:]
		}
	}
}

func (r *Recorder) OnRejected(fsmx.MachineInfo, fsmx.StateKey, error) {}
func (r *Recorder) OnDuplicate(fsmx.MachineInfo, fsmx.StateKey)       {}

func (r *Recorder) see(k fsmx.StateKey) {
	if !r.seen[k] {
		r.seen[k] = true
		r.states = append(r.states, k)
	}
}

// Graph returns a copy of the recorded graph. Edges are sorted by source
// and target.
func (r *Recorder) Graph() Graph {
	r.mu.Lock()
	defer r.mu.Unlock()

	edges := make([]Edge, 0, len(r.edges))
	for k, n := range r.edges {
		edges = append(edges, Edge{From: k[0], To: k[1], Count: n})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return Graph{
		MachineID: r.machineID,
		Initial:   r.initial,
		Current:   r.current,
		States:    append([]fsmx.StateKey{}, r.states...),
		Edges:     edges,
		History:   append([]fsmx.Transition(nil), r.history...),
	}
}

// ExportDOT generates Graphviz DOT source for the recorded graph. The
// current state is filled, the initial state is drawn with a double border.
func (r *Recorder) ExportDOT() string {
	g := r.Graph()

	var buf bytes.Buffer
	buf.WriteString(`digraph Machine {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)
	if g.MachineID != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", g.MachineID)
	}

	for _, s := range g.States {
		var attrs []string
		if s == g.Initial {
			attrs = append(attrs, "peripheries=2")
		}
		if s == g.Current {
			attrs = append(attrs, `style="rounded,filled"`, "fillcolor=lightgreen")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q;\n", s)
		} else {
			fmt.Fprintf(&buf, "  %q [%s];\n", s, strings.Join(attrs, " "))
		}
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", e.From, e.To, e.Count)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the recorded graph to JSON.
func (r *Recorder) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(r.Graph(), "", "  ")
}

// ExportYAML serializes the recorded graph to YAML.
func (r *Recorder) ExportYAML() ([]byte, error) {
	return yaml.Marshal(r.Graph())
}

// WriteFile exports the graph to path. The format follows the extension:
// .json, .yaml/.yml or .dot/.gv.
func (r *Recorder) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = r.ExportJSON()
	case ".yaml", ".yml":
		data, err = r.ExportYAML()
	case ".dot", ".gv":
		data = []byte(r.ExportDOT())
	default:
		return fmt.Errorf("export %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
