package haproxy

import (
	"bufio"
	stderrors "errors"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/haview/pkg/errors"
	"github.com/matzehuels/haview/pkg/graph"
)

// Section kinds.
const (
	KindFrontend = "frontend"
	KindBackend  = "backend"
)

// Section is one frontend or backend block.
type Section struct {
	Kind  string
	Name  string
	Lines []string
}

// ACL is a named ACL definition.
type ACL struct {
	Name       string
	Definition string
}

// Config is the routing-relevant content of a configuration.
type Config struct {
	Sections []Section
	ACLs     []ACL // first definition order; a redefinition replaces the text
}

var (
	sectionRe  = regexp.MustCompile(`^\s*(frontend|backend)\s+(\S+)`)
	aclRe      = regexp.MustCompile(`^\s*acl\s+(\S+)\s+(.*)`)
	serverRe   = regexp.MustCompile(`(?i)^\s*server\s+(\S+)\s+(\S+)`)
	useRe      = regexp.MustCompile(`(?i)^\s*(?:use_backend|default_backend)\s+(\S+)(?:\s+(?:if|unless)\s+(.+))?`)
	aclTokenRe = regexp.MustCompile(`[A-Za-z0-9_:-]+`)
)

// MaxLineSize is the longest configuration line Read accepts, comments
// included.
const MaxLineSize = 1024 * 1024

// Read splits configuration text into sections and collects ACLs.
func Read(r io.Reader) (*Config, error) {
	cfg := &Config{}
	aclIndex := map[string]int{}
	var current *Section

	lineNo := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())

		if m := aclRe.FindStringSubmatch(line); m != nil {
			def := strings.TrimSpace(m[2])
			if i, ok := aclIndex[m[1]]; ok {
				cfg.ACLs[i].Definition = def
			} else {
				aclIndex[m[1]] = len(cfg.ACLs)
				cfg.ACLs = append(cfg.ACLs, ACL{Name: m[1], Definition: def})
			}
		}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				cfg.Sections = append(cfg.Sections, *current)
			}
			current = &Section{Kind: m[1], Name: m[2]}
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		if stderrors.Is(err, bufio.ErrTooLong) {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d exceeds %d bytes", lineNo+1, MaxLineSize)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read config")
	}
	if current != nil {
		cfg.Sections = append(cfg.Sections, *current)
	}
	return cfg, nil
}

// stripComment removes a trailing "#" comment. A "#" preceded by a
// backslash is kept.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' && (i == 0 || line[i-1] != '\\') {
			return line[:i]
		}
	}
	return line
}

// Parse converts configuration text into a topology graph.
func Parse(text string) (graph.Graph, error) {
	cfg, err := Read(strings.NewReader(text))
	if err != nil {
		return graph.Graph{}, err
	}
	return cfg.Graph(), nil
}

// ParseFile reads and parses a configuration file.
func ParseFile(path string) (graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Graph{}, err
	}
	defer f.Close()
	cfg, err := Read(f)
	if err != nil {
		return graph.Graph{}, err
	}
	return cfg.Graph(), nil
}

// Graph builds the topology graph. Nodes are emitted backends first (each
// followed by its servers), then ACLs, then frontends, then backends that
// are referenced but never defined.
func (c *Config) Graph() graph.Graph {
	b := newBuilder()

	for _, sec := range c.Sections {
		if sec.Kind != KindBackend {
			continue
		}
		b.backend(sec.Name)
		for _, line := range sec.Lines {
			m := serverRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			id := ServerID(sec.Name, m[1])
			b.node(graph.Node{ID: id, Label: m[1] + "\n" + m[2], Type: graph.GroupServer, Title: m[2]})
			b.edge(graph.Edge{From: BackendID(sec.Name), To: id})
		}
	}

	known := make(map[string]bool, len(c.ACLs))
	for _, acl := range c.ACLs {
		known[acl.Name] = true
		b.node(graph.Node{ID: ACLID(acl.Name), Label: acl.Name, Type: graph.GroupACL, Title: acl.Definition})
	}

	for _, sec := range c.Sections {
		if sec.Kind != KindFrontend {
			continue
		}
		fid := FrontendID(sec.Name)
		b.node(graph.Node{ID: fid, Label: sec.Name, Type: graph.GroupFrontend, Title: sec.Name})

		for _, line := range sec.Lines {
			m := useRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			target, cond := m[1], strings.TrimSpace(m[2])
			b.backend(target)
			bid := BackendID(target)

			if cond == "" {
				b.edge(graph.Edge{From: fid, To: bid})
				continue
			}
			linked := false
			for _, tok := range aclTokenRe.FindAllString(cond, -1) {
				if !known[tok] {
					continue
				}
				linked = true
				b.edge(graph.Edge{From: fid, To: ACLID(tok)})
				b.edge(graph.Edge{From: ACLID(tok), To: bid})
			}
			if !linked {
				b.edge(graph.Edge{From: fid, To: bid, Label: "acl", Dashes: true})
			}
		}
	}
	return b.g
}

// FrontendID returns the node id of a frontend.
func FrontendID(name string) string { return "frontend::" + name }

// BackendID returns the node id of a backend.
func BackendID(name string) string { return "backend::" + name }

// ACLID returns the node id of an ACL.
func ACLID(name string) string { return "acl::" + name }

// ServerID returns the node id of a server in a backend.
func ServerID(backend, server string) string { return "server::" + backend + "::" + server }

type builder struct {
	g    graph.Graph
	seen map[string]bool
}

func newBuilder() *builder {
	return &builder{g: graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, seen: map[string]bool{}}
}

// node adds n unless a node with the same id exists.
func (b *builder) node(n graph.Node) {
	if b.seen[n.ID] {
		return
	}
	b.seen[n.ID] = true
	b.g.Nodes = append(b.g.Nodes, n)
}

func (b *builder) backend(name string) {
	b.node(graph.Node{ID: BackendID(name), Label: name, Type: graph.GroupBackend, Title: name})
}

func (b *builder) edge(e graph.Edge) {
	b.g.Edges = append(b.g.Edges, e)
}
