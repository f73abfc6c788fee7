package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL parses the KDL config file at path on top of the defaults
func LoadKDL(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseKDL(string(content))
}

// Simple KDL parser for CHI32 tool configuration
func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "canonical":
			for _, cn := range n.Children { // canonical { data_dir "validation/canonical_data" }
				assignSimpleString(cn, "data_dir", func(v string) { cfg.Canonical.DataDir = v })
				assignSimpleString(cn, "meta_file", func(v string) { cfg.Canonical.MetaFile = v })
				assignSimpleString(cn, "out_dir", func(v string) { cfg.Canonical.OutDir = v })
				if nodeName(cn) == "max_mismatches" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Canonical.MaxMismatches = v
					}
				}
			}
		case "stream":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "buffer_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Stream.BufferSize = v
					}
				}
			}
		case "battery":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "default":
					if s, ok := firstStringArg(cn); ok {
						cfg.Battery.Default = s
					}
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Battery.Workers = v
					}
				}
			}
		case "walker":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "steps":
					if v, ok := firstIntArg(cn); ok && v > 0 {
						cfg.Walker.Steps = uint64(v)
					}
				case "scale_shift":
					if v, ok := firstIntArg(cn); ok {
						cfg.Walker.ScaleShift = v
					}
				case "out_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Walker.OutDir = s
					}
				case "generators":
					cfg.Walker.Generators = collectStringArgs(cn)
				}
			}
		default:
			log.Printf("WARNING: unknown node '%s' in KDL config", nodeName(n))
		}
	}

	return cfg, nil
}

// Helper functions leveraging kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}
func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: generators { "chi32"; "pcg32" }
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}
func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
