package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"

	"github.com/hay-kot/qgen/internal/core"
)

// namedKey is the top-level key a configuration may be nested under.
const namedKey = "config"

// parseCandidate parses data and returns the node holding the configuration:
// the value under a top-level "config" key when present, otherwise the whole
// document. It returns nil when the document holds no configuration.
func parseCandidate(data []byte) (ast.Node, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, err
	}

	if len(file.Docs) == 0 || isEmptyNode(file.Docs[0].Body) {
		return nil, nil
	}

	body := file.Docs[0].Body

	values, ok := mappingValues(body)
	if !ok {
		// Not a mapping; decoding reports the shape mismatch.
		return body, nil
	}

	if len(values) == 0 {
		return nil, nil
	}

	for _, mv := range values {
		if keyText(mv) != namedKey {
			continue
		}
		if isEmptyNode(mv.Value) {
			return nil, nil
		}
		return mv.Value, nil
	}

	return body, nil
}

// decodeNode strictly decodes node into a Config. Decode failures become a
// *core.ConfigValidationError whose issue path names the offending field.
// Positions in the message refer to the file node was parsed from.
func decodeNode(node ast.Node, source string) (*Config, error) {
	var cfg Config
	if err := yaml.NodeToValue(node, &cfg, yaml.Strict()); err != nil {
		issue := core.Issue{Message: yaml.FormatError(err, false, false)}

		var yerr yaml.Error
		if errors.As(err, &yerr) && yerr.GetToken() != nil {
			if path, ok := pathAt(node, "", yerr.GetToken().Position); ok {
				issue.Path = path
			}
		}

		return nil, &core.ConfigValidationError{Source: source, Issues: []core.Issue{issue}}
	}
	return &cfg, nil
}

// pathAt returns the field path, in validator notation ("queues[0].name"), of
// the node under root whose token sits at pos. Deeper nodes win over their
// parents.
func pathAt(node ast.Node, path string, pos *token.Position) (string, bool) {
	if node == nil || pos == nil {
		return "", false
	}

	switch n := node.(type) {
	case *ast.MappingNode:
		for _, mv := range n.Values {
			if p, ok := pathAt(mv, path, pos); ok {
				return p, true
			}
		}
	case *ast.MappingValueNode:
		child := joinPath(path, keyText(n))
		if p, ok := pathAt(n.Value, child, pos); ok {
			return p, true
		}
		if n.Key != nil && samePosition(n.Key.GetToken(), pos) {
			return child, true
		}
		return "", false
	case *ast.SequenceNode:
		for i, v := range n.Values {
			if p, ok := pathAt(v, fmt.Sprintf("%s[%d]", path, i), pos); ok {
				return p, true
			}
		}
	case *ast.TagNode:
		return pathAt(n.Value, path, pos)
	case *ast.AnchorNode:
		return pathAt(n.Value, path, pos)
	}

	if samePosition(node.GetToken(), pos) {
		return path, true
	}
	return "", false
}

func mappingValues(node ast.Node) ([]*ast.MappingValueNode, bool) {
	switch n := node.(type) {
	case *ast.MappingNode:
		return n.Values, true
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{n}, true
	default:
		return nil, false
	}
}

func keyText(mv *ast.MappingValueNode) string {
	if mv.Key == nil || mv.Key.GetToken() == nil {
		return ""
	}
	return mv.Key.GetToken().Value
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func isEmptyNode(node ast.Node) bool {
	switch node.(type) {
	case nil, *ast.NullNode, *ast.CommentGroupNode:
		return true
	default:
		return false
	}
}

func samePosition(tk *token.Token, pos *token.Position) bool {
	return tk != nil && tk.Position != nil &&
		tk.Position.Line == pos.Line && tk.Position.Column == pos.Column
}
