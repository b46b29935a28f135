package pageconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML or JSON page configuration. An empty path yields an
// empty document.
func Load(path string) (Document, error) {
	if strings.TrimSpace(path) == "" {
		return Document{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read page config %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return Document{}, fmt.Errorf("parse page config %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a page configuration. The root is either a sequence of
// blocks or a mapping; a mapping may carry "theme" plus "blocks" (or
// "tabs"), otherwise every other key is a tab id. Mapping order is kept.
func Parse(data []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Document{}, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return Document{}, nil
	}
	node := root.Content[0]

	var doc Document
	switch node.Kind {
	case yaml.SequenceNode:
		blocks, err := decodeBlocks(node)
		if err != nil {
			return Document{}, err
		}
		doc.Blocks = blocks
	case yaml.MappingNode:
		var blocksNode *yaml.Node
		rest := &yaml.Node{Kind: yaml.MappingNode}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			switch key.Value {
			case "theme":
				if err := val.Decode(&doc.Theme); err != nil {
					return Document{}, fmt.Errorf("theme: %w", err)
				}
			case "blocks", "tabs":
				if blocksNode == nil {
					blocksNode = val
				}
			default:
				rest.Content = append(rest.Content, key, val)
			}
		}
		if blocksNode == nil {
			blocksNode = rest
		}
		blocks, err := decodeBlocks(blocksNode)
		if err != nil {
			return Document{}, err
		}
		doc.Blocks = blocks
	default:
		return Document{}, errors.New("page config root must be a sequence or mapping")
	}
	return doc, nil
}

func decodeBlocks(node *yaml.Node) ([]Block, error) {
	var out []Block
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if b, ok, err := decodeBlock("", item); err != nil {
				return nil, err
			} else if ok {
				out = append(out, b)
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if b, ok, err := decodeBlock(node.Content[i].Value, node.Content[i+1]); err != nil {
				return nil, err
			} else if ok {
				out = append(out, b)
			}
		}
	default:
		return nil, fmt.Errorf("blocks must be a sequence or mapping, line %d", node.Line)
	}
	return out, nil
}

// decodeBlock skips non-mapping entries such as bare titles or flags.
func decodeBlock(key string, node *yaml.Node) (Block, bool, error) {
	if node.Kind != yaml.MappingNode {
		return Block{}, false, nil
	}
	fields := make(map[string]any, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, val := node.Content[i].Value, node.Content[i+1]
		if name == "plugins" {
			plugins, err := decodePlugins(val)
			if err != nil {
				return Block{}, false, fmt.Errorf("block %q plugins: %w", key, err)
			}
			fields[name] = plugins
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return Block{}, false, fmt.Errorf("block %q field %q: %w", key, name, err)
		}
		fields[name] = normalizeValue(v)
	}
	typ, _ := fields["type"].(string)
	return Block{Key: key, Type: typ, Fields: fields}, true, nil
}

// decodePlugins flattens a plugins sequence or slug-keyed mapping into an
// ordered list of entries. A mapping key fills in a missing slug.
func decodePlugins(node *yaml.Node) ([]any, error) {
	var out []any
	appendEntry := func(key string, n *yaml.Node) error {
		var entry map[string]any
		switch n.Kind {
		case yaml.MappingNode:
			if err := n.Decode(&entry); err != nil {
				return err
			}
			for k, v := range entry {
				entry[k] = normalizeValue(v)
			}
		case yaml.ScalarNode:
			entry = map[string]any{"slug": n.Value}
		default:
			return nil
		}
		if s, _ := entry["slug"].(string); strings.TrimSpace(s) == "" && key != "" {
			entry["slug"] = key
		}
		out = append(out, entry)
		return nil
	}
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if err := appendEntry("", item); err != nil {
				return nil, err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if err := appendEntry(node.Content[i].Value, node.Content[i+1]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// normalizeValue rewrites maps with non-string keys (yaml decodes `2024: x`
// as map[any]any) into map[string]any so every block encodes as JSON.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeValue(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeValue(val)
		}
		return t
	default:
		return v
	}
}
