package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SaveStorage updates the storage section of the config file in place.
// This preserves comments and formatting in other sections by editing the
// yaml.Node tree rather than re-marshaling the whole document.
func SaveStorage(configPath string, storage StorageConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	storageNode, err := buildStorageNode(storage)
	if err != nil {
		return fmt.Errorf("building storage node: %w", err)
	}

	if doc.Kind == 0 {
		// Empty or new file - create document structure
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: "storage"},
						storageNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == "storage" {
					root.Content[i+1] = storageNode
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: "storage"},
					storageNode,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := os.WriteFile(configPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// buildStorageNode converts a StorageConfig to a yaml.Node mapping.
func buildStorageNode(storage StorageConfig) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	if err := node.Encode(map[string]string{
		"backend": storage.Backend,
		"dir":     storage.Dir,
	}); err != nil {
		return nil, err
	}
	return node, nil
}
