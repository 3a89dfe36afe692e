package store

import (
	"fmt"
	"strings"
)

// FieldDescriptor describes a state field path and the type of its default.
type FieldDescriptor struct {
	Path string
	Type string
}

// ModuleDescriptor summarizes a compiled configuration tree.
type ModuleDescriptor struct {
	Name      string
	Key       string
	Fields    []FieldDescriptor
	Getters   []string
	Mutations []string
	Actions   []string
	Modules   []ModuleDescriptor
}

// Describe walks cfg and its children. Child modules appear under the key
// their state is nested at; names are sorted.
func Describe(cfg *Config) ModuleDescriptor {
	if cfg == nil {
		return ModuleDescriptor{}
	}
	return describe(cfg, "", map[*Config]struct{}{})
}

func describe(cfg *Config, key string, visiting map[*Config]struct{}) ModuleDescriptor {
	desc := ModuleDescriptor{
		Name:      cfg.Name,
		Key:       key,
		Fields:    deriveFieldDescriptors(cfg.State, ""),
		Getters:   sortedKeys(cfg.Getters),
		Mutations: sortedKeys(cfg.Mutations),
		Actions:   sortedKeys(cfg.Actions),
	}
	if desc.Fields == nil {
		desc.Fields = []FieldDescriptor{}
	}
	if _, ok := visiting[cfg]; ok {
		return desc
	}
	visiting[cfg] = struct{}{}
	defer delete(visiting, cfg)

	for _, childKey := range sortedKeys(cfg.Modules) {
		child := cfg.Modules[childKey]
		if child == nil {
			continue
		}
		desc.Modules = append(desc.Modules, describe(child, childKey, visiting))
	}
	return desc
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	switch typed := value.(type) {
	case State:
		return deriveFieldDescriptors(map[string]any(typed), prefix)
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{Path: prefix, Type: "map[string]any"}}
		}
		var fields []FieldDescriptor
		for _, key := range sortedKeys(typed) {
			fields = append(fields, deriveFieldDescriptors(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: typeName(typed)}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}

// String renders d as an indented outline.
func (d ModuleDescriptor) String() string {
	var b strings.Builder
	d.write(&b, 0)
	return b.String()
}

func (d ModuleDescriptor) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	label := d.Name
	if d.Key != "" && d.Key != d.Name {
		label = fmt.Sprintf("%s (%s)", d.Key, d.Name)
	}
	fmt.Fprintf(b, "%smodule %s\n", indent, label)
	for _, field := range d.Fields {
		fmt.Fprintf(b, "%s  state %s %s\n", indent, field.Path, field.Type)
	}
	for _, name := range d.Getters {
		fmt.Fprintf(b, "%s  getter %s\n", indent, name)
	}
	for _, name := range d.Mutations {
		fmt.Fprintf(b, "%s  mutation %s\n", indent, name)
	}
	for _, name := range d.Actions {
		fmt.Fprintf(b, "%s  action %s\n", indent, name)
	}
	for _, child := range d.Modules {
		child.write(b, depth+1)
	}
}
