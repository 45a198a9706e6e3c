package loader

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/inheritview/schema"
)

// Mappings whose order drives the generated SQL (children, additional and
// merge columns) are decoded through yaml.Node so document order survives.
type yamlDefinition struct {
	Schema               string               `yaml:"schema"`
	Alias                string               `yaml:"alias"`
	Table                string               `yaml:"table"`
	PKey                 string               `yaml:"pkey"`
	PKeyValue            string               `yaml:"pkey_value"`
	PKeyValueCreateEntry bool                 `yaml:"pkey_value_create_entry"`
	AllowParentOnly      *bool                `yaml:"allow_parent_only"`
	CustomDelete         string               `yaml:"custom_delete"`
	Alter                map[string]yamlAlter `yaml:"alter"`
	Remap                map[string]string    `yaml:"remap"`
	Children             yaml.Node            `yaml:"children"`
	MergeView            *yamlMergeView       `yaml:"merge_view"`
}

type yamlEntity struct {
	Table        string               `yaml:"table"`
	PKey         string               `yaml:"pkey"`
	CustomDelete string               `yaml:"custom_delete"`
	Alter        map[string]yamlAlter `yaml:"alter"`
	Remap        map[string]string    `yaml:"remap"`
}

type yamlAlter struct {
	Read  string `yaml:"read"`
	Write string `yaml:"write"`
}

type yamlMergeView struct {
	Name              string    `yaml:"name"`
	AdditionalColumns yaml.Node `yaml:"additional_columns"`
	MergeColumns      yaml.Node `yaml:"merge_columns"`
	AllowTypeChange   bool      `yaml:"allow_type_change"`
	AdditionalJoin    string    `yaml:"additional_join"`
}

type pair struct {
	key   string
	value *yaml.Node
}

// LoadDefinitionFromYAML reads and parses a definition file.
func LoadDefinitionFromYAML(filename string) (*schema.Definition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition turns a YAML document into a definition. Defaults are
// applied here; required fields are checked by the validator.
func ParseDefinition(data []byte) (*schema.Definition, error) {
	var yd yamlDefinition
	if err := yaml.Unmarshal(data, &yd); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	def := &schema.Definition{
		Entity: schema.Entity{
			Alias:        yd.Alias,
			Table:        yd.Table,
			PKey:         yd.PKey,
			CustomDelete: yd.CustomDelete,
			Alters:       convertAlter(yd.Alter),
			Remaps:       yd.Remap,
		},
		Schema:               yd.Schema,
		PKeyValue:            yd.PKeyValue,
		PKeyValueCreateEntry: yd.PKeyValueCreateEntry,
		AllowParentOnly:      true,
	}
	if yd.AllowParentOnly != nil {
		def.AllowParentOnly = *yd.AllowParentOnly
	}

	children, err := mappingPairs(&yd.Children, "children")
	if err != nil {
		return nil, err
	}
	for _, p := range children {
		var ye yamlEntity
		if err := p.value.Decode(&ye); err != nil {
			return nil, fmt.Errorf("children.%s: %w", p.key, err)
		}
		def.Children = append(def.Children, &schema.Entity{
			Alias:        p.key,
			Table:        ye.Table,
			PKey:         ye.PKey,
			CustomDelete: ye.CustomDelete,
			Alters:       convertAlter(ye.Alter),
			Remaps:       ye.Remap,
		})
	}

	if yd.MergeView != nil {
		mv, err := convertMergeView(yd.MergeView)
		if err != nil {
			return nil, err
		}
		def.MergeView = mv
	}

	return def, nil
}

func convertMergeView(ym *yamlMergeView) (*schema.MergeView, error) {
	mv := &schema.MergeView{
		Name:            ym.Name,
		AllowTypeChange: ym.AllowTypeChange,
		AdditionalJoin:  ym.AdditionalJoin,
	}

	additional, err := mappingPairs(&ym.AdditionalColumns, "merge_view.additional_columns")
	if err != nil {
		return nil, err
	}
	for _, p := range additional {
		var expr string
		if err := p.value.Decode(&expr); err != nil {
			return nil, fmt.Errorf("merge_view.additional_columns.%s: %w", p.key, err)
		}
		mv.AdditionalColumns = append(mv.AdditionalColumns, schema.AdditionalColumn{
			Alias:      p.key,
			Expression: expr,
		})
	}

	merged, err := mappingPairs(&ym.MergeColumns, "merge_view.merge_columns")
	if err != nil {
		return nil, err
	}
	for _, p := range merged {
		field := "merge_view.merge_columns." + p.key
		sources, err := mappingPairs(p.value, field)
		if err != nil {
			return nil, err
		}
		mc := schema.MergeColumn{Alias: p.key}
		for _, s := range sources {
			var col string
			if err := s.value.Decode(&col); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", field, s.key, err)
			}
			mc.Sources = append(mc.Sources, schema.MergeSource{Child: s.key, Column: col})
		}
		mv.MergeColumns = append(mv.MergeColumns, mc)
	}

	return mv, nil
}

func convertAlter(in map[string]yamlAlter) map[string]schema.Alter {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]schema.Alter, len(in))
	for col, a := range in {
		out[col] = schema.Alter{Read: a.Read, Write: a.Write}
	}
	return out
}

// mappingPairs returns the key/value pairs of a mapping node in document
// order. An absent or null node yields no pairs.
func mappingPairs(node *yaml.Node, field string) ([]pair, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	case yaml.MappingNode:
		pairs := make([]pair, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			pairs = append(pairs, pair{key: node.Content[i].Value, value: node.Content[i+1]})
		}
		return pairs, nil
	}
	return nil, fmt.Errorf("%s: expected a mapping (line %d)", field, node.Line)
}

// MarshalDefinition renders a definition as YAML, keeping the order of
// children and merge view columns.
func MarshalDefinition(def *schema.Definition) ([]byte, error) {
	root := mappingNode()
	addScalar(root, "schema", def.Schema)
	addScalar(root, "alias", def.Alias)
	addScalar(root, "table", def.Table)
	addScalar(root, "pkey", def.PKey)
	addScalar(root, "pkey_value", def.PKeyValue)
	if def.PKeyValueCreateEntry {
		addBool(root, "pkey_value_create_entry", true)
	}
	if !def.AllowParentOnly {
		addBool(root, "allow_parent_only", false)
	}
	addEntityRules(root, &def.Entity)

	if len(def.Children) > 0 {
		children := mappingNode()
		for _, c := range def.Children {
			child := mappingNode()
			addScalar(child, "table", c.Table)
			addScalar(child, "pkey", c.PKey)
			addEntityRules(child, c)
			addNode(children, c.Alias, child)
		}
		addNode(root, "children", children)
	}

	if mv := def.MergeView; mv != nil {
		node := mappingNode()
		addScalar(node, "name", mv.Name)
		if len(mv.AdditionalColumns) > 0 {
			cols := mappingNode()
			for _, ac := range mv.AdditionalColumns {
				addScalar(cols, ac.Alias, ac.Expression)
			}
			addNode(node, "additional_columns", cols)
		}
		if len(mv.MergeColumns) > 0 {
			cols := mappingNode()
			for _, mc := range mv.MergeColumns {
				sources := mappingNode()
				for _, s := range mc.Sources {
					addScalar(sources, s.Child, s.Column)
				}
				addNode(cols, mc.Alias, sources)
			}
			addNode(node, "merge_columns", cols)
		}
		if mv.AllowTypeChange {
			addBool(node, "allow_type_change", true)
		}
		addScalar(node, "additional_join", mv.AdditionalJoin)
		addNode(root, "merge_view", node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("marshalling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshalling YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func addEntityRules(node *yaml.Node, e *schema.Entity) {
	addScalar(node, "custom_delete", e.CustomDelete)
	if len(e.Alters) > 0 {
		alters := mappingNode()
		for _, col := range sortedKeys(e.Alters) {
			a := e.Alters[col]
			rule := mappingNode()
			addScalar(rule, "read", a.Read)
			addScalar(rule, "write", a.Write)
			addNode(alters, col, rule)
		}
		addNode(node, "alter", alters)
	}
	if len(e.Remaps) > 0 {
		remaps := mappingNode()
		for _, col := range sortedKeys(e.Remaps) {
			addScalar(remaps, col, e.Remaps[col])
		}
		addNode(node, "remap", remaps)
	}
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func addNode(parent *yaml.Node, key string, value *yaml.Node) {
	parent.Content = append(parent.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// addScalar skips empty values so exported files stay minimal.
func addScalar(parent *yaml.Node, key, value string) {
	if value == "" {
		return
	}
	addNode(parent, key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

func addBool(parent *yaml.Node, key string, value bool) {
	addNode(parent, key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(value)})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
