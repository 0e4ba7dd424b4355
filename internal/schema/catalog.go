package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Reserved schema-definition keys; every other key is a conversion rule.
const (
	keyArgs          = "args"
	keyURLTemplate   = "url_template"
	keyAllowedValues = "allowed_values"
)

// MalformedCatalogError reports a structurally invalid schema document.
type MalformedCatalogError struct {
	Msg string
}

func (e *MalformedCatalogError) Error() string {
	return "malformed schema catalog: " + e.Msg
}

// Catalog maps product names to named schema definitions, loaded once from a
// data document and read-only thereafter. The document is JSON-shaped; it is
// decoded through the YAML node API so that rule order survives (Go maps
// would destroy the stored order the conversion rules rely on).
type Catalog struct {
	products []product
}

type product struct {
	name     string
	variants []variantDef
}

type variantDef struct {
	name   string
	schema *Schema
}

// Load parses a schema catalog document.
func Load(doc []byte) (*Catalog, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, &MalformedCatalogError{Msg: err.Error()}
	}
	if len(root.Content) == 0 {
		return &Catalog{}, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &MalformedCatalogError{Msg: "document root must be a mapping of products"}
	}

	catalog := &Catalog{}
	for i := 0; i < len(top.Content); i += 2 {
		productName := top.Content[i].Value
		variantsNode := top.Content[i+1]
		if variantsNode.Kind != yaml.MappingNode {
			return nil, &MalformedCatalogError{Msg: fmt.Sprintf("product %q must map variant names to schema definitions", productName)}
		}
		p := product{name: productName}
		for j := 0; j < len(variantsNode.Content); j += 2 {
			variantName := variantsNode.Content[j].Value
			s, err := buildSchema(productName, variantName, variantsNode.Content[j+1])
			if err != nil {
				return nil, err
			}
			p.variants = append(p.variants, variantDef{name: variantName, schema: s})
		}
		catalog.products = append(catalog.products, p)
	}
	return catalog, nil
}

// Products returns the product names in stored order.
func (c *Catalog) Products() []string {
	names := make([]string, 0, len(c.products))
	for _, p := range c.products {
		names = append(names, p.name)
	}
	return names
}

// Variants returns a product's schema-variant names in stored order.
func (c *Catalog) Variants(productName string) ([]string, error) {
	for _, p := range c.products {
		if p.name == productName {
			names := make([]string, 0, len(p.variants))
			for _, v := range p.variants {
				names = append(names, v.name)
			}
			return names, nil
		}
	}
	return nil, &MalformedCatalogError{Msg: fmt.Sprintf("unknown product %q", productName)}
}

// Schema extracts one schema. The returned schema is a view into the
// catalog, not separately owned.
func (c *Catalog) Schema(productName, variantName string) (*Schema, error) {
	for _, p := range c.products {
		if p.name != productName {
			continue
		}
		for _, v := range p.variants {
			if v.name == variantName {
				return v.schema, nil
			}
		}
		return nil, &MalformedCatalogError{Msg: fmt.Sprintf("product %q has no schema %q", productName, variantName)}
	}
	return nil, &MalformedCatalogError{Msg: fmt.Sprintf("unknown product %q", productName)}
}

// buildSchema separates the reserved keys from the conversion rules and
// validates the rule trees.
func buildSchema(productName, variantName string, node *yaml.Node) (*Schema, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &MalformedCatalogError{Msg: fmt.Sprintf("schema %s/%s must be a mapping", productName, variantName)}
	}

	s := &Schema{
		Product:       productName,
		Variant:       variantName,
		AllowedValues: map[string][]string{},
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		switch key {
		case keyArgs:
			args, err := scalarSequence(value)
			if err != nil {
				return nil, &MalformedCatalogError{Msg: fmt.Sprintf("schema %s/%s: args must be a list of names", productName, variantName)}
			}
			s.Args = args
		case keyURLTemplate:
			if value.Kind != yaml.ScalarNode {
				return nil, &MalformedCatalogError{Msg: fmt.Sprintf("schema %s/%s: url_template must be a string", productName, variantName)}
			}
			s.URLTemplate = value.Value
		case keyAllowedValues:
			if value.Kind != yaml.MappingNode {
				return nil, &MalformedCatalogError{Msg: fmt.Sprintf("schema %s/%s: allowed_values must be a mapping", productName, variantName)}
			}
			for j := 0; j < len(value.Content); j += 2 {
				values, err := scalarSequence(value.Content[j+1])
				if err != nil {
					return nil, &MalformedCatalogError{Msg: fmt.Sprintf("schema %s/%s: allowed_values entries must be lists", productName, variantName)}
				}
				s.AllowedValues[value.Content[j].Value] = values
			}
		default:
			conv, err := buildConversion(key, value)
			if err != nil {
				return nil, err
			}
			s.Conversions = append(s.Conversions, *conv)
		}
	}
	return s, nil
}

// buildConversion parses one "<source>-to-<target>" rule into a validated
// tree. Structural violations fail here, at load time, rather than
// mid-evaluation.
func buildConversion(key string, node *yaml.Node) (*Conversion, error) {
	source, target, err := parseConversionKey(key)
	if err != nil {
		return nil, err
	}
	root, err := buildNode(node)
	if err != nil {
		return nil, err
	}
	return &Conversion{Source: source, Target: target, Root: *root}, nil
}

func buildNode(node *yaml.Node) (*Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &Error{Msg: "Translator object is neither a string nor a dictionary"}
	}
	n := &Node{}
	for i := 0; i < len(node.Content); i += 2 {
		match := node.Content[i].Value
		value := node.Content[i+1]
		switch value.Kind {
		case yaml.ScalarNode:
			n.Branches = append(n.Branches, Branch{Match: match, IsValue: true, Value: value.Value})
		case yaml.MappingNode:
			// A nested translator must hold exactly one conversion key.
			if len(value.Content) != 2 {
				return nil, &Error{Msg: "Translator object should only have one key available"}
			}
			chain, err := buildConversion(value.Content[0].Value, value.Content[1])
			if err != nil {
				return nil, err
			}
			n.Branches = append(n.Branches, Branch{Match: match, Chain: chain})
		default:
			return nil, &Error{Msg: "Translator object is neither a string nor a dictionary"}
		}
	}
	return n, nil
}

func scalarSequence(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("not a sequence")
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("not a scalar")
		}
		values = append(values, item.Value)
	}
	return values, nil
}
