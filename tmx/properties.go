package tmx

import (
	"strconv"
	"strings"
)

type PropertyType string

const (
	PropString PropertyType = "string"
	PropInt    PropertyType = "int"
	PropFloat  PropertyType = "float"
	PropBool   PropertyType = "bool"
	PropColor  PropertyType = "color"
	PropFile   PropertyType = "file"
	PropObject PropertyType = "object"
	PropClass  PropertyType = "class"
)

type Property struct {
	Name  string
	Type  PropertyType
	Value string
}

// Properties keeps document order; lookups are linear since lists are short.
type Properties []Property

func (p Properties) Get(name string) (Property, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

func (p Properties) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

func (p Properties) String(name string) string {
	prop, _ := p.Get(name)
	return prop.Value
}

func (p Properties) Int(name string) (int, bool) {
	prop, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(prop.Value))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p Properties) Float(name string) (float64, bool) {
	prop, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(prop.Value), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p Properties) Bool(name string) (bool, bool) {
	prop, ok := p.Get(name)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(strings.TrimSpace(prop.Value))
	if err != nil {
		return false, false
	}
	return v, true
}

// Map returns the properties converted to Go values by their declared type.
func (p Properties) Map() map[string]any {
	out := make(map[string]any, len(p))
	for _, prop := range p {
		switch prop.Type {
		case PropInt, PropObject:
			if v, err := strconv.Atoi(prop.Value); err == nil {
				out[prop.Name] = v
				continue
			}
		case PropFloat:
			if v, err := strconv.ParseFloat(prop.Value, 64); err == nil {
				out[prop.Name] = v
				continue
			}
		case PropBool:
			if v, err := strconv.ParseBool(prop.Value); err == nil {
				out[prop.Name] = v
				continue
			}
		}
		out[prop.Name] = prop.Value
	}
	return out
}
