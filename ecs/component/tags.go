package component

import "slices"

// ScriptTags are the tags a spawn script attached to an object.
type ScriptTags struct {
	Tags []string
}

var ScriptTagsComponent = NewComponent[ScriptTags]()

func (s ScriptTags) Has(tag string) bool {
	return slices.Contains(s.Tags, tag)
}
