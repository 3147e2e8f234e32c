// Package targets holds the role-to-selector table for the feed page. The
// pipeline depends only on the roles; the selector strings are page-specific
// configuration and swap out without touching the algorithms that use them.
package targets

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed targets.yaml
var defaultYAML []byte

// Registry maps logical page roles to selector strings. Loaded once and
// treated as immutable; a reload produces a fresh value.
type Registry struct {
	// Feeds is the main feed container the observer watches.
	Feeds string `yaml:"feeds"`
	// FeedItem is one post: holds the post body and its comment box.
	FeedItem string `yaml:"feed_item"`
	// Post is the post body text container within a feed item.
	Post string `yaml:"post"`
	// Author is the post author label within a feed item.
	Author string `yaml:"author"`
	// CommentForm is one "write a comment" form.
	CommentForm string `yaml:"comment_form"`
	// CommentEditor is the text editor inside a comment form.
	CommentEditor string `yaml:"comment_editor"`
	// CommentEditorBlank is the class marking an editor with no user text.
	CommentEditorBlank string `yaml:"comment_editor_blank"`
	// Inject is the anchor inside a comment form that receives the control.
	Inject string `yaml:"inject"`
}

// Default returns the built-in registry.
func Default() Registry {
	var r Registry
	if err := yaml.Unmarshal(defaultYAML, &r); err != nil {
		// The embedded table is part of the build; failing to parse it is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("embedded targets.yaml: %v", err))
	}
	return r
}

// Load returns the built-in registry overlaid with the YAML file at path.
// An empty path or a missing file yields the defaults.
func Load(path string) (Registry, error) {
	r := Default()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return r, err
	}
	if err := r.overlay(data); err != nil {
		return r, fmt.Errorf("targets %s: %w", path, err)
	}
	return r, nil
}

// overlay merges YAML content over r and validates the result.
func (r *Registry) overlay(data []byte) error {
	if err := yaml.Unmarshal(data, r); err != nil {
		return err
	}
	return r.validate()
}

func (r Registry) validate() error {
	fields := map[string]string{
		"feeds":                r.Feeds,
		"feed_item":            r.FeedItem,
		"post":                 r.Post,
		"author":               r.Author,
		"comment_form":         r.CommentForm,
		"comment_editor":       r.CommentEditor,
		"comment_editor_blank": r.CommentEditorBlank,
		"inject":               r.Inject,
	}
	for name, val := range fields {
		if val == "" {
			return fmt.Errorf("role %q has no selector", name)
		}
	}
	return nil
}
