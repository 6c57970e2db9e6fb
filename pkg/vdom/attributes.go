package vdom

import (
	"strings"
)

// Attr is a single element attribute. A nil or false value removes the
// attribute from the live element.
type Attr struct {
	Key   string
	Value any
}

func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Key sets the reconciliation key of the element. It is not rendered.
func Key(key any) Attr { return attr("key", key) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// Classes builds a class attribute from a set of conditional classes.
// Classes are emitted in argument order; later duplicates are dropped.
func Classes(classes ...any) Attr {
	var out []string
	seen := make(map[string]bool)
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range classes {
		switch v := c.(type) {
		case string:
			add(v)
		case []string:
			for _, s := range v {
				add(s)
			}
		case map[string]bool:
			for _, k := range sortedKeys(v) {
				if v[k] {
					add(k)
				}
			}
		}
	}
	return attr("class", strings.Join(out, " "))
}

// ClassIf sets class when cond holds.
func ClassIf(cond bool, class string) Attr {
	if !cond {
		return Attr{}
	}
	return attr("class", class)
}

// AttrIf returns a when cond holds.
func AttrIf(cond bool, a Attr) Attr {
	if !cond {
		return Attr{}
	}
	return a
}

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data sets a data-* attribute.
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", hidden) }

// AriaExpanded sets the aria-expanded attribute.
func AriaExpanded(expanded bool) Attr { return attr("aria-expanded", expanded) }

// AriaLive sets the aria-live attribute.
func AriaLive(mode string) Attr { return attr("aria-live", mode) }

// TabIndex sets the tabindex attribute.
func TabIndex(index int) Attr { return attr("tabindex", index) }

// Hidden sets the hidden attribute.
func Hidden() Attr { return attr("hidden", true) }

// TitleAttr sets the title attribute.
func TitleAttr(title string) Attr { return attr("title", title) }

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Target sets the target attribute.
func Target(target string) Attr { return attr("target", target) }

// Name sets the name attribute.
func Name(name string) Attr { return attr("name", name) }

// Value sets the value attribute.
func Value(value string) Attr { return attr("value", value) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return attr("placeholder", text) }

// For sets the for attribute of a label.
func For(id string) Attr { return attr("for", id) }

// Src sets the src attribute.
func Src(url string) Attr { return attr("src", url) }

// Alt sets the alt attribute.
func Alt(text string) Attr { return attr("alt", text) }

// Disabled sets or clears the disabled attribute.
func Disabled(on ...bool) Attr { return attr("disabled", flag(on)) }

// Checked sets or clears the checked attribute.
func Checked(on ...bool) Attr { return attr("checked", flag(on)) }

// Selected sets or clears the selected attribute.
func Selected(on ...bool) Attr { return attr("selected", flag(on)) }

// Readonly sets the readonly attribute.
func Readonly() Attr { return attr("readonly", true) }

// Required sets the required attribute.
func Required() Attr { return attr("required", true) }

// Autofocus sets the autofocus attribute.
func Autofocus() Attr { return attr("autofocus", true) }

// MaxLength sets the maxlength attribute.
func MaxLength(n int) Attr { return attr("maxlength", n) }

// Prop sets an arbitrary attribute.
func Prop(key string, value any) Attr { return attr(key, value) }

func flag(on []bool) bool {
	return len(on) == 0 || on[0]
}
