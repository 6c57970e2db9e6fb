package render

// voidElements are elements that have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

func isVoidElement(tag string) bool {
	return voidElements[tag]
}

// inlineElements do not get newlines in pretty output.
var inlineElements = map[string]bool{
	"a":      true,
	"b":      true,
	"button": true,
	"code":   true,
	"em":     true,
	"i":      true,
	"label":  true,
	"small":  true,
	"span":   true,
	"strong": true,
}

func isInlineElement(tag string) bool {
	return inlineElements[tag]
}

// booleanAttrs render as a bare name when their value is empty.
var booleanAttrs = map[string]bool{
	"allowfullscreen": true,
	"async":           true,
	"autofocus":       true,
	"checked":         true,
	"defer":           true,
	"disabled":        true,
	"hidden":          true,
	"multiple":        true,
	"novalidate":      true,
	"open":            true,
	"readonly":        true,
	"required":        true,
	"selected":        true,
}

func isBooleanAttr(name string) bool {
	return booleanAttrs[name]
}
