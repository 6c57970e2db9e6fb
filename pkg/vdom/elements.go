package vdom

// voidElements are elements that cannot have children.
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

// IsVoidElement reports whether tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Sectioning

func Header(args ...any) *Element  { return createElement("header", args) }
func Footer(args ...any) *Element  { return createElement("footer", args) }
func Main(args ...any) *Element    { return createElement("main", args) }
func Nav(args ...any) *Element     { return createElement("nav", args) }
func Section(args ...any) *Element { return createElement("section", args) }
func Article(args ...any) *Element { return createElement("article", args) }
func Aside(args ...any) *Element   { return createElement("aside", args) }
func H1(args ...any) *Element      { return createElement("h1", args) }
func H2(args ...any) *Element      { return createElement("h2", args) }
func H3(args ...any) *Element      { return createElement("h3", args) }

// Content

func Div(args ...any) *Element  { return createElement("div", args) }
func P(args ...any) *Element    { return createElement("p", args) }
func Span(args ...any) *Element { return createElement("span", args) }
func Pre(args ...any) *Element  { return createElement("pre", args) }
func Ul(args ...any) *Element   { return createElement("ul", args) }
func Ol(args ...any) *Element   { return createElement("ol", args) }
func Li(args ...any) *Element   { return createElement("li", args) }
func Hr(args ...any) *Element   { return createElement("hr", args) }
func Br(args ...any) *Element   { return createElement("br", args) }

// Inline

func A(args ...any) *Element      { return createElement("a", args) }
func Strong(args ...any) *Element { return createElement("strong", args) }
func Em(args ...any) *Element     { return createElement("em", args) }
func Code(args ...any) *Element   { return createElement("code", args) }
func Small(args ...any) *Element  { return createElement("small", args) }
func Img(args ...any) *Element    { return createElement("img", args) }

// Forms

func Form(args ...any) *Element     { return createElement("form", args) }
func Input(args ...any) *Element    { return createElement("input", args) }
func Textarea(args ...any) *Element { return createElement("textarea", args) }
func Select(args ...any) *Element   { return createElement("select", args) }
func Option(args ...any) *Element   { return createElement("option", args) }
func Button(args ...any) *Element   { return createElement("button", args) }
func Label(args ...any) *Element    { return createElement("label", args) }

// Tables

func Table(args ...any) *Element { return createElement("table", args) }
func Thead(args ...any) *Element { return createElement("thead", args) }
func Tbody(args ...any) *Element { return createElement("tbody", args) }
func Tr(args ...any) *Element    { return createElement("tr", args) }
func Th(args ...any) *Element    { return createElement("th", args) }
func Td(args ...any) *Element    { return createElement("td", args) }
