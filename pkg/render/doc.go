// Package render serializes a live dom tree to HTML.
//
// It is used for snapshots, the inspector page and the CLI's render
// command. Output is deterministic: attributes keep their live order, text
// and attribute values are escaped, void elements have no closing tag and
// boolean attributes with an empty value render bare.
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(root.Container())
//
// RenderPage wraps the children of a container in a complete document;
// StreamingRenderer does the same for an http.ResponseWriter, flushing
// after the head and after the body.
package render
