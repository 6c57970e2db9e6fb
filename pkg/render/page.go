package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/rask/pkg/dom"
)

// PageData describes a complete HTML document.
type PageData struct {
	// Body is the container whose children become the document body.
	Body *dom.Node

	// Title is the page title.
	Title string

	// Lang is the html lang attribute. Defaults to "en".
	Lang string

	// Styles are inline CSS blocks added to the head.
	Styles []string

	// Scripts are inline scripts added at the end of the body.
	Scripts []string
}

// RenderPage renders a complete HTML document to w.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	if err := r.renderHead(w, page); err != nil {
		return err
	}
	if err := r.renderBody(w, page); err != nil {
		return err
	}
	return r.renderTail(w, page)
}

func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n<meta charset=\"utf-8\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "<title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, css := range page.Styles {
		if _, err := fmt.Fprintf(w, "<style>%s</style>\n", css); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</head>\n")
	return err
}

func (r *Renderer) renderBody(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}
	return r.RenderChildren(w, page.Body)
}

func (r *Renderer) renderTail(w io.Writer, page PageData) error {
	for _, js := range page.Scripts {
		if _, err := fmt.Fprintf(w, "<script>%s</script>\n", js); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
