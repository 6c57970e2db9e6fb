package render

import (
	"io"
	"net/http"
)

// StreamingRenderer renders pages to an http.ResponseWriter, flushing
// after the head and after the body.
type StreamingRenderer struct {
	*Renderer
	flusher http.Flusher
	w       io.Writer
}

// NewStreamingRenderer creates a streaming renderer. Flushing is skipped
// when w does not implement http.Flusher.
func NewStreamingRenderer(w http.ResponseWriter, config RendererConfig) *StreamingRenderer {
	flusher, _ := w.(http.Flusher)
	return &StreamingRenderer{
		Renderer: NewRenderer(config),
		flusher:  flusher,
		w:        w,
	}
}

// RenderPage renders a complete document with incremental flushing.
func (s *StreamingRenderer) RenderPage(page PageData) error {
	if err := s.renderHead(s.w, page); err != nil {
		return err
	}
	s.flush()
	if err := s.renderBody(s.w, page); err != nil {
		return err
	}
	s.flush()
	if err := s.renderTail(s.w, page); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *StreamingRenderer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
