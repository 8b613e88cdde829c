// Package stream turns a finished answer into the framed line protocol the
// browser chat widget consumes: one `0:<json>\n` line per word.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

// DefaultDelay is the pause between two frames.
const DefaultDelay = 50 * time.Millisecond

// ContentType is sent with streamed answers.
const ContentType = "text/plain; charset=utf-8"

// Tokens splits text on single spaces. Every token but the last keeps its
// trailing space, so concatenating the tokens gives text back exactly.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	words := strings.Split(text, " ")
	out := make([]string, len(words))
	for i, w := range words {
		if i < len(words)-1 {
			w += " "
		}
		out[i] = w
	}
	return out
}

// Frames emits one text-delta frame per token, the first immediately and the
// rest delay apart. The channel is closed after the last frame or when ctx is
// done.
func Frames(ctx context.Context, text string, delay time.Duration) <-chan domain.StreamFrame {
	tokens := Tokens(text)
	ch := make(chan domain.StreamFrame)

	go func() {
		defer close(ch)

		for i, tok := range tokens {
			if i > 0 && delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			select {
			case <-ctx.Done():
				return
			case ch <- domain.StreamFrame{Type: domain.FrameTypeTextDelta, TextDelta: tok}:
			}
		}
	}()

	return ch
}

// Writer encodes frames onto an io.Writer, flushing after each one when the
// underlying writer supports it.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	f, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: f}
}

// WriteFrame writes one `0:<json>\n` line.
func (sw *Writer) WriteFrame(frame domain.StreamFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "0:%s\n", data); err != nil {
		return err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// Stream writes every frame of text to w until done or ctx is cancelled.
// A write error stops the frame producer before returning.
func Stream(ctx context.Context, w io.Writer, text string, delay time.Duration) error {
	frameCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sw := NewWriter(w)
	for frame := range Frames(frameCtx, text, delay) {
		if err := sw.WriteFrame(frame); err != nil {
			return err
		}
	}
	return ctx.Err()
}
