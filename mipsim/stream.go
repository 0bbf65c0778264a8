// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mipsim

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/textproto"
	"strconv"
	"sync"
)

// ImageFormat is the encoding of the frames sent by a Stream.
type ImageFormat int

const (
	// PNG is lossless and the default format.
	PNG ImageFormat = iota
	// JPEG frames are smaller, at the cost of artifacts around edges.
	JPEG
)

func (f ImageFormat) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return strconv.Itoa(int(f))
	}
}

func (f ImageFormat) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// ParseImageFormat returns the ImageFormat for "png", "jpg" or "jpeg".
func ParseImageFormat(s string) (ImageFormat, error) {
	switch s {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("mipsim: unrecognized image format %q", s)
}

// Stream serves the visible image of a Panel over HTTP.
//
// Each GET request receives a multipart/x-mixed-replace response ("MJPEG", as
// sent by IP cameras) with a first frame right away and a new one after every
// transaction that reaches the glass. Browsers show it as a live image. The
// "format" URL parameter selects PNG (default) or JPEG frames.
type Stream struct {
	p   *Panel
	log *slog.Logger

	once sync.Once
	done chan struct{}
}

// NewStream returns a Stream showing p. logger may be nil.
func NewStream(p *Panel, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stream{p: p, log: logger, done: make(chan struct{})}
}

func (s *Stream) String() string {
	return "mipsim.Stream"
}

// Halt implements conn.Resource.
//
// It terminates the running requests.
func (s *Stream) Halt() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	format := PNG
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := ParseImageFormat(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	changed, stop := s.p.watch()
	defer stop()

	pw := newPartWriter(w)
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": pw.boundary,
	}))
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Type", format.mimeType())
	hdr.Set("Content-Transfer-Encoding", "binary")

	var buf bytes.Buffer
	for {
		buf.Reset()
		if err := encode(&buf, s.p, format); err != nil {
			s.log.Error("encoding frame failed", "format", format, "err", err)
			return
		}
		// A write error means the client went away; there is no way to report
		// it inside the stream.
		if err := pw.writeFrame(hdr, buf.Bytes()); err != nil {
			s.log.Debug("client gone", "remote", r.RemoteAddr, "err", err)
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-changed:
		case <-s.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func encode(w io.Writer, p *Panel, format ImageFormat) error {
	img := p.Image()
	switch format {
	case PNG:
		return (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	default:
		return fmt.Errorf("mipsim: unhandled image format %s", format)
	}
}

// partWriter writes a never ending MIME multipart entity, one flushed part
// at a time. mime/multipart.Writer only writes the closing boundary line of
// a part when the next one starts.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
}

func newPartWriter(w io.Writer) *partWriter {
	var b [30]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(err)
	}
	return &partWriter{w: w, boundary: fmt.Sprintf("%x", b[:])}
}

// writeFrame writes one part. It sets the Content-Length header of hdr.
func (pw *partWriter) writeFrame(hdr textproto.MIMEHeader, body []byte) error {
	hdr.Set("Content-Length", strconv.Itoa(len(body)))
	var buf bytes.Buffer
	if !pw.started {
		fmt.Fprintf(&buf, "--%s\r\n", pw.boundary)
		pw.started = true
	}
	for name, values := range hdr {
		for _, v := range values {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, v)
		}
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", pw.boundary)
	_, err := buf.WriteTo(pw.w)
	return err
}

var _ http.Handler = &Stream{}
