/*
 * MIT License
 *
 * Copyright (c) 2026 zmqruntime authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package streaming implements the StreamingServer of spec.md §4.7: a
// receive-mode data socket paired with a push connection to the shared ack
// port, dispatching decoded image payloads to a subclass display hook.
package streaming

import (
	"net"
	"time"

	"github.com/trissim/zmqruntime/acklistener"
	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/logging"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/server"
	"github.com/trissim/zmqruntime/transport"
)

func init() {
	server.RegisterType("streaming", "receive-mode image streaming server")
}

// ImageMeta is the JSON frame that precedes each image's raw-byte frame on
// the wire: spec.md §4.2 calls for "UTF-8 JSON ... raw bytes for image
// payloads", so one incoming image is two consecutive frames.
type ImageMeta struct {
	ImageID  string                 `json:"image_id"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// DisplayHandler is the subclass hook spec.md §4.7 calls display_image; the
// concrete rendering/storage of image bytes is external to this runtime
// (spec.md §1).
type DisplayHandler func(imageID string, data []byte, metadata map[string]interface{}) error

// Server is the StreamingServer of spec.md §4.7.
type Server struct {
	base *server.Base
	cfg  config.Config
	log  logging.Logger

	viewerPort int
	viewerType string
	ackHost    string
	ackURL     string

	display DisplayHandler
}

// NewServer constructs a streaming server that receives on dataPort
// (pull role) and pushes acks to the shared ack broker at ackHost. viewerPort
// and viewerType identify this server to the ack listener's registry
// (spec.md §4.3/§4.7).
func NewServer(host string, dataPort int, mode transport.Mode, cfg config.Config, log logging.Logger, ackHost string, viewerPort int, viewerType string, display DisplayHandler) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		cfg:        cfg,
		log:        log,
		viewerPort: viewerPort,
		viewerType: viewerType,
		ackHost:    ackHost,
		display:    display,
	}
	s.base = server.NewBase("StreamingServer", host, dataPort, mode, server.Pull, cfg, log)
	s.base.SetConnHandler(s.serveConn)
	return s
}

// Base exposes the underlying lifecycle for probes/tests.
func (s *Server) Base() *server.Base { return s.base }

// Start binds the data/control sockets, starts (or reuses) the process-wide
// ack listener on the shared ack port, and records its client URL. No ack
// connection is held open: each ack is published over a fresh connection to
// that URL.
func (s *Server) Start() error {
	if err := s.base.Start(); err != nil {
		return err
	}

	listener := acklistener.Default()
	if err := listener.Start(s.ackHost, s.cfg.SharedAckPort, s.cfg); err != nil {
		s.log.Errorf("streaming: shared ack broker unavailable: %v", err)
	}
	s.ackURL = listener.ClientURL()

	return nil
}

// Stop tears down the data/control sockets.
func (s *Server) Stop() {
	s.base.Stop()
}

// serveConn owns one pusher connection end to end: alternating
// metadata-frame / data-frame pairs, each dispatched to display then
// acknowledged.
func (s *Server) serveConn(conn net.Conn) {
	for {
		metaRaw, err := transport.ReadFrame(conn)
		if err != nil {
			return
		}
		var meta ImageMeta
		if err := messages.DecodeJSON(metaRaw, &meta); err != nil {
			s.log.Warnf("streaming: malformed image metadata: %v", err)
			return
		}

		dataRaw, err := transport.ReadFrame(conn)
		if err != nil {
			return
		}

		s.handleImage(meta, dataRaw)
	}
}

func (s *Server) handleImage(meta ImageMeta, data []byte) {
	status := "success"
	if err := s.displayImage(meta.ImageID, data, meta.Metadata); err != nil {
		s.log.Warnf("streaming: display_image(%s): %v", meta.ImageID, err)
		status = "error"
	}
	s.sendAck(meta.ImageID, status)
}

func (s *Server) displayImage(imageID string, data []byte, metadata map[string]interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{r}
		}
	}()
	if s.display == nil {
		return nil
	}
	return s.display(imageID, data, metadata)
}

type panicError struct{ v interface{} }

func (p *panicError) Error() string { return "display_image panic" }

// sendAck composes and pushes an ImageAck; failures are logged and
// swallowed so a slow/unreachable ack broker never blocks display
// (spec.md §4.7).
func (s *Server) sendAck(imageID, status string) {
	if s.ackURL == "" {
		return
	}
	ack := messages.ImageAck{
		ImageID:    imageID,
		ViewerPort: s.viewerPort,
		ViewerType: s.viewerType,
		Status:     status,
		Timestamp:  float64(time.Now().UnixNano()) / 1e9,
	}
	if err := acklistener.PublishAck(s.ackURL, ack); err != nil {
		s.log.Warnf("streaming: send ack for %s: %v", imageID, err)
	}
}
