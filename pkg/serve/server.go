// Package serve exposes the matcher over a line-delimited JSON protocol on
// arbitrary streams, so programs in other languages can drive it over stdio.
//
// Every request line gets exactly one response line, except close, which ends
// the stream unanswered. A failed request is answered with success=false and
// the server keeps running. A line that is not valid JSON is answered with a
// decode error and ends the stream, since the decoder cannot resynchronize.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/praetorian-inc/guardian/pkg/logger"
	"github.com/praetorian-inc/guardian/pkg/scanner"
	"github.com/praetorian-inc/guardian/pkg/store"
	"github.com/praetorian-inc/guardian/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server manages the streaming matcher
type Server struct {
	scanner *scanner.Scanner
	encoder *json.Encoder
	decoder *json.Decoder
	logger  *logger.Logger
	store   store.Store
	scanID  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request failures.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		s.logger = l.WithComponent("serve")
	}
}

// WithStore records the reports of match_file and match_batch requests in st
// under scanID.
func WithStore(st store.Store, scanID string) Option {
	return func(s *Server) {
		s.store = st
		s.scanID = scanID
	}
}

// NewServer creates a new streaming server
func NewServer(sc *scanner.Scanner, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		scanner: sc,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	// Releases the reader goroutine once Run returns
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until input closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					// No more pending requests
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case TypeMatchWord:
		s.handleMatchWord(req.Payload)
	case TypeMatchWords:
		s.handleMatchWords(req.Payload)
	case TypeMatchFile:
		s.handleMatchFile(req.Payload)
	case TypeMatchBatch:
		s.handleMatchBatch(req.Payload)
	case TypeCategories:
		s.sendData(TypeCategories, s.scanner.Categories())
	case TypeClose:
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.sendData("ready", ReadyData{
		Version:    Version,
		Categories: s.scanner.Categories(),
		ScanID:     s.scanID,
	})
}

func (s *Server) handleMatchWord(payload json.RawMessage) {
	var p MatchWordPayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError(TypeMatchWord, err.Error())
		return
	}
	s.sendData(TypeMatchWord, s.scanner.MatchOne(p.Word))
}

func (s *Server) handleMatchWords(payload json.RawMessage) {
	var p MatchWordsPayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError(TypeMatchWords, err.Error())
		return
	}
	s.sendData(TypeMatchWords, s.scanner.MatchWords(p.Words))
}

func (s *Server) handleMatchFile(payload json.RawMessage) {
	var p MatchFilePayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError(TypeMatchFile, err.Error())
		return
	}
	if p.Path == "" {
		s.sendError(TypeMatchFile, "path is required")
		return
	}

	report, err := s.scanner.ScanFile(p.Path)
	if err != nil {
		s.sendError(TypeMatchFile, err.Error())
		return
	}
	s.record(report)
	s.sendData(TypeMatchFile, report)
}

func (s *Server) handleMatchBatch(payload json.RawMessage) {
	var p MatchBatchPayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError(TypeMatchBatch, err.Error())
		return
	}

	report := s.scanner.ScanBatch(p.Items)
	s.record(report)
	s.sendData(TypeMatchBatch, report)
}

// record stores report when a store is configured. Store failures are logged
// and do not fail the request.
func (s *Server) record(report types.Report) {
	if s.store == nil {
		return
	}
	if err := s.store.AddReport(s.scanID, report); err != nil {
		s.logger.Warn("failed to store report", zap.String("scan_id", s.scanID), zap.Error(err))
	}
}

func (s *Server) sendData(respType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    respType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.logger.Debug("request failed", zap.String("type", reqType), zap.String("error", msg))
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	return json.Unmarshal(payload, v)
}
