package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrStreamClosed = errors.New("stream closed")
	ErrInvalidJSON  = errors.New("invalid JSON in SSE data")
)

// sseDecoder reads text/event-stream frames from a response body.
type sseDecoder struct {
	reader *bufio.Reader
	atEOF  bool // underlying reader exhausted
	closed bool // io.EOF already returned
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{reader: bufio.NewReader(r)}
}

// Next returns the next complete event. It returns io.EOF once the stream
// ends with no pending event.
func (d *sseDecoder) Next() (ThreadEvent, error) {
	if d.closed {
		return ThreadEvent{}, ErrStreamClosed
	}
	if d.atEOF {
		d.closed = true
		return ThreadEvent{}, io.EOF
	}

	var ev ThreadEvent
	var dataLines []string
	pending := false

	for {
		line, err := d.reader.ReadString('\n')
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if err != nil && !errors.Is(err, io.EOF) {
			return ThreadEvent{}, err
		}
		eof := errors.Is(err, io.EOF)

		if line == "" {
			if pending {
				return finishEvent(ev, dataLines)
			}
			if eof {
				d.closed = true
				return ThreadEvent{}, io.EOF
			}
			continue
		}

		// A line without a colon is a field with an empty value. Unknown
		// fields are ignored.
		if !strings.HasPrefix(line, ":") {
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				ev.Type = value
				pending = true
			case "data":
				dataLines = append(dataLines, value)
				pending = true
			case "id":
				if !strings.Contains(value, "\x00") {
					ev.ID = value
				}
				pending = true
			}
		}

		if eof {
			if pending {
				d.atEOF = true
				return finishEvent(ev, dataLines)
			}
			d.closed = true
			return ThreadEvent{}, io.EOF
		}
	}
}

func finishEvent(ev ThreadEvent, dataLines []string) (ThreadEvent, error) {
	if ev.Type == "" {
		ev.Type = "message"
	}
	if len(dataLines) > 0 {
		data := strings.Join(dataLines, "\n")
		if !json.Valid([]byte(data)) {
			return ThreadEvent{}, fmt.Errorf("%w: event %q", ErrInvalidJSON, ev.Type)
		}
		ev.Data = json.RawMessage(data)
	}
	return ev, nil
}
