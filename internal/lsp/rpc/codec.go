// Package rpc implements the byte-level framing of the language server
// protocol: a header section of Name: value lines terminated by a blank
// line, where Content-Length gives the exact byte length of the JSON body.
//
// Parsing is pure over a byte buffer rather than blocking on a reader, so
// several framed messages arriving in one chunk are drained in order and a
// truncated chunk is reported as needing more input instead of stalling.
package rpc

import (
	"bytes"
	"fmt"
	"strconv"
)

const headerTerminator = "\r\n\r\n"

// ErrNeedMore reports a truncated header or body: the buffer holds a strict
// prefix of a valid message and parsing should resume once more bytes
// arrive.
var ErrNeedMore = fmt.Errorf("incomplete message")

// Encode frames body with a Content-Length header. The length is the byte
// length of body, not its character length.
func Encode(body []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Content-Length: %d%s", len(body), headerTerminator)
	b.Write(body)
	return b.Bytes()
}

// TryParse extracts the first framed message from buf, returning the body
// and the unconsumed remainder. ErrNeedMore means buf is a truncated
// message; any other error means the header section is malformed.
func TryParse(buf []byte) (body, rest []byte, err error) {
	end := bytes.Index(buf, []byte(headerTerminator))
	if end < 0 {
		return nil, nil, ErrNeedMore
	}

	length := -1
	for _, line := range bytes.Split(buf[:end], []byte("\r\n")) {
		name, value, found := bytes.Cut(line, []byte(":"))
		if !found {
			return nil, nil, fmt.Errorf("malformed header line %q", line)
		}
		if !bytes.EqualFold(bytes.TrimSpace(name), []byte("Content-Length")) {
			// Content-Length is the only header read; others pass through.
			continue
		}
		length, err = strconv.Atoi(string(bytes.TrimSpace(value)))
		if err != nil {
			return nil, nil, fmt.Errorf("malformed Content-Length %q", value)
		}
	}
	if length < 0 {
		return nil, nil, fmt.Errorf("missing Content-Length header")
	}

	start := end + len(headerTerminator)
	if len(buf) < start+length {
		return nil, nil, ErrNeedMore
	}
	return buf[start : start+length], buf[start+length:], nil
}
