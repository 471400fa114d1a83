package linphone

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strings"

	"braces.dev/errtrace"
)

// DefaultPrompt is the prompt linphonec prints when it is ready for the next command.
const DefaultPrompt = "linphonec> "

// Record is one command echoed by the client together with the output it produced.
type Record struct {
	Request  string `json:"request"`
	Response string `json:"response"`
}

// LogValue implements [slog.LogValuer].
func (r Record) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("request", r.Request),
		slog.String("response", r.Response),
	)
}

// Scanner reconstructs [Record] values from a prompt-delimited terminal transcript.
//
// A record is the text between two prompts: the first line after the opening prompt
// is the request, the remaining text up to the closing prompt is the response.
// Both are trimmed of surrounding white space. The closing prompt of one record
// opens the next one. Text that does not form a complete segment yet stays buffered
// until more output arrives.
//
// Scanner is not safe for concurrent use.
type Scanner struct {
	prompt []byte
	buf    []byte
	// start is the offset of the prompt opening the current segment, -1 if not found yet.
	start int
	// nl is the offset of the newline ending the request line, -1 if not found yet.
	nl int
	// scan is the offset where the next search resumes.
	scan int
}

// NewScanner creates a scanner for the given prompt.
// An empty prompt means [DefaultPrompt].
func NewScanner(prompt string) *Scanner {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Scanner{
		prompt: []byte(prompt),
		start:  -1,
		nl:     -1,
	}
}

// Write appends a chunk of output. It never fails.
func (s *Scanner) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Buffered returns the number of bytes held back waiting for more output.
func (s *Scanner) Buffered() int { return len(s.buf) }

// Next returns the next complete record, if there is one.
func (s *Scanner) Next() (Record, bool) {
	plen := len(s.prompt)

	if s.start < 0 {
		i := bytes.Index(s.buf[s.scan:], s.prompt)
		if i < 0 {
			// nothing before a prompt can belong to a record,
			// keep only a tail that may be the beginning of one
			s.discard(max(len(s.buf)-plen+1, 0))
			s.scan = 0
			return Record{}, false
		}
		s.start = s.scan + i
		s.discard(s.start)
		s.scan = s.start + plen
	}

	if s.nl < 0 {
		i := bytes.IndexByte(s.buf[s.scan:], '\n')
		if i < 0 {
			s.scan = len(s.buf)
			return Record{}, false
		}
		s.nl = s.scan + i
		s.scan = s.nl + 1
	}

	i := bytes.Index(s.buf[s.scan:], s.prompt)
	if i < 0 {
		s.scan = max(s.nl+1, len(s.buf)-plen+1)
		return Record{}, false
	}
	end := s.scan + i

	rec := Record{
		Request:  strings.TrimSpace(string(s.buf[s.start+plen : s.nl])),
		Response: strings.TrimSpace(string(s.buf[s.nl+1 : end])),
	}

	// the closing prompt becomes the opening prompt of the next segment
	s.discard(end)
	s.start = 0
	s.nl = -1
	s.scan = plen
	return rec, true
}

// Feed appends a chunk and lazily yields every record completed so far,
// in the order the client produced them.
// Records not consumed by the caller stay available to the next Feed or Next call.
func (s *Scanner) Feed(p []byte) iter.Seq[Record] {
	s.Write(p) //nolint:errcheck
	return func(yield func(Record) bool) {
		for {
			rec, ok := s.Next()
			if !ok || !yield(rec) {
				return
			}
		}
	}
}

// discard drops the first n bytes of the buffer and shifts the cursors.
func (s *Scanner) discard(n int) {
	if n <= 0 {
		return
	}
	s.buf = append(s.buf[:0], s.buf[n:]...)
	if s.start >= 0 {
		s.start -= n
	}
	if s.nl >= 0 {
		s.nl -= n
	}
	s.scan = max(s.scan-n, 0)
}

const readChunkSize = 4096

// Records lazily reads r chunk by chunk and yields the records found in it.
// A read error other than [io.EOF] is yielded as the final element.
func Records(r io.Reader, prompt string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		s := NewScanner(prompt)
		chunk := make([]byte, readChunkSize)
		for {
			n, err := r.Read(chunk)
			if n > 0 {
				for rec := range s.Feed(chunk[:n]) {
					if !yield(rec, nil) {
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(Record{}, errtrace.Wrap(err))
				}
				return
			}
		}
	}
}
