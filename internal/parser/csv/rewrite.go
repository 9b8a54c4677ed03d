package csv

import (
	"bufio"
	"bytes"
	"io"
)

// Replacement is a literal byte sequence rewritten before CSV decoding, used
// to repair known-bad quoting in exported data.
type Replacement struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// streamingRewriter replaces every occurrence of pat with repl without
// buffering the whole stream. The last len(pat)-1 bytes of each chunk are
// held back as carry so matches spanning a chunk boundary are still found.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	buf   bytes.Buffer
	chunk []byte
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	k := max(len(pat)-1, 0)
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, k),
		chunk: make([]byte, 64*1024),
	}
}

// rewriteAll chains one rewriter per replacement.
func rewriteAll(r io.Reader, reps []Replacement) io.Reader {
	for _, rep := range reps {
		if rep.From == "" || rep.From == rep.To {
			continue
		}
		r = newStreamingRewriter(r, []byte(rep.From), []byte(rep.To))
	}
	return r
}

func (sr *streamingRewriter) Read(p []byte) (int, error) {
	for sr.buf.Len() == 0 {
		if sr.eof {
			return 0, io.EOF
		}
		if err := sr.fill(); err != nil {
			return 0, err
		}
	}
	return sr.buf.Read(p)
}

// fill reads one chunk, rewrites carry+chunk and moves everything except the
// new carry into buf.
func (sr *streamingRewriter) fill() error {
	n, rerr := sr.br.Read(sr.chunk)
	if n > 0 {
		block := append(append([]byte{}, sr.carry...), sr.chunk[:n]...)
		block = bytes.ReplaceAll(block, sr.pat, sr.repl)

		k := len(sr.pat) - 1
		if k > 0 && len(block) > k {
			sr.buf.Write(block[:len(block)-k])
			sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
		} else if k > 0 {
			sr.carry = append(sr.carry[:0], block...)
		} else {
			sr.buf.Write(block)
			sr.carry = sr.carry[:0]
		}
	}
	switch {
	case rerr == io.EOF:
		sr.buf.Write(sr.carry)
		sr.carry = sr.carry[:0]
		sr.eof = true
	case rerr != nil:
		return rerr
	}
	return nil
}
