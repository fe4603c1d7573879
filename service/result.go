package service

import (
	"bytes"
	"encoding/json"
	"io"
)

// Reason is why an upload was rejected
type Reason string

const (
	ReasonTooLarge          Reason = "too-large"
	ReasonUnsupportedFormat Reason = "unsupported-format"
	ReasonDecodeFailure     Reason = "decode-failure"
)

// Result is the outcome of ingesting one file: either accepted with the
// content hash, or rejected with a reason and a human-readable detail.
type Result struct {
	Accepted bool
	Hash     string
	Reason   Reason
	Details  string
}

// Accepted returns a successful result for hash
func Accepted(hash string) Result {
	return Result{Accepted: true, Hash: hash}
}

// Rejected returns a failed result
func Rejected(reason Reason, details string) Result {
	return Result{Reason: reason, Details: details}
}

type resultJSON struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// MarshalJSON renders {"success":true,"hash":...} or
// {"success":false,"reason":...,"details":...}
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Accepted {
		return json.Marshal(resultJSON{Success: true, Hash: r.Hash})
	}
	return json.Marshal(resultJSON{Reason: r.Reason, Details: r.Details})
}

// NamedFile is one file of an upload batch. Open is called once, when the
// file's turn comes.
type NamedFile struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// BatchEntry pairs a filename with its result
type BatchEntry struct {
	Filename string
	Result   Result
}

// BatchResult maps filenames to results, preserving input order. A repeated
// filename keeps its first position and takes the later result.
type BatchResult struct {
	entries []BatchEntry
	index   map[string]int
}

// NewBatchResult creates an empty batch result
func NewBatchResult() *BatchResult {
	return &BatchResult{index: make(map[string]int)}
}

// Set records the result for filename
func (b *BatchResult) Set(filename string, result Result) {
	if i, ok := b.index[filename]; ok {
		b.entries[i].Result = result
		return
	}
	b.index[filename] = len(b.entries)
	b.entries = append(b.entries, BatchEntry{Filename: filename, Result: result})
}

// Get returns the result recorded for filename
func (b *BatchResult) Get(filename string) (Result, bool) {
	i, ok := b.index[filename]
	if !ok {
		return Result{}, false
	}
	return b.entries[i].Result, true
}

// Entries returns the results in input order
func (b *BatchResult) Entries() []BatchEntry {
	return append([]BatchEntry(nil), b.entries...)
}

// Len returns the number of distinct filenames
func (b *BatchResult) Len() int {
	return len(b.entries)
}

// MarshalJSON renders a JSON object whose keys follow input order
func (b *BatchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range b.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Filename)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Result)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
