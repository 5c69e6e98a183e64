package searchindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

const identifierPattern = `[A-Za-z_$][A-Za-z0-9_$.]*`

// assignmentRegex matches the left-hand side of the generator's assignment,
// e.g. "var documenterSearchIndex ="
var assignmentRegex = regexp.MustCompile(`^(?:(?:var|let|const)\s+)?(` + identifierPattern + `)\s*=$`)

var identifierRegex = regexp.MustCompile(`^` + identifierPattern + `$`)

// ValidVariable reports whether name can be written as the assignment target
// and read back by Parse
func ValidVariable(name string) bool {
	return identifierRegex.MatchString(name)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// rawRecord holds the keys of one record verbatim. encoding/json matches
// struct fields case-insensitively, so keys are looked up by exact name here.
type rawRecord map[string]json.RawMessage

// Load reads and parses a search index file
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// LoadReader reads a whole search index from r
func LoadReader(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return Parse(data)
}

// Parse decodes a search index. It accepts the generator's JavaScript form
// (`var documenterSearchIndex = {"docs": [...]}`), a bare {"docs": [...]}
// object, or a bare JSON array of records.
func Parse(data []byte) (*Table, error) {
	payload, offset, variable, err := locatePayload(data)
	if err != nil {
		return nil, err
	}

	var (
		raws []rawRecord
		docs json.RawMessage
	)
	dec := json.NewDecoder(bytes.NewReader(payload))
	if payload[0] == '[' {
		err = dec.Decode(&raws)
	} else {
		var doc map[string]json.RawMessage
		err = dec.Decode(&doc)
		docs = doc["docs"]
		if err == nil && (docs == nil || bytes.Equal(docs, []byte("null"))) {
			return nil, &ParseError{Offset: offset, Record: -1, Err: fmt.Errorf("%w: no \"docs\" array", ErrMalformedIndex)}
		}
	}
	if err != nil {
		return nil, malformed(err, offset, dec.InputOffset())
	}

	// Anything after the payload besides whitespace means the assignment was not the only statement
	if rest := bytes.TrimSpace(payload[dec.InputOffset():]); len(rest) > 0 {
		return nil, &ParseError{
			Offset: offset + dec.InputOffset(),
			Record: -1,
			Err:    fmt.Errorf("%w: unexpected trailing content", ErrMalformedIndex),
		}
	}

	if docs != nil {
		if err := json.Unmarshal(docs, &raws); err != nil {
			// offsets inside docs are relative to the array, so report the payload start
			return nil, &ParseError{Offset: offset, Record: -1, Err: fmt.Errorf("%w: \"docs\": %v", ErrMalformedIndex, err)}
		}
	}

	records := make([]SearchRecord, 0, len(raws))
	for i, raw := range raws {
		record, err := raw.toRecord()
		if err != nil {
			return nil, &ParseError{Offset: -1, Record: i, Err: err}
		}
		records = append(records, record)
	}

	return &Table{Variable: variable, Records: records}, nil
}

func (r rawRecord) toRecord() (SearchRecord, error) {
	location, err := r.required("location")
	if err != nil {
		return SearchRecord{}, err
	}
	name, err := r.required("category")
	if err != nil {
		return SearchRecord{}, err
	}
	category, err := ParseCategory(name)
	if err != nil {
		return SearchRecord{}, err
	}

	record := SearchRecord{Location: location, Category: category}
	for key, dst := range map[string]*string{"page": &record.Page, "title": &record.Title, "text": &record.Text} {
		if *dst, err = r.optional(key); err != nil {
			return SearchRecord{}, err
		}
	}
	return record, nil
}

// required returns the string under key; absent and null both count as missing
func (r rawRecord) required(key string) (string, error) {
	raw, ok := r[key]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	return r.optional(key)
}

func (r rawRecord) optional(key string) (string, error) {
	raw, ok := r[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformedIndex, key)
	}
	return s, nil
}

// locatePayload strips the JavaScript assignment (if any) and returns the JSON
// payload together with its offset in data and the assigned variable name.
func locatePayload(data []byte) ([]byte, int64, string, error) {
	start := 0
	if bytes.HasPrefix(data, utf8BOM) {
		start = len(utf8BOM)
	}

	open := bytes.IndexAny(data[start:], "{[")
	if open < 0 {
		return nil, 0, "", &ParseError{Offset: int64(start), Record: -1, Err: fmt.Errorf("%w: no JSON payload found", ErrMalformedIndex)}
	}
	open += start

	variable := ""
	if prefix := bytes.TrimSpace(data[start:open]); len(prefix) > 0 {
		m := assignmentRegex.FindSubmatch(prefix)
		if m == nil {
			return nil, int64(start), "", &ParseError{
				Offset: int64(start),
				Record: -1,
				Err:    fmt.Errorf("%w: expected a variable assignment, got %q", ErrMalformedIndex, truncate(string(prefix), 40)),
			}
		}
		variable = string(m[1])
	}

	payload := bytes.TrimRight(data[open:], " \t\r\n")
	payload = bytes.TrimSuffix(payload, []byte(";"))
	return payload, int64(open), variable, nil
}

func malformed(err error, base, consumed int64) error {
	offset := base + consumed
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = base + syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = base + typeErr.Offset
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		err = fmt.Errorf("truncated input: %w", io.ErrUnexpectedEOF)
	}
	return &ParseError{Offset: offset, Record: -1, Err: fmt.Errorf("%w: %v", ErrMalformedIndex, err)}
}

// Marshal serialises t in the generator's JavaScript form
func Marshal(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write emits `var <name> = {"docs":\n[...]\n}` with records on one line,
// byte-compatible with what the documentation generator produces.
func Write(w io.Writer, t *Table) error {
	variable := t.Variable
	if variable == "" {
		variable = DefaultVariable
	}
	if !ValidVariable(variable) {
		return fmt.Errorf("%w: %q", ErrInvalidVariable, variable)
	}

	var buf bytes.Buffer
	buf.WriteString("var ")
	buf.WriteString(variable)
	buf.WriteString(` = {"docs":` + "\n[")
	for i, record := range t.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		line, err := encodeRecord(record)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		buf.Write(line)
	}
	buf.WriteString("]\n}")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write search index: %w", err)
	}
	return nil
}

// WriteJSON emits the plain {"docs": [...]} document without the JavaScript wrapper
func WriteJSON(w io.Writer, t *Table, indent bool) error {
	records := t.Records
	if records == nil {
		records = []SearchRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(struct {
		Docs []SearchRecord `json:"docs"`
	}{Docs: records}); err != nil {
		return fmt.Errorf("failed to write search index JSON: %w", err)
	}
	return nil
}

// WriteFile writes t to path atomically (temp file in the same directory, then rename)
func WriteFile(path string, t *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Write(tmp, t); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func encodeRecord(record SearchRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
