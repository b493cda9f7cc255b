// Package wire implements the text/event-stream framing used between the
// hub and its connected clients: one record per event, terminated by a
// blank line.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a single decoded frame: an event type, an optional id and
// retry hint, and the raw JSON payload.
type Record struct {
	Event string
	ID    string
	Retry int
	Data  json.RawMessage
}

// Encode serializes data as JSON, splits it on LF, and writes it back out
// as the data: lines of an SSE record. The blank line that terminates the
// record is always written last.
func Encode(event, id string, retry int, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal payload: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", event)
	if id != "" {
		fmt.Fprintf(&buf, "id: %s\n", id)
	}
	if retry > 0 {
		fmt.Fprintf(&buf, "retry: %d\n", retry)
	}
	for _, line := range bytes.Split(payload, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses a single blank-line-terminated record (without the
// trailing blank line) into a Record. Unrecognized lines are ignored.
func Decode(record []byte) Record {
	var rec Record
	var dataLines [][]byte

	for _, line := range bytes.Split(record, []byte("\n")) {
		switch {
		case bytes.HasPrefix(line, []byte("event: ")):
			rec.Event = string(bytes.TrimPrefix(line, []byte("event: ")))
		case bytes.HasPrefix(line, []byte("id: ")):
			rec.ID = string(bytes.TrimPrefix(line, []byte("id: ")))
		case bytes.HasPrefix(line, []byte("retry: ")):
			fmt.Sscanf(string(bytes.TrimPrefix(line, []byte("retry: "))), "%d", &rec.Retry)
		case bytes.HasPrefix(line, []byte("data: ")):
			dataLines = append(dataLines, bytes.TrimPrefix(line, []byte("data: ")))
		}
	}

	if len(dataLines) > 0 {
		rec.Data = bytes.Join(dataLines, []byte("\n"))
	}
	return rec
}

// Decoder accumulates streamed bytes and yields one Record per complete
// \n\n-terminated frame.
type Decoder struct {
	buf bytes.Buffer
}

// Feed appends newly read bytes and returns every complete record found so
// far, leaving any trailing partial record buffered for the next call.
func (d *Decoder) Feed(chunk []byte) []Record {
	d.buf.Write(chunk)

	var records []Record
	for {
		data := d.buf.Bytes()
		idx := bytes.Index(data, []byte("\n\n"))
		if idx < 0 {
			break
		}
		records = append(records, Decode(data[:idx]))
		d.buf.Next(idx + 2)
	}
	return records
}
