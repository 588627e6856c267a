// Package trace decodes event trace documents written by the instrumentation agent.
//
// A trace document is a JSON object holding an ordered array of records under
// a top-level field ("trace" by default). Records come in two shapes which may
// be mixed in one document:
//
//	["start", 12, "Main.java:4", "controlFlow", "GroupEvent", ...data]
//	{"pos": "end", "eventId": 12, "nodeId": "Main.java:4", "eventType": "controlFlow", "type": "GroupEvent"}
//
// Positional arrays follow the agent's field order: position, event id, node
// id, kind, type. Anything after the type is instrumentation payload and is
// skipped.
package trace

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/ShayCichocki/tracecheck/pkg/models"
)

// DefaultField is the top-level field that holds the record array.
const DefaultField = "trace"

// Loader reads trace documents.
type Loader struct {
	// field is the top-level document field holding the records.
	field string
}

// NewLoader creates a loader reading records from the given top-level field.
// An empty field uses DefaultField.
func NewLoader(field string) *Loader {
	if field == "" {
		field = DefaultField
	}
	return &Loader{field: field}
}

// Field returns the top-level field the loader reads.
func (l *Loader) Field() string {
	return l.field
}

// Load reads and decodes the trace file at path.
func (l *Loader) Load(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	records, err := l.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// Decode reads a trace document from r.
func (l *Loader) Decode(r io.Reader) ([]models.Record, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	raw, ok := doc[l.field]
	if !ok {
		return nil, fmt.Errorf("document has no %q field", l.field)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("field %q is not an array: %w", l.field, err)
	}

	records := make([]models.Record, 0, len(items))
	for i, item := range items {
		rec, err := decodeRecord(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load reads the trace file at path using the default field.
func Load(path string) ([]models.Record, error) {
	return NewLoader("").Load(path)
}

// Decode reads a trace document from r using the default field.
func Decode(r io.Reader) ([]models.Record, error) {
	return NewLoader("").Decode(r)
}

func decodeRecord(raw json.RawMessage) (models.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return models.Record{}, fmt.Errorf("empty record")
	}

	var (
		rec models.Record
		err error
	)
	switch trimmed[0] {
	case '[':
		rec, err = decodePositional(trimmed)
	case '{':
		rec, err = decodeObject(trimmed)
	default:
		return models.Record{}, fmt.Errorf("record must be an array or object")
	}
	if err != nil {
		return models.Record{}, err
	}

	if !rec.Position.Valid() {
		return models.Record{}, fmt.Errorf("unknown position %q", rec.Position)
	}
	return rec, nil
}

// decodePositional reads [pos, eventId, nodeId, kind, type, ...].
func decodePositional(raw []byte) (models.Record, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Record{}, err
	}
	if len(fields) < 3 {
		return models.Record{}, fmt.Errorf("positional record needs at least 3 fields, got %d", len(fields))
	}

	var rec models.Record
	if err := json.Unmarshal(fields[0], &rec.Position); err != nil {
		return models.Record{}, fmt.Errorf("position: %w", err)
	}

	id, err := eventID(fields[1])
	if err != nil {
		return models.Record{}, err
	}
	rec.EventID = id

	if rec.NodeID, err = nodeID(fields[2]); err != nil {
		return models.Record{}, err
	}

	if len(fields) > 3 {
		if err := json.Unmarshal(fields[3], &rec.Kind); err != nil {
			return models.Record{}, fmt.Errorf("kind: %w", err)
		}
	}
	if len(fields) > 4 {
		if err := json.Unmarshal(fields[4], &rec.Type); err != nil {
			return models.Record{}, fmt.Errorf("type: %w", err)
		}
	}
	return rec, nil
}

type objectRecord struct {
	Pos       models.Position `json:"pos"`
	EventID   json.RawMessage `json:"eventId"`
	NodeID    json.RawMessage `json:"nodeId"`
	EventType string          `json:"eventType"`
	Kind      string          `json:"kind"`
	Type      string          `json:"type"`
}

func decodeObject(raw []byte) (models.Record, error) {
	var obj objectRecord
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Record{}, err
	}
	if obj.Pos == "" {
		return models.Record{}, fmt.Errorf("missing pos")
	}

	id, err := eventID(obj.EventID)
	if err != nil {
		return models.Record{}, err
	}
	node, err := nodeID(obj.NodeID)
	if err != nil {
		return models.Record{}, err
	}

	kind := obj.EventType
	if kind == "" {
		kind = obj.Kind
	}
	return models.Record{
		Position: obj.Pos,
		EventID:  id,
		NodeID:   node,
		Kind:     kind,
		Type:     obj.Type,
	}, nil
}

// nodeID accepts a JSON string or number. Numbers keep their literal text so
// that 7 and 7.0 are distinct ids, exactly as the agent wrote them.
func nodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing nodeId")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("nodeId: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("nodeId must be a string or number: %w", err)
	}
	return n.String(), nil
}

func eventID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("eventId: %w", err)
	}
	return id, nil
}
