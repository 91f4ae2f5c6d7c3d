// Package checkpoint defines the versioned wire format of a suspended run.
//
// A record carries only inert data: the tree id, the cursor frames and the
// parameter. Behavior is re-bound from the tree and the capability registry
// when the checkpoint is resumed.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/aretw0/passivate/pkg/domain"
)

// FormatVersion is the only record version this package reads and writes.
const FormatVersion = 1

// Record is the serialized form of a domain.Checkpoint.
type Record struct {
	FormatVersion int             `json:"format_version"`
	TreeID        string          `json:"tree_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Frames        []domain.Frame  `json:"cursor_frames"`
	Parameter     json.RawMessage `json:"parameter,omitempty"`
}

// Marshal encodes cp as a version 1 record.
func Marshal(cp *domain.Checkpoint) ([]byte, error) {
	if cp == nil {
		return nil, fmt.Errorf("marshal checkpoint: nil checkpoint")
	}

	rec := Record{
		FormatVersion: FormatVersion,
		TreeID:        cp.TreeID,
		CreatedAt:     cp.CreatedAt,
		Frames:        cp.Cursor.Clone().Frames,
	}
	if cp.Parameter != nil {
		raw, err := json.Marshal(cp.Parameter)
		if err != nil {
			return nil, fmt.Errorf("marshal checkpoint parameter: %w", err)
		}
		rec.Parameter = raw
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}

// Unmarshal decodes the envelope of a record without touching the parameter.
// It fails with domain.ErrUnsupportedCheckpointVersion on any version other
// than FormatVersion.
func Unmarshal(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if rec.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedCheckpointVersion, rec.FormatVersion)
	}
	return &rec, nil
}

// Checkpoint rebuilds the domain checkpoint. newParam, usually
// Tree.NewParameter, supplies a pointer to decode the parameter into; the
// pointed-to value is carried. With a nil newParam the parameter is decoded
// as plain JSON values.
func (r *Record) Checkpoint(newParam func() any) (*domain.Checkpoint, error) {
	cp := &domain.Checkpoint{
		TreeID:    r.TreeID,
		Cursor:    domain.Cursor{Frames: r.Frames},
		CreatedAt: r.CreatedAt,
	}
	if len(r.Parameter) == 0 || string(r.Parameter) == "null" {
		return cp, nil
	}

	if newParam == nil {
		var v any
		if err := json.Unmarshal(r.Parameter, &v); err != nil {
			return nil, fmt.Errorf("decode checkpoint parameter: %w", err)
		}
		cp.Parameter = v
		return cp, nil
	}

	target := newParam()
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("decode checkpoint parameter: target must be a non-nil pointer, got %T", target)
	}
	if err := json.Unmarshal(r.Parameter, target); err != nil {
		return nil, fmt.Errorf("decode checkpoint parameter: %w", err)
	}
	cp.Parameter = rv.Elem().Interface()
	return cp, nil
}

// Decode is Unmarshal followed by Record.Checkpoint.
func Decode(data []byte, newParam func() any) (*domain.Checkpoint, error) {
	rec, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return rec.Checkpoint(newParam)
}
