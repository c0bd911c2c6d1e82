// Package inventory extracts the connected headset from the Bluetooth
// section of the system inventory report.
//
// The report looks like
//
//	{"SPBluetoothDataType": [
//	  {"device_connected": [
//	    {"AirPods Pro": {"device_minorType": "Headphones", "device_audio_codec": "AAC"}}
//	  ]}
//	]}
package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DataType     = "SPBluetoothDataType"
	UnknownCodec = "Unknown"

	connectedKey   = "device_connected"
	minorTypeKey   = "device_minorType"
	codecKey       = "device_audio_codec"
	headphonesType = "Headphones"
)

var (
	ErrMalformedJSON  = errors.New("malformed inventory json")
	ErrSchemaMismatch = errors.New("unexpected inventory layout")
	ErrNoHeadphones   = errors.New("no connected headphones")
)

// RawDevice is the first connected headset found in the report
type RawDevice struct {
	Name  string
	Codec string
}

// Parse returns the first connected headphone entry, or false when the
// report is unusable or lists none.
func Parse(data []byte) (RawDevice, bool) {
	dev, err := Decode(data)
	return dev, err == nil
}

// Decode is Parse with the reason for a miss.
func Decode(data []byte) (RawDevice, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return RawDevice{}, ErrMalformedJSON
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return RawDevice{}, classifyJSONError(err)
	}

	section, ok := doc[DataType]
	if !ok {
		return RawDevice{}, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, DataType)
	}

	var groups []map[string]json.RawMessage
	if err := json.Unmarshal(section, &groups); err != nil {
		return RawDevice{}, fmt.Errorf("%w: %s is not a list of objects", ErrSchemaMismatch, DataType)
	}

	for _, group := range groups {
		connected, ok := group[connectedKey]
		if !ok {
			continue
		}
		entries, ok := decodeEntries(connected)
		if !ok {
			continue
		}
		for _, entry := range entries {
			for _, f := range entry {
				if dev, ok := matchHeadphones(f); ok {
					return dev, nil
				}
			}
		}
	}

	return RawDevice{}, ErrNoHeadphones
}

func classifyJSONError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
}

// decodeEntries requires every entry in the list to be an object; a group
// holding anything else is skipped as a whole.
func decodeEntries(raw json.RawMessage) ([][]field, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	entries := make([][]field, 0, len(items))
	for _, item := range items {
		fields, err := orderedObject(item)
		if err != nil {
			return nil, false
		}
		entries = append(entries, fields)
	}
	return entries, true
}

func matchHeadphones(f field) (RawDevice, bool) {
	var props map[string]any
	if err := json.Unmarshal(f.value, &props); err != nil || props == nil {
		return RawDevice{}, false
	}

	minor, ok := props[minorTypeKey].(string)
	if !ok || minor != headphonesType {
		return RawDevice{}, false
	}

	codec, ok := props[codecKey].(string)
	if !ok {
		codec = UnknownCodec
	}
	return RawDevice{Name: f.key, Codec: codec}, true
}
