package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/petems/airpods-monitor/internal/probe"
)

const (
	DataType = "SPAudioDataType"

	itemsKey         = "_items"
	nameKey          = "_name"
	defaultOutputKey = "coreaudio_default_audio_output_device"
	sampleRateKey    = "coreaudio_device_srate"
	yesValue         = "spaudio_yes"
)

var (
	ErrMalformedJSON  = errors.New("malformed audio inventory json")
	ErrSchemaMismatch = errors.New("unexpected audio inventory layout")
)

type commandSource struct {
	runner probe.Runner
	cmd    probe.Command
}

// NewCommandSource reads devices from a command printing the audio section
// of the system inventory as JSON.
func NewCommandSource(runner probe.Runner, cmd probe.Command) Source {
	return &commandSource{runner: runner, cmd: cmd}
}

func (s *commandSource) ListDevices(ctx context.Context) ([]AudioDevice, error) {
	out, err := s.runner.Run(ctx, s.cmd)
	if err != nil {
		return nil, fmt.Errorf("audio inventory: %w", err)
	}
	return ParseDevices(out)
}

// ParseDevices decodes the audio inventory report. Items with a missing or
// non-string name are skipped; flags and rates with the wrong type read as
// unset.
func ParseDevices(data []byte) ([]AudioDevice, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	section, ok := doc[DataType]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, DataType)
	}

	var groups []map[string]json.RawMessage
	if err := json.Unmarshal(section, &groups); err != nil {
		return nil, fmt.Errorf("%w: %s is not a list of objects", ErrSchemaMismatch, DataType)
	}

	var devices []AudioDevice
	for _, group := range groups {
		raw, ok := group[itemsKey]
		if !ok {
			continue
		}
		var items []map[string]any
		if err := unmarshalNumbers(raw, &items); err != nil {
			continue
		}
		for _, item := range items {
			name, ok := item[nameKey].(string)
			if !ok {
				continue
			}
			isDefault, _ := item[defaultOutputKey].(string)
			devices = append(devices, AudioDevice{
				Name:       name,
				Default:    isDefault == yesValue,
				SampleRate: intValue(item[sampleRateKey]),
			})
		}
	}
	return devices, nil
}

func unmarshalNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// intValue accepts integral JSON numbers only
func intValue(v any) int {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil && f == float64(int64(f)) {
		return int(f)
	}
	return 0
}
