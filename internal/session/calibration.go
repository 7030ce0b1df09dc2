package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andresmejia3/backbeat/internal/posture"
	"github.com/andresmejia3/backbeat/internal/store"
)

// CalibrationKey is the key-value slot of the calibration reference.
const CalibrationKey = "calibrationReference"

// LoadCalibration returns the stored reference, or nil when none was saved.
func LoadCalibration(ctx context.Context, kv KV) (*posture.CalibrationReference, error) {
	data, err := kv.Get(ctx, CalibrationKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ref posture.CalibrationReference
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("decode calibration reference: %w", err)
	}
	return &ref, nil
}

// SaveCalibration overwrites the stored reference.
func SaveCalibration(ctx context.Context, kv KV, ref posture.CalibrationReference) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	return kv.Set(ctx, CalibrationKey, data)
}
