package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// MarshalTreeData encodes tree data as JSON.
func MarshalTreeData(t TreeData) ([]byte, error) {
	return json.Marshal(t)
}

// UnmarshalTreeData decodes tree data from JSON.
func UnmarshalTreeData(data []byte) (TreeData, error) {
	var t TreeData
	if err := json.Unmarshal(data, &t); err != nil {
		return TreeData{}, fmt.Errorf("unmarshal tree data: %w", err)
	}
	return t, nil
}

// MarshalLayout encodes a layout as indented JSON.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout decodes a layout and checks its direction.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Direction != DirectionTB && l.Direction != DirectionLR {
		return Layout{}, fmt.Errorf("layout has invalid direction %q", l.Direction)
	}
	return l, nil
}

// WriteLayout writes l as indented JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// WriteLayoutFile writes l to path.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadLayoutFile reads a layout written by [WriteLayoutFile].
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
