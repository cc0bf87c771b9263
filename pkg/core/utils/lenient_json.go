package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes common hand-editing mistakes in JSON documents:
// trailing commas, single quotes, unquoted keys, comments, unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON converts Human-friendly JSON (Hjson) to standard JSON.
func ParseHJSON(data string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(data), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(out), nil
}

// SmartParse tries progressively more lenient strategies to decode input into v.
// Order of attempts:
// 1. Standard JSON (unknown fields rejected)
// 2. JSON repair
// 3. Hjson
func SmartParse(input string, v interface{}) error {
	if err := strictUnmarshal([]byte(input), v); err == nil {
		return nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := strictUnmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	hj, err := ParseHJSON(input)
	if err != nil {
		return fmt.Errorf("SMART_PARSE_FAILED: %w", err)
	}
	if err := strictUnmarshal([]byte(hj), v); err != nil {
		return fmt.Errorf("SMART_PARSE_FAILED: %w", err)
	}
	return nil
}

// LoadFile reads a user-authored JSON/Hjson document into v.
// Files with a .hjson extension skip the JSON strategies.
func LoadFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".hjson") {
		hj, err := ParseHJSON(string(data))
		if err == nil {
			err = strictUnmarshal([]byte(hj), v)
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	if err := SmartParse(string(data), v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
