package ollama

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://localhost:11434", 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultTimeout, c.timeout)
	}

	c, err = NewClient("http://localhost:11434", 30*time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", c.timeout)
	}
}

func TestParseDetection(t *testing.T) {
	raw := `{"regions":[{"label":"title","kind":"text","text":"Hello","confidence":0.92,"box":{"x":0.1,"y":0.1,"w":0.8,"h":0.1}}]}`

	result, err := parseDetection(raw)
	if err != nil {
		t.Fatalf("parseDetection failed: %v", err)
	}
	if len(result.Regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(result.Regions))
	}

	region := result.Regions[0]
	if region.Kind != "text" {
		t.Errorf("Expected kind text, got %q", region.Kind)
	}
	if region.Text != "Hello" {
		t.Errorf("Expected text Hello, got %q", region.Text)
	}
	if region.Confidence != 0.92 {
		t.Errorf("Expected confidence 0.92, got %f", region.Confidence)
	}
}

func TestParseDetectionWithCodeFences(t *testing.T) {
	raw := "```json\n{\"regions\":[{\"kind\":\"graphic\",\"box\":{\"x\":0,\"y\":0,\"w\":0.5,\"h\":0.5}}]}\n```"

	result, err := parseDetection(raw)
	if err != nil {
		t.Fatalf("parseDetection failed: %v", err)
	}
	if len(result.Regions) != 1 {
		t.Errorf("Expected 1 region after stripping fences, got %d", len(result.Regions))
	}
}

func TestParseDetectionWithTrailingComma(t *testing.T) {
	raw := `{"regions":[{"kind":"text","box":{"x":0.1,"y":0.1,"w":0.2,"h":0.1},}],}`

	result, err := parseDetection(raw)
	if err != nil {
		t.Fatalf("parseDetection failed: %v", err)
	}
	if len(result.Regions) != 1 {
		t.Errorf("Expected trailing commas to be repaired, got %d regions", len(result.Regions))
	}
}

func TestParseDetectionGarbage(t *testing.T) {
	// A model that rambles instead of returning JSON is an empty
	// detection, not an error
	for _, raw := range []string{"", "I see a slide with a title.", "null"} {
		result, err := parseDetection(raw)
		if err != nil {
			t.Errorf("parseDetection(%q) failed: %v", raw, err)
			continue
		}
		if len(result.Regions) != 0 {
			t.Errorf("parseDetection(%q): expected no regions, got %d", raw, len(result.Regions))
		}
	}
}

func TestSanitizeModelJSON(t *testing.T) {
	raw := "```json\n{\n  // a comment\n  \"regions\": [],\n}\n```"
	cleaned := sanitizeModelJSON(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		t.Fatalf("Sanitized output is not valid JSON: %v\n%s", err, cleaned)
	}
	if _, ok := parsed["regions"]; !ok {
		t.Error("Expected regions key to survive sanitization")
	}
}
