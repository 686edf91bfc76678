package entities

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestChunk_WithEmbedding(t *testing.T) {
	chunk := Chunk{
		ID:         "chunk-1",
		DocumentID: "doc-123",
		Source:     "leave.txt",
		Content:    "some text",
		Index:      0,
		Embedding:  []float32{0.1, 0.2, 0.3},
	}

	if len(chunk.Embedding) != 3 {
		t.Errorf("expected 3 embedding dims, got %d", len(chunk.Embedding))
	}
}

func TestAuditEvent_JSONShape(t *testing.T) {
	event := AuditEvent{
		ID:      "e1",
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Event:   EventSelfHeal,
		Payload: map[string]any{"request_id": "r1", "reason": "Retrieval drift"},
	}

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(raw)
	for _, want := range []string{`"id":"e1"`, `"time":"2025-01-02T03:04:05Z"`, `"event":"self_heal"`, `"reason":"Retrieval drift"`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in %s", want, got)
		}
	}
}

func TestIngestReport_OmitsEmptySnapshotID(t *testing.T) {
	raw, err := json.Marshal(IngestReport{NoDrift: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "snapshot_id") {
		t.Errorf("snapshot_id should be omitted for a no-drift run: %s", raw)
	}
}
