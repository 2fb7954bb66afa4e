package types

import "testing"

func TestContentKindValid(t *testing.T) {
	tests := []struct {
		kind ContentKind
		want bool
	}{
		{KindNote, true},
		{KindVideo, true},
		{KindSocial, true},
		{ContentKind("article"), false},
		{ContentKind(""), false},
	}
	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestContentKindNeedsIngestion(t *testing.T) {
	if KindNote.NeedsIngestion() {
		t.Error("notes carry text from creation and must not need ingestion")
	}
	if !KindVideo.NeedsIngestion() {
		t.Error("video must need ingestion")
	}
	if !KindSocial.NeedsIngestion() {
		t.Error("social must need ingestion")
	}
}

func TestIngestionStatusRetryable(t *testing.T) {
	tests := []struct {
		status IngestionStatus
		want   bool
	}{
		{IngestionPending, true},
		{IngestionFailed, true},
		{IngestionSkipped, true},
		{IngestionSuccess, false},
	}
	for _, tt := range tests {
		if got := tt.status.Retryable(); got != tt.want {
			t.Errorf("Retryable(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestEmbeddingStatusRetryable(t *testing.T) {
	tests := []struct {
		status EmbeddingStatus
		want   bool
	}{
		{EmbeddingUnset, true},
		{EmbeddingPending, true},
		{EmbeddingFailed, true},
		{EmbeddingSuccess, false},
	}
	for _, tt := range tests {
		if got := tt.status.Retryable(); got != tt.want {
			t.Errorf("Retryable(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestVectorRoundTrip(t *testing.T) {
	c := &Content{}
	if c.Vector() != nil {
		t.Error("empty embedding column must decode to nil")
	}
	c.Embedding = EncodeVector([]float32{0.5, -1.25, 3})
	got := c.Vector()
	if len(got) != 3 || got[0] != 0.5 || got[1] != -1.25 || got[2] != 3 {
		t.Errorf("Vector() = %v, want [0.5 -1.25 3]", got)
	}
}
