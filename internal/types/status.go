package types

type ContentKind string

const (
	KindNote   ContentKind = "note"
	KindVideo  ContentKind = "video"
	KindSocial ContentKind = "social"
)

func (k ContentKind) Valid() bool {
	switch k {
	case KindNote, KindVideo, KindSocial:
		return true
	}
	return false
}

// NeedsIngestion reports whether content of this kind has to be resolved into
// text before it can be embedded. Notes carry their text from creation.
func (k ContentKind) NeedsIngestion() bool {
	return k != KindNote
}

type IngestionStatus string

const (
	IngestionPending IngestionStatus = "pending"
	IngestionSuccess IngestionStatus = "success"
	IngestionFailed  IngestionStatus = "failed"
	IngestionSkipped IngestionStatus = "skipped"
)

func (s IngestionStatus) Valid() bool {
	switch s {
	case IngestionPending, IngestionSuccess, IngestionFailed, IngestionSkipped:
		return true
	}
	return false
}

// Retryable reports whether a user-requested re-ingestion is allowed from
// this status. Success is final unless overridden with manual text.
func (s IngestionStatus) Retryable() bool {
	return s != IngestionSuccess
}

type EmbeddingStatus string

const (
	// EmbeddingUnset is the zero value for content whose ingestion has not
	// produced text yet.
	EmbeddingUnset   EmbeddingStatus = ""
	EmbeddingPending EmbeddingStatus = "pending"
	EmbeddingSuccess EmbeddingStatus = "success"
	EmbeddingFailed  EmbeddingStatus = "failed"
)

func (s EmbeddingStatus) Valid() bool {
	switch s {
	case EmbeddingUnset, EmbeddingPending, EmbeddingSuccess, EmbeddingFailed:
		return true
	}
	return false
}

func (s EmbeddingStatus) Retryable() bool {
	return s != EmbeddingSuccess
}

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDead    JobStatus = "dead"
)
