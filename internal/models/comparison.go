package models

import (
	"time"
)

// Step is the lifecycle state of an asynchronous batch comparison
type Step string

const (
	StepQueued    Step = "queued"
	StepRunning   Step = "running"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

// CompareRequest is the body of a synchronous pair comparison. Either
// paths (daemon-local files) or inline contents may be supplied for each
// side; content wins when both are present.
type CompareRequest struct {
	LeftPath     string `json:"leftPath"`
	RightPath    string `json:"rightPath"`
	LeftContent  string `json:"leftContent"`
	RightContent string `json:"rightContent"`
	Algorithm    string `json:"algorithm"` // "spans" or "trigram"
	Binary       bool   `json:"binary"`
}

// CompareResponse is the synchronous comparison reply
type CompareResponse struct {
	Algorithm string  `json:"algorithm"`
	Percent   float64 `json:"percent"`
	RawScore  float64 `json:"rawScore,omitempty"` // 0..60000, spans algorithm only
	Cached    bool    `json:"cached"`
}

// BatchRequest asks for one base file to be compared against many
// candidate files asynchronously
type BatchRequest struct {
	BasePath   string   `json:"basePath"`
	Candidates []string `json:"candidates"`
	Algorithm  string   `json:"algorithm"`
	Binary     bool     `json:"binary"`
}

// BatchJob is the stream message for one queued batch
type BatchJob struct {
	ID         string   `json:"id"`
	BasePath   string   `json:"basePath"`
	Candidates []string `json:"candidates"`
	Algorithm  string   `json:"algorithm"`
	Binary     bool     `json:"binary"`
}

// ComparisonResult is one persisted pair comparison inside a batch
type ComparisonResult struct {
	BatchID   string    `bson:"batchId" json:"batchId"`
	LeftPath  string    `bson:"leftPath" json:"leftPath"`
	RightPath string    `bson:"rightPath" json:"rightPath"`
	Algorithm string    `bson:"algorithm" json:"algorithm"`
	Binary    bool      `bson:"binary" json:"binary"`
	Percent   float64   `bson:"percent" json:"percent"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// BatchReport is the persisted summary of one batch
type BatchReport struct {
	BatchID     string    `bson:"batchId" json:"batchId"`
	Status      string    `bson:"status" json:"status"` // queued, running, completed, failed
	Algorithm   string    `bson:"algorithm" json:"algorithm"`
	TotalPairs  int       `bson:"totalPairs" json:"totalPairs"`
	FailedPairs int       `bson:"failedPairs" json:"failedPairs"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	CompletedAt time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}
