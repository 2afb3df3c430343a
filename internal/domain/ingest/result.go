package ingest

// ItemStatus is the classification of a single submitted record.
type ItemStatus string

// Item status values.
const (
	StatusCreated   ItemStatus = "created"
	StatusDuplicate ItemStatus = "duplicate"
	StatusFailed    ItemStatus = "failed"
)

// Item is one submitted record in a bulk ingestion call.
type Item struct {
	Category    string
	Text        string
	Answer      string
	Distractors []string
	Labels      []string
}

// Result is the outcome of processing one record, tied to its input index.
type Result struct {
	index  int
	status ItemStatus
	text   string
	err    error
}

// NewCreated creates a result for an accepted record.
func NewCreated(index int, text string) Result {
	return Result{index: index, status: StatusCreated, text: text}
}

// NewDuplicate creates a result for a suppressed near-duplicate.
func NewDuplicate(index int, text string) Result {
	return Result{index: index, status: StatusDuplicate, text: text}
}

// NewFailed creates a result for a record that could not be processed.
func NewFailed(index int, text string, err error) Result {
	return Result{index: index, status: StatusFailed, text: text, err: err}
}

// Index returns the record's position in the submitted batch.
func (r Result) Index() int { return r.index }

// Status returns the classification.
func (r Result) Status() ItemStatus { return r.status }

// Text returns the submitted question text.
func (r Result) Text() string { return r.text }

// Err returns the failure cause, if any.
func (r Result) Err() error { return r.err }
