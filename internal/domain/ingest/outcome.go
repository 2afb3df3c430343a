package ingest

// Outcome is the per-call summary of a bulk ingestion. It is built once per
// call and never persisted. Total() always equals
// Created() + Duplicates() + Failed().
type Outcome struct {
	results    []Result
	created    int
	duplicates int
	failed     int
}

// BuildOutcome aggregates per-record results into an Outcome.
func BuildOutcome(results []Result) Outcome {
	o := Outcome{results: results}
	for _, r := range results {
		switch r.Status() {
		case StatusCreated:
			o.created++
		case StatusDuplicate:
			o.duplicates++
		case StatusFailed:
			o.failed++
		}
	}
	return o
}

// Total returns the number of submitted records.
func (o Outcome) Total() int { return len(o.results) }

// Created returns the number of persisted records.
func (o Outcome) Created() int { return o.created }

// Duplicates returns the number of suppressed near-duplicates.
func (o Outcome) Duplicates() int { return o.duplicates }

// Failed returns the number of records that could not be processed.
func (o Outcome) Failed() int { return o.failed }

// Results returns all per-record results in input order.
func (o Outcome) Results() []Result { return o.results }

// DuplicateTexts returns the question texts classified as duplicates,
// in input order.
func (o Outcome) DuplicateTexts() []string {
	var texts []string
	for _, r := range o.results {
		if r.Status() == StatusDuplicate {
			texts = append(texts, r.Text())
		}
	}
	return texts
}

// Failures returns the failed results in input order.
func (o Outcome) Failures() []Result {
	var failed []Result
	for _, r := range o.results {
		if r.Status() == StatusFailed {
			failed = append(failed, r)
		}
	}
	return failed
}
