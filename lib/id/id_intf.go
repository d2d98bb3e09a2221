package id

// RunIDGen generates the benchmark run IDs, unique and sortable by the
// start time.
type RunIDGen func() string
