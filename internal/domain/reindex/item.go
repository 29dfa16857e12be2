package reindex

// ItemStatus is the outcome of reindexing one product.
type ItemStatus string

// Item status values.
const (
	StatusEmbedded ItemStatus = "embedded"
	StatusSkipped  ItemStatus = "skipped" // up to date, not selected
	StatusFailed   ItemStatus = "failed"
)

// ItemResult is the outcome of processing one product in a reindex run.
type ItemResult struct {
	productID string
	status    ItemStatus
	err       error
}

// NewEmbedded creates a successful item result.
func NewEmbedded(productID string) ItemResult {
	return ItemResult{productID: productID, status: StatusEmbedded}
}

// NewFailed creates a failed item result.
func NewFailed(productID string, err error) ItemResult {
	return ItemResult{productID: productID, status: StatusFailed, err: err}
}

// ProductID returns the product identifier.
func (r ItemResult) ProductID() string { return r.productID }

// Status returns the processing outcome.
func (r ItemResult) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r ItemResult) Err() error { return r.err }
