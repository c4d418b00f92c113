package bookingapi

import "context"

// DeleteBatch deletes each booking id independently, reporting per-item
// outcomes. One failing id never aborts the remaining deletions.
func (c *Client) DeleteBatch(ctx context.Context, ids []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(ids))
	for _, id := range ids {
		err := c.Delete(ctx, id)
		if err != nil {
			c.logger.Warn("batch delete: item failed", "booking_id", id, "error", err)
		}
		results = append(results, DeleteResult{ID: id, Err: err})
	}
	return results
}

// Failed counts the failing items in a batch result set.
func Failed(results []DeleteResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
