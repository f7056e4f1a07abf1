package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SendBatchExec sends a batch of Exec statements through the querier in ctx
// and returns the total number of affected rows. The first failing statement
// aborts the batch.
func SendBatchExec(ctx context.Context, pool Querier, batch *pgx.Batch) (int, error) {
	if batch.Len() == 0 {
		return 0, nil
	}

	results := QuerierFromCtx(ctx, pool).SendBatch(ctx, batch)
	defer results.Close()

	var affected int
	for i := range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch exec #%d: %w", i, err)
		}
		affected += int(tag.RowsAffected())
	}

	return affected, nil
}
