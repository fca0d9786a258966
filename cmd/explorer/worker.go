package main

import (
	"context"
	"sync"
	"time"

	"chain-explorer/internal/domain/entity"
	domain_service "chain-explorer/internal/domain/service"

	"go.uber.org/zap"
)

// batchFlushInterval bounds how long a partial batch waits for more transactions
const batchFlushInterval = 5 * time.Second

// processMessages batches streamed transactions and decodes each batch on a worker pool.
// It returns once ctx is done or msgChan is closed, after the last batch has been processed.
func processMessages(
	ctx context.Context,
	msgChan <-chan *entity.Transaction,
	indexingService domain_service.IndexingService,
	logger *zap.Logger,
	batchSize int,
	workerPoolSize int,
	flushInterval time.Duration,
) {
	batch := make([]*entity.Transaction, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	type batchJob struct {
		transactions []*entity.Transaction
	}
	jobChan := make(chan batchJob, workerPoolSize)
	var wg sync.WaitGroup

	for i := 0; i < workerPoolSize; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger.Debug("Starting batch processing worker", zap.Int("worker_id", workerID))

			for job := range jobChan {
				// Workers finish queued batches after ctx is cancelled
				if err := indexingService.ProcessTransactionBatch(context.WithoutCancel(ctx), job.transactions); err != nil {
					logger.Error("Failed to process transaction batch",
						zap.Error(err),
						zap.Int("worker_id", workerID),
						zap.Int("batch_size", len(job.transactions)))
				} else {
					logger.Debug("Successfully processed batch",
						zap.Int("worker_id", workerID),
						zap.Int("batch_size", len(job.transactions)))
				}
			}
		}(i)
	}

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Clone the batch, workers keep it after the reset
		txBatch := make([]*entity.Transaction, len(batch))
		copy(txBatch, batch)
		jobChan <- batchJob{transactions: txBatch}
		batch = batch[:0]
	}
	shutdown := func() {
		flush()
		close(jobChan)
		wg.Wait()
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			return

		case tx, ok := <-msgChan:
			if !ok {
				shutdown()
				return
			}
			if tx == nil {
				continue
			}

			batch = append(batch, tx)
			if len(batch) >= batchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}
