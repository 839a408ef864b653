package worker

import (
	"context"
)

// Worker - фоновый процесс под управлением WorkerManager
type Worker interface {
	// Start блокирует до остановки воркера или отмены ctx
	Start(ctx context.Context) error

	// Stop сигнализирует о завершении
	Stop() error

	Name() string
}
