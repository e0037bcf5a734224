package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JalenTrades/mes-trading-assistant/internal/model"
)

// Config contains batch writer settings.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: 1 * time.Second,
	}
}

// Metrics holds writer counters.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}

// tickRow is a row for the market_data_ticks table.
type tickRow struct {
	Symbol     string
	Bid        string // decimal as text, cast to numeric by the database
	Ask        string
	Last       string
	BidSize    int
	AskSize    int
	LastSize   int
	Volume     int64
	BrokerTs   int64 // microseconds
	ReceivedAt int64 // microseconds
}

// TickWriter drains market-data ticks from a Buffer into the database.
type TickWriter struct {
	cfg    Config
	logger *slog.Logger

	input *Buffer[model.MarketDataTick]
	db    *pgxpool.Pool

	batch       []tickRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewTickWriter creates a tick writer.
func NewTickWriter(cfg Config, input *Buffer[model.MarketDataTick], db *pgxpool.Pool, logger *slog.Logger) *TickWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger.With("component", "journal"),
		batch:  make([]tickRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming ticks and writing to the database.
func (w *TickWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("tick journal started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer and flushes the remaining batch.
func (w *TickWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping tick journal")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("tick journal stopped")
	case <-ctx.Done():
		w.logger.Warn("tick journal stop timed out")
	}

	w.finalFlush(ctx)
	return nil
}

// Stats returns current counters.
func (w *TickWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the buffer and accumulates batches.
func (w *TickWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			tick, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleTick(tick)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *TickWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleTick transforms and adds a tick to the batch.
func (w *TickWriter) handleTick(tick model.MarketDataTick) {
	row := transform(tick)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts a tick to a database row.
func transform(tick model.MarketDataTick) tickRow {
	return tickRow{
		Symbol:     tick.Symbol,
		Bid:        tick.Bid.String(),
		Ask:        tick.Ask.String(),
		Last:       tick.Last.String(),
		BidSize:    tick.BidSize,
		AskSize:    tick.AskSize,
		LastSize:   tick.LastSize,
		Volume:     tick.Volume,
		BrokerTs:   tick.Timestamp.UnixMicro(),
		ReceivedAt: tick.ReceivedAt.UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (w *TickWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]tickRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed ticks",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// finalFlush drains whatever the consume loop left behind and flushes once
// more. Uses the caller's context since w.ctx is already cancelled.
func (w *TickWriter) finalFlush(ctx context.Context) {
	for {
		tick, ok := w.input.TryReceive()
		if !ok {
			break
		}
		row := transform(tick)
		w.batchMu.Lock()
		w.batch = append(w.batch, row)
		w.batchMu.Unlock()
	}
	w.flush(ctx)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *TickWriter) batchInsert(ctx context.Context, rows []tickRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO market_data_ticks (symbol, bid, ask, last, bid_size, ask_size, last_size, volume, broker_ts, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (symbol, broker_ts) DO NOTHING
		`, r.Symbol, r.Bid, r.Ask, r.Last, r.BidSize, r.AskSize, r.LastSize, r.Volume, r.BrokerTs, r.ReceivedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
