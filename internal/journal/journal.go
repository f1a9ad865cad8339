package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/paperledger/paperledger/internal/entity"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	defaultJournalDir  = "./wal/trades"
	segmentThreshold   = 1000
	maxSegments        = 100
	tradeRecordKeyBase = "trade_"
)

// Journal persists executed trades in a WAL so restarts keep the audit trail
// and readers can stream trades by log index.
type Journal struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// New initializes a WAL-backed trade journal under the provided directory.
func New(dir string) (*Journal, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal WAL")
	}

	return &Journal{wal: wal}, nil
}

// Append writes the trade record to the journal.
func (j *Journal) Append(record entity.TradeRecord) error {
	if j == nil || j.wal == nil {
		return errors.New("trade journal is not initialized")
	}
	if record.ID == "" {
		return fmt.Errorf("trade record id is required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal trade record")
	}

	key := tradeRecordKeyBase + record.ID

	j.mu.Lock()
	defer j.mu.Unlock()

	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, key, payload)
}

// TradesAfter returns all trades written after the provided log index.
func (j *Journal) TradesAfter(index uint64) ([]entity.TradeRecordWithIndex, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("trade journal is not initialized")
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	current := j.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]entity.TradeRecordWithIndex, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := j.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, tradeRecordKeyBase) {
			continue
		}
		var record entity.TradeRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode trade record")
		}
		records = append(records, entity.TradeRecordWithIndex{Index: idx, Record: record})
	}

	return records, nil
}

// CurrentIndex returns the latest journal index stored.
func (j *Journal) CurrentIndex() uint64 {
	if j == nil || j.wal == nil {
		return 0
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return errors.New("trade journal is not initialized")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}
