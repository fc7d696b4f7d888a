package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ubichain/core/events"
	"ubichain/crypto"
	"ubichain/native/ubi"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ErrDSNRequired is returned when Open is called without a data source.
var ErrDSNRequired = errors.New("indexer: dsn must be configured")

// Indexer mirrors claim events into SQL for history queries. It implements
// events.Emitter so it can be installed as the node's event sink.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
	nowFn  func() time.Time
}

// Open connects to dsn and migrates the schema. DSNs starting with
// "postgres://" or "postgresql://" use the Postgres driver; anything else is
// treated as a sqlite path or URI.
func Open(dsn string, log *slog.Logger) (*Indexer, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		dialector = postgres.Open(trimmed)
	} else {
		dialector = sqlite.Open(trimmed)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return New(db, log), nil
}

// New wraps an already migrated database handle.
func New(db *gorm.DB, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{
		db:     db,
		logger: log.With(slog.String("component", "indexer")),
		nowFn:  time.Now,
	}
}

// Close releases the underlying connection pool.
func (i *Indexer) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Emit implements events.Emitter. Events other than recorded claims are
// ignored; failures are logged because the ledger has already committed.
func (i *Indexer) Emit(evt events.Event) {
	if i == nil || evt == nil || evt.EventType() != ubi.EventTypeClaimRecorded {
		return
	}
	payload, ok := evt.(events.Payload)
	if !ok {
		return
	}
	record, err := recordFromEvent(payload, i.nowFn())
	if err != nil {
		i.logger.Warn("skip malformed claim event", slog.Any("error", err))
		return
	}
	if err := i.Store(context.Background(), record); err != nil {
		i.logger.Error("index claim", slog.Uint64("claimId", record.ClaimID), slog.Any("error", err))
	}
}

// Store inserts record. Re-delivering an already indexed claim is a no-op.
func (i *Indexer) Store(ctx context.Context, record *ClaimRecord) error {
	return i.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}

func recordFromEvent(payload events.Payload, now time.Time) (*ClaimRecord, error) {
	raw := payload.Event()
	if raw == nil {
		return nil, fmt.Errorf("empty payload")
	}
	parseUint := func(key string) (uint64, error) {
		v, err := strconv.ParseUint(raw.Attr(key), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("attribute %s: %w", key, err)
		}
		return v, nil
	}
	claimID, err := parseUint("claimId")
	if err != nil {
		return nil, err
	}
	programID, err := parseUint("programId")
	if err != nil {
		return nil, err
	}
	period, err := parseUint("period")
	if err != nil {
		return nil, err
	}
	height, err := parseUint("height")
	if err != nil {
		return nil, err
	}
	recipient := raw.Attr("recipient")
	if _, err := crypto.ParseAddress(recipient); err != nil {
		return nil, fmt.Errorf("attribute recipient: %w", err)
	}
	return &ClaimRecord{
		ClaimID:   claimID,
		Recipient: recipient,
		ProgramID: programID,
		Amount:    raw.Attr("amount"),
		Period:    period,
		Height:    height,
		Hash:      raw.Attr("hash"),
		IndexedAt: now.UTC(),
	}, nil
}

// Query filters claim history. Zero-valued filters are ignored.
type Query struct {
	Recipient *[20]byte
	ProgramID *uint64
	Limit     int
	Offset    int
}

// List returns indexed claims matching q ordered by claim id.
func (i *Indexer) List(ctx context.Context, q Query) ([]ClaimRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	tx := i.db.WithContext(ctx).Model(&ClaimRecord{})
	if q.Recipient != nil {
		tx = tx.Where("recipient = ?", crypto.FormatAddress(*q.Recipient))
	}
	if q.ProgramID != nil {
		tx = tx.Where("program_id = ?", *q.ProgramID)
	}
	var records []ClaimRecord
	if err := tx.Order("claim_id ASC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("indexer: list claims: %w", err)
	}
	return records, nil
}
