package journal

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is one journalled alert cycle.
type Entry struct {
	ID        uint   `gorm:"primarykey"`
	Timestamp string `gorm:"not null"` // display timestamp of the cycle, UTC
	Coin      string `gorm:"not null"`
	Action    string `gorm:"not null"`
	PnlUSD    float64
}

// Journal is the append-only log sink behind the alert scheduler and the
// /log command. Writes are best-effort: callers log failures and continue.
// Engine state itself is never persisted here, only the one-line-per-cycle
// audit trail.
type Journal struct {
	db *gorm.DB
}

// Open creates (or reopens) the journal database and migrates its schema.
func Open(dsn string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append writes one entry to the tail of the journal.
func (j *Journal) Append(e Entry) error {
	if err := j.db.Create(&e).Error; err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// Tail returns the last n entries as display lines, oldest first:
// "timestamp - coin - action - PnL: $v".
func (j *Journal) Tail(n int) ([]string, error) {
	var entries []Entry
	if err := j.db.Order("id desc").Limit(n).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to read journal tail: %w", err)
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[len(entries)-1-i] = fmt.Sprintf("%s - %s - %s - PnL: $%.2f", e.Timestamp, e.Coin, e.Action, e.PnlUSD)
	}
	return lines, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
