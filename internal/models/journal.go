package models

import (
	"strings"
	"time"
)

// Journal is a free-text annotation attached to a matched trade, keyed the
// same way as CommissionOverride: qualified identity for new records, bare
// local id for legacy rows.
type Journal struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	AccountID string     `gorm:"size:64;not null;uniqueIndex:idx_journal_account_trade" json:"account_id"`
	TradeID   string     `gorm:"size:128;not null;uniqueIndex:idx_journal_account_trade" json:"trade_id"`
	Method    CalcMethod `gorm:"size:16" json:"method,omitempty"`
	LocalID   string     `gorm:"size:110;index" json:"local_id"`

	Notes string `gorm:"type:text" json:"notes"`
	// Tags holds normalized tags joined by commas. Normalization lowercases,
	// trims and de-duplicates; order is not significant.
	Tags string `gorm:"size:500" json:"tags"`

	Charts []JournalChart `gorm:"foreignKey:JournalID;constraint:OnDelete:CASCADE" json:"charts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Journal model
func (Journal) TableName() string {
	return "journals"
}

// TagList returns the normalized tags as a slice.
func (j *Journal) TagList() []string {
	if j.Tags == "" {
		return nil
	}
	return strings.Split(j.Tags, ",")
}

// JournalChart references a chart image stored in the external artifact
// store. Only the storage key lives here; the bytes do not.
type JournalChart struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	JournalID  string    `gorm:"size:36;not null;index" json:"journal_id"`
	StorageKey string    `gorm:"size:255;not null" json:"storage_key"`
	Label      string    `gorm:"size:100" json:"label,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for JournalChart model
func (JournalChart) TableName() string {
	return "journal_charts"
}

// NormalizeTags lowercases, trims and de-duplicates tags, dropping empties.
// Relative order of first occurrences is preserved for stable output.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
