package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferStatus lifecycle status of an outbound transfer
type TransferStatus string

const (
	TransferStatusSent      TransferStatus = "sent"      // signed and recorded, not yet confirmed
	TransferStatusConfirmed TransferStatus = "confirmed" // receipt status success
	TransferStatusFailed    TransferStatus = "failed"    // receipt status reverted
	TransferStatusError     TransferStatus = "error"     // local or node error during execution
)

// IsTerminal reports whether no further lifecycle updates are expected.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusConfirmed || s == TransferStatusFailed || s == TransferStatusError
}

const (
	// PendingTxHash placeholder stored before the node accepts the broadcast
	PendingTxHash = "pending"
	// ErrorTxHash stored when execution fails before a hash is known
	ErrorTxHash = "error"
	// NativeLogIndex marks a native-coin transaction record (no event log)
	NativeLogIndex = -1
)

// Address generated custodial address; the set of addresses is the destination whitelist
type Address struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Address    string    `json:"address" gorm:"uniqueIndex;not null;size:42"`
	PrivateKey string    `json:"-" gorm:"not null;type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}

// BeforeCreate assigns a UUID when none was set
func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Transaction validated inbound transfer, one row per recognised transfer in a transaction
type Transaction struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	TxHash    string    `json:"tx_hash" gorm:"not null;size:66;uniqueIndex:idx_tx_hash_log"`
	LogIndex  int       `json:"log_index" gorm:"not null;default:-1;uniqueIndex:idx_tx_hash_log"`
	Asset     string    `json:"asset" gorm:"not null;size:32"`
	ToAddress string    `json:"to_address" gorm:"not null;size:42;index"`
	Value     string    `json:"value" gorm:"not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate assigns a UUID when none was set
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// Transfer outbound transfer executed by this service
type Transfer struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	TxHash      string         `json:"tx_hash" gorm:"not null;size:66;index"`
	FromAddress string         `json:"from_address" gorm:"not null;size:42;index"`
	ToAddress   string         `json:"to_address" gorm:"not null;size:42"`
	Asset       string         `json:"asset" gorm:"not null;size:32"`
	Value       string         `json:"value" gorm:"not null;size:100"`
	Status      TransferStatus `json:"status" gorm:"not null;size:16;index"`
	GasUsed     *uint64        `json:"gas_used"`
	GasPrice    string         `json:"gas_price" gorm:"size:100"` // wei
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (Transfer) TableName() string {
	return "transfers"
}

// BeforeCreate assigns a UUID when none was set
func (t *Transfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Address{},
		&Transaction{},
		&Transfer{},
	}
}
