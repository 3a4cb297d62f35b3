// internal/storage/models/transaction.go
package models

// Transaction is one program transaction sent by chipctl.
type Transaction struct {
	BaseModel
	Signature    string `gorm:"uniqueIndex;not null;type:varchar(88)" json:"signature"`
	Authority    string `gorm:"index;not null;type:varchar(44)" json:"authority"`
	Instruction  string `gorm:"index;not null;type:varchar(32)" json:"instruction"`
	Status       string `gorm:"not null;type:varchar(20)" json:"status"`
	Slot         uint64 `gorm:"type:numeric(20,0)" json:"slot"`
	Amount       uint64 `gorm:"type:numeric(20,0)" json:"amount"` // the instruction's u64 argument
	ErrorMessage string `gorm:"type:text" json:"error,omitempty"`
}

// BuyObservation is what a landed buy_chip_with_sol recorded on chain.
type BuyObservation struct {
	BaseModel
	Signature    string `gorm:"uniqueIndex;not null;type:varchar(88)"`
	Supplied     uint64 `gorm:"type:numeric(20,0);not null"` // lamports
	Price        uint64 `gorm:"type:numeric(20,0);not null"` // lamports per chip at send time
	ChipDelta    uint64 `gorm:"type:numeric(20,0);not null"`
	ChipDecimals uint8
	Slot         uint64 `gorm:"type:numeric(20,0)"`
}
