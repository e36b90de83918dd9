package event

import (
	"encoding/json"
	"time"
)

// StatementImportedMessage announces a finished statement import. Consumers
// interested in the rows fetch them from the store; the message carries
// counts only.
type StatementImportedMessage struct {
	UserID            string    `json:"userId"`
	AccountID         string    `json:"accountId"`
	Imported          int       `json:"imported"`
	DetectedTransfers int       `json:"detectedTransfers"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewStatementImportedMessage creates an import notification message
func NewStatementImportedMessage(userID, accountID string, imported, transfers int) *StatementImportedMessage {
	return &StatementImportedMessage{
		UserID:            userID,
		AccountID:         accountID,
		Imported:          imported,
		DetectedTransfers: transfers,
		Timestamp:         time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StatementImportedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatementImportedMessageFromJSON creates a message from JSON bytes
func StatementImportedMessageFromJSON(data []byte) (*StatementImportedMessage, error) {
	var msg StatementImportedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
