package amqp

import (
	"encoding/json"
	"time"
)

// PurchaseSyncMessage tells the worker a purchase needs exporting. It
// carries only identifiers; the worker reads the current row from the
// database so a stale message never exports stale data.
type PurchaseSyncMessage struct {
	PurchaseID string    `json:"purchaseId"`
	UserID     string    `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewPurchaseSyncMessage(purchaseID, userID string) *PurchaseSyncMessage {
	return &PurchaseSyncMessage{
		PurchaseID: purchaseID,
		UserID:     userID,
		Timestamp:  time.Now(),
	}
}

func (m *PurchaseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PurchaseSyncMessageFromJSON(data []byte) (*PurchaseSyncMessage, error) {
	var msg PurchaseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.PurchaseID == "" {
		return nil, errEmptyPurchaseID
	}
	return &msg, nil
}
