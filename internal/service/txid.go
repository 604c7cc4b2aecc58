package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const transactionIDPrefix = "TXN-"

// NewTransactionID — человекочитаемый номер платежа: TXN-ГГММЧЧмм-XXXXXX.
// Он же уходит в шлюз как external_id счёта.
func NewTransactionID(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return transactionIDPrefix + now.Format("0601") + now.Format("1504") + "-" + suffix
}
