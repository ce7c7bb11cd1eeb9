package model

import "time"

// BankRecipient is the sentinel transfer target that debits the sender
// without crediting any player.
const BankRecipient = "Bank"

// Transaction is an immutable ledger entry recording one transfer.
// Names are kept for readability; handles are kept alongside them so a
// duplicated display name does not make the record ambiguous.
type Transaction struct {
	From       string
	FromHandle PlayerHandle
	To         string       // display name, or BankRecipient
	ToHandle   PlayerHandle // empty when To is BankRecipient
	Amount     int64
	Timestamp  time.Time
}

// IsBankPayment reports whether the transfer went to the bank
func (t *Transaction) IsBankPayment() bool {
	return t.To == BankRecipient
}
