package ledger

import (
	"bookkeeping/internal/models"

	"github.com/shopspring/decimal"
)

// Balances are the four running totals shown to a user. Credit is money owed to the
// user, Loan is money the user owes.
type Balances struct {
	Cash   decimal.Decimal
	Bank   decimal.Decimal
	Credit decimal.Decimal
	Loan   decimal.Decimal
}

// Aggregate folds every transaction of a user into Balances. It never mutates its input
// and the result does not depend on the order of txs.
func Aggregate(txs []models.Transaction) Balances {
	var b Balances
	for _, tx := range txs {
		b.apply(tx)
	}
	return b
}

func (b *Balances) apply(tx models.Transaction) {
	amount := tx.Amount
	account := b.account(tx.Account)
	switch tx.Type {
	case models.TypeIncome:
		*account = account.Add(amount)
	case models.TypeExpense:
		*account = account.Sub(amount)
	case models.TypeCreditReceivable:
		b.Credit = b.Credit.Add(amount)
	case models.TypeCreditPayable:
		b.Loan = b.Loan.Add(amount)
	case models.TypeLoanReceivable:
		*account = account.Sub(amount)
		b.Credit = b.Credit.Add(amount)
	case models.TypeLoanPayable:
		*account = account.Add(amount)
		b.Loan = b.Loan.Add(amount)
	case models.TypePaymentReceived:
		*account = account.Add(amount)
		b.Credit = b.Credit.Sub(amount)
	case models.TypePaymentMade:
		*account = account.Sub(amount)
		b.Loan = b.Loan.Sub(amount)
	case models.TypeTransfer:
		*account = account.Sub(amount)
	}
}

func (b *Balances) account(account models.Account) *decimal.Decimal {
	if account == models.AccountBank {
		return &b.Bank
	}
	return &b.Cash
}
