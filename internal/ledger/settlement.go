package ledger

import (
	"bookkeeping/internal/models"

	"github.com/shopspring/decimal"
)

// Allocation is the share of a payment applied to one debt, with the debt state that
// results from it.
type Allocation struct {
	DebtID    string
	Applied   decimal.Decimal
	Remaining decimal.Decimal
	Status    models.DebtStatus
}

// SettledBy returns the debt types a payment of type paymentType reduces.
func SettledBy(paymentType models.TransactionType) []models.TransactionType {
	switch paymentType {
	case models.TypePaymentReceived:
		return []models.TransactionType{models.TypeCreditReceivable, models.TypeLoanReceivable}
	case models.TypePaymentMade:
		return []models.TransactionType{models.TypeCreditPayable, models.TypeLoanPayable}
	}
	return nil
}

// OpenDebt initialises the settlement fields of a freshly created debt.
func OpenDebt(tx *models.Transaction) {
	status := models.DebtOpen
	tx.Status = &status
	tx.RemainingAmount = decimal.NewNullDecimal(tx.Amount)
}

// CurrentRemaining is what is still owed on a debt. Rows written before remaining_amount
// existed fall back to the full amount; negative values are treated as nothing owed.
func CurrentRemaining(debt models.Transaction) decimal.Decimal {
	remaining := debt.Amount
	if debt.RemainingAmount.Valid {
		remaining = debt.RemainingAmount.Decimal
	}
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Transition returns the debt status for a remaining amount. Settled iff nothing is left;
// a debt is only open while nothing has been paid.
func Transition(original, remaining decimal.Decimal) models.DebtStatus {
	if !remaining.IsPositive() {
		return models.DebtSettled
	}
	if remaining.GreaterThanOrEqual(original) {
		return models.DebtOpen
	}
	return models.DebtPartial
}

// Allocate walks candidates in order and applies amount to each until it is used up.
// Every candidate visited while money remains gets an allocation, including a debt that
// was already fully paid (its allocation is zero). The second return value is whatever
// could not be applied.
func Allocate(amount decimal.Decimal, candidates []models.Transaction) ([]Allocation, decimal.Decimal) {
	remainingPayment := amount
	allocations := make([]Allocation, 0, len(candidates))
	for _, debt := range candidates {
		if !remainingPayment.IsPositive() {
			break
		}
		current := CurrentRemaining(debt)
		applied := decimal.Min(remainingPayment, current)
		left := current.Sub(applied)
		allocations = append(allocations, Allocation{
			DebtID:    debt.ID,
			Applied:   applied,
			Remaining: left,
			Status:    Transition(debt.Amount, left),
		})
		remainingPayment = remainingPayment.Sub(applied)
	}
	if remainingPayment.IsNegative() {
		remainingPayment = decimal.Zero
	}
	return allocations, remainingPayment
}
