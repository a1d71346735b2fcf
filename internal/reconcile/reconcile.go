// Package reconcile runs the arithmetic consistency checks over built line
// items. Checks report discrepancies; they never correct values.
package reconcile

import (
	"fmt"
	"math"

	"clarabill/internal/domain"
	"clarabill/internal/normalize"
)

// Reconciler holds the comparison tolerance. The same tolerance applies to
// per-line and aggregate checks.
type Reconciler struct {
	tolerance float64
}

// NewReconciler creates a Reconciler with the given tolerance in dollars.
func NewReconciler(tolerance float64) *Reconciler {
	return &Reconciler{tolerance: tolerance}
}

// Reconcile checks every line item and the aggregate total. The input slice
// is carried into the result unchanged; only Discrepancies and the summary
// fields are computed here. The returned warnings feed the payload.
func (r *Reconciler) Reconcile(items []domain.LineItem, statedTotal *float64) (domain.ReconciliationResult, []string) {
	res := domain.ReconciliationResult{
		LineItems:   items,
		StatedTotal: statedTotal,
	}
	var warnings []string
	if statedTotal == nil {
		warnings = append(warnings, domain.WarnNoTotalFound)
	}

	if len(items) == 0 {
		res.Discrepancies = append(res.Discrepancies, domain.Discrepancy{
			Kind:      domain.DiscrepancyNoLineItems,
			FieldPath: "line_items",
			Message:   "no line items could be extracted from the document",
		})
		return res, warnings
	}

	for i := range items {
		item := &items[i]
		if d, ok := r.checkLine(i, item); ok {
			res.Discrepancies = append(res.Discrepancies, d)
		}
	}

	var sum float64
	for i := range items {
		sum += items[i].BilledAmount
	}
	res.BilledSum = normalize.RoundCents(sum)

	if statedTotal != nil {
		if d, ok := r.checkTotal(res.BilledSum, *statedTotal); ok {
			res.Discrepancies = append(res.Discrepancies, d)
		}
	}

	res.Reconciled = len(res.Discrepancies) == 0
	return res, warnings
}

// checkLine verifies billed - adjustments - payer_paid against the stated
// patient responsibility. Lines without a responsibility value skip the
// check: a failed field never enters arithmetic.
func (r *Reconciler) checkLine(i int, item *domain.LineItem) (domain.Discrepancy, bool) {
	if item.Responsibility == nil {
		return domain.Discrepancy{}, false
	}
	expected := item.BilledAmount - item.Adjustments
	if item.PayerPaid != nil {
		expected -= *item.PayerPaid
	}
	expected = normalize.RoundCents(expected)
	actual := *item.Responsibility
	if math.Abs(expected-actual) <= r.tolerance {
		return domain.Discrepancy{}, false
	}
	return domain.Discrepancy{
		Kind:      domain.DiscrepancyLineMath,
		FieldPath: fmt.Sprintf("line_items[%d].responsibility", i),
		Expected:  expected,
		Actual:    actual,
		Delta:     normalize.RoundCents(math.Abs(expected - actual)),
		Message: fmt.Sprintf("line %d: billed %.2f less adjustments %.2f does not match stated responsibility %.2f",
			item.LineNo, item.BilledAmount, item.Adjustments, actual),
	}, true
}

// checkTotal compares the billed sum against the document's stated total.
func (r *Reconciler) checkTotal(billedSum, stated float64) (domain.Discrepancy, bool) {
	if math.Abs(billedSum-stated) <= r.tolerance {
		return domain.Discrepancy{}, false
	}
	return domain.Discrepancy{
		Kind:      domain.DiscrepancyAggregateTotal,
		FieldPath: "stated_total",
		Expected:  stated,
		Actual:    billedSum,
		Delta:     normalize.RoundCents(math.Abs(stated - billedSum)),
		Message: fmt.Sprintf("sum of line item charges %.2f does not match the document's stated total %.2f",
			billedSum, stated),
	}, true
}
