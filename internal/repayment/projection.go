package repayment

import (
	"time"

	"github.com/agrimandi/agrimandi-backend/internal/tiers"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
)

// ProjectionPoint is the payable amount from one boundary day onward.
type ProjectionPoint struct {
	FromDay   int
	Breakdown Breakdown
}

// Project computes the repayment schedule at every day where the applicable
// rate can change, so a vendor can see exactly what waiting costs.
func Project(principal money.Amount, purchaseDate time.Time, snap *tiers.Snapshot) ([]ProjectionPoint, error) {
	if snap == nil || !principal.IsPositive() {
		return nil, nil
	}

	var points []ProjectionPoint
	for _, day := range snap.BoundaryDays() {
		breakdown, err := Price(principal, purchaseDate, purchaseDate.AddDate(0, 0, day), snap)
		if err != nil {
			return nil, err
		}
		points = append(points, ProjectionPoint{FromDay: day, Breakdown: breakdown})
	}
	return points, nil
}
