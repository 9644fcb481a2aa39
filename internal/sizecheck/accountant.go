package sizecheck

import (
	"context"
	"fmt"
	"math"
)

// DefaultThresholdMB is the soft cap above which the user is asked to confirm
// before submitting. Nothing is resized or compressed; the check is advisory.
const DefaultThresholdMB = 5.0

// Round rounds a size in megabytes to two decimal places.
func Round(mb float64) float64 {
	return math.Round(mb*100) / 100
}

// Total sums all known media sizes in megabytes, rounded to two decimals.
// A nil entry means the size is unknown (e.g. an already-uploaded remote
// asset) and contributes zero.
func Total(video *float64, photos []*float64) float64 {
	var total float64
	if video != nil {
		total += *video
	}
	for _, p := range photos {
		if p != nil {
			total += *p
		}
	}
	return Round(total)
}

// Confirmer asks the user a yes/no question and reports their choice.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmIfLarge gates the submission on its total size. Totals at or below
// the threshold pass without prompting; anything larger blocks on the
// confirmer, where false means the user chose to cancel.
func ConfirmIfLarge(ctx context.Context, c Confirmer, totalMB, thresholdMB float64) (bool, error) {
	if totalMB <= thresholdMB {
		return true, nil
	}
	question := fmt.Sprintf(
		"Total media size is %.2fMB, which is over the recommended %.2fMB. Uploading may be slow. Continue anyway?",
		totalMB, thresholdMB,
	)
	return c.Confirm(ctx, question)
}
