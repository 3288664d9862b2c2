package promo

// Best selects the promotion with the highest discount percent. Ties are
// broken by the lowest promotion ID so repeated calls over the same data
// always pick the same winner. Returns nil for an empty slice.
func Best(promotions []Promotion) *Promotion {
	var best *Promotion
	for i := range promotions {
		p := &promotions[i]
		switch {
		case best == nil:
			best = p
		case p.DiscountPercent > best.DiscountPercent:
			best = p
		case p.DiscountPercent == best.DiscountPercent && p.ID < best.ID:
			best = p
		}
	}
	return best
}
