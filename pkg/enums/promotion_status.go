package enums

// PromotionStatus is the badge state shown next to a promotion.
type PromotionStatus string

const (
	PromotionStatusDeleted   PromotionStatus = "deleted"
	PromotionStatusInactive  PromotionStatus = "inactive"
	PromotionStatusScheduled PromotionStatus = "scheduled"
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusLastDay   PromotionStatus = "last_day"
	PromotionStatusExpired   PromotionStatus = "expired"
)

// String implements fmt.Stringer.
func (s PromotionStatus) String() string {
	return string(s)
}

// IsUsable reports whether a discount may be applied in this state.
func (s PromotionStatus) IsUsable() bool {
	return s == PromotionStatusActive || s == PromotionStatusLastDay
}
