package action

import (
	"fmt"

	"dealclient/internal/card"
	"dealclient/internal/holding"
)

// RentAmount computes the rent charged on color: the schedule entry for the
// number of owned cards, plus the House and Hotel bonuses when the main set
// is complete and carries them.
func RentAmount(h holding.Holding, sets holding.Sets, color card.Color) (int, error) {
	schedule, err := color.RentSchedule()
	if err != nil {
		return 0, err
	}
	owned := h.PropertyCount(color)
	if owned == 0 {
		return 0, fmt.Errorf("no %s property owned", color)
	}
	amount := schedule[min(owned-1, len(schedule)-1)]
	if main := sets.Main[color]; main.Complete() {
		if main.HasHouse() {
			amount += card.HouseBonus
		}
		if main.HasHotel() {
			amount += card.HotelBonus
		}
	}
	return amount, nil
}
