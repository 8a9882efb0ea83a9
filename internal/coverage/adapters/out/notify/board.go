package notify

import (
	"sort"
	"sync"

	"ridecover/internal/coverage/domain"
)

// Board помнит, какие уведомления сейчас показаны у каждого водителя.
// Show заменяет уведомление с тем же id, Hide непоказанного ничего не меняет.
type Board struct {
	mu    sync.Mutex
	shown map[string]map[domain.NotificationID]domain.NotificationAction
}

func NewBoard() *Board {
	return &Board{shown: make(map[string]map[domain.NotificationID]domain.NotificationAction)}
}

// Apply records the action and reports whether the device must be told about it.
// The board lives in memory: after a restart a notification still shown on the
// device is unknown here, so its Hide is suppressed until it is shown again.
func (b *Board) Apply(driverID string, a domain.NotificationAction) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.shown[driverID]
	switch a.Kind {
	case domain.ActionShow:
		if cur == nil {
			cur = make(map[domain.NotificationID]domain.NotificationAction)
			b.shown[driverID] = cur
		}
		cur[a.ID] = a
		return true
	case domain.ActionHide:
		if _, ok := cur[a.ID]; !ok {
			return false
		}
		delete(cur, a.ID)
		if len(cur) == 0 {
			delete(b.shown, driverID)
		}
		return true
	default:
		return false
	}
}

// Shown returns the currently visible notifications sorted by id.
func (b *Board) Shown(driverID string) []domain.NotificationAction {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := make([]domain.NotificationAction, 0, len(b.shown[driverID]))
	for _, a := range b.shown[driverID] {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
