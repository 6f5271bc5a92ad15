package repository

import (
	"sort"
	"sync"
	"trackgen/internal/core/model"
)

type inMemoryPositionRepository struct {
	positions map[string][]*model.Position // by device, in arrival order
	mutex     sync.RWMutex
}

func NewInMemoryPositionRepository() PositionRepository {
	return &inMemoryPositionRepository{
		positions: make(map[string][]*model.Position),
	}
}

func (r *inMemoryPositionRepository) Create(position *model.Position) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.positions[position.DeviceID] = append(r.positions[position.DeviceID], position)
	return nil
}

func (r *inMemoryPositionRepository) FindByDeviceID(deviceID string, limit int) ([]*model.Position, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored := r.positions[deviceID]
	result := make([]*model.Position, len(stored))
	for i, p := range stored {
		result[len(stored)-1-i] = p
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Received.After(result[j].Received)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *inMemoryPositionRepository) FindLatestByDeviceID(deviceID string) (*model.Position, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest *model.Position
	for _, position := range r.positions[deviceID] {
		if latest == nil || !position.Received.Before(latest.Received) {
			latest = position
		}
	}
	return latest, nil
}
