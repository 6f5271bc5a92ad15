package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"trackgen/internal/cache"
	"trackgen/internal/core/model"
	"trackgen/internal/core/repository"
	"trackgen/internal/protocol/gps103"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidDeviceID = errors.New("invalid device ID")

const latestTTL = 10 * time.Minute

type PositionService interface {
	// ProcessRawData decodes one GPS103 record. Location records are
	// stored and returned; login and heartbeat records return a nil
	// position.
	ProcessRawData(ctx context.Context, data []byte) (*gps103.GPS103Data, *model.Position, error)
	GetDevicePositions(ctx context.Context, deviceID string, limit int) ([]*model.Position, error)
	GetLatestPosition(ctx context.Context, deviceID string) (*model.Position, error)
}

type positionService struct {
	positionRepo repository.PositionRepository
	cache        *cache.Cache
	decoder      *gps103.Decoder
}

func NewPositionService(positionRepo repository.PositionRepository, c *cache.Cache, decoder *gps103.Decoder) PositionService {
	if decoder == nil {
		decoder = gps103.NewDecoder()
	}
	return &positionService{
		positionRepo: positionRepo,
		cache:        c,
		decoder:      decoder,
	}
}

func latestKey(deviceID string) string {
	return "position:latest:" + deviceID
}

func (s *positionService) ProcessRawData(ctx context.Context, data []byte) (*gps103.GPS103Data, *model.Position, error) {
	decoded, err := s.decoder.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	if decoded.Type != gps103.LocationMessage {
		return decoded, nil, nil
	}

	position := s.decoder.ToPosition(decoded)
	if err := s.positionRepo.Create(position); err != nil {
		return decoded, nil, fmt.Errorf("failed to store position: %w", err)
	}

	if err := s.cache.Set(ctx, latestKey(position.DeviceID), position, latestTTL); err != nil {
		log.Printf("Failed to cache latest position for %s: %v", position.DeviceID, err)
	}
	return decoded, position, nil
}

func (s *positionService) GetDevicePositions(ctx context.Context, deviceID string, limit int) ([]*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.positionRepo.FindByDeviceID(deviceID, limit)
}

func (s *positionService) GetLatestPosition(ctx context.Context, deviceID string) (*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	var cached model.Position
	err := s.cache.Get(ctx, latestKey(deviceID), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Printf("Cache lookup failed for %s: %v", deviceID, err)
	}

	position, err := s.positionRepo.FindLatestByDeviceID(deviceID)
	if err != nil || position == nil {
		return position, err
	}
	if err := s.cache.Set(ctx, latestKey(deviceID), position, latestTTL); err != nil {
		log.Printf("Failed to cache latest position for %s: %v", deviceID, err)
	}
	return position, nil
}
