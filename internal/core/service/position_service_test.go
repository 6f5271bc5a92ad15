package service

import (
	"context"
	"errors"
	"testing"
	"trackgen/internal/cache"
	"trackgen/internal/core/repository"
	"trackgen/internal/protocol/gps103"
)

func newTestService() PositionService {
	return NewPositionService(repository.NewInMemoryPositionRepository(), cache.New(context.Background(), ""), nil)
}

func TestProcessRawData(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	records := []string{
		"##,imei:1234567890123,A;",
		"imei:1234567890123,tracker,151030080103,,F,000101.000,A,4851.2268,N,220.6608,E,0,0;",
		"1234567890123;",
		"imei:1234567890123,tracker,151030080103,,F,000101.000,A,4851.3141,N,220.7511,E,40,0;",
	}

	stored := 0
	for _, rec := range records {
		decoded, pos, err := svc.ProcessRawData(ctx, []byte(rec))
		if err != nil {
			t.Fatalf("ProcessRawData(%q) unexpected error: %v", rec, err)
		}
		if decoded.IMEI != "1234567890123" {
			t.Errorf("IMEI = %q", decoded.IMEI)
		}
		if (pos != nil) != (decoded.Type == gps103.LocationMessage) {
			t.Errorf("ProcessRawData(%q) position = %v for type %v", rec, pos, decoded.Type)
		}
		if pos != nil {
			stored++
		}
	}
	if stored != 2 {
		t.Fatalf("stored = %d, want 2", stored)
	}

	positions, err := svc.GetDevicePositions(ctx, "1234567890123", 0)
	if err != nil || len(positions) != 2 {
		t.Fatalf("GetDevicePositions() = %d positions, %v", len(positions), err)
	}

	latest, err := svc.GetLatestPosition(ctx, "1234567890123")
	if err != nil || latest == nil {
		t.Fatalf("GetLatestPosition() = %v, %v", latest, err)
	}
	if !almostEqual(latest.Latitude, 48.855235, 1e-6) {
		t.Errorf("latest latitude = %v, want 48.855235", latest.Latitude)
	}
}

func TestProcessRawDataRejectsGarbage(t *testing.T) {
	_, _, err := newTestService().ProcessRawData(context.Background(), []byte("*HQ,V1,garbage"))
	if !errors.Is(err, gps103.ErrInvalidHeader) {
		t.Errorf("ProcessRawData() error = %v, want %v", err, gps103.ErrInvalidHeader)
	}
}

func TestQueriesRequireDeviceID(t *testing.T) {
	svc := newTestService()
	if _, err := svc.GetDevicePositions(context.Background(), "", 0); !errors.Is(err, ErrInvalidDeviceID) {
		t.Errorf("GetDevicePositions() error = %v", err)
	}
	if _, err := svc.GetLatestPosition(context.Background(), ""); !errors.Is(err, ErrInvalidDeviceID) {
		t.Errorf("GetLatestPosition() error = %v", err)
	}
}

func TestLatestPositionUnknownDevice(t *testing.T) {
	pos, err := newTestService().GetLatestPosition(context.Background(), "unknown")
	if err != nil || pos != nil {
		t.Errorf("GetLatestPosition(unknown) = %v, %v, want nil, nil", pos, err)
	}
}

// Helper function for floating point comparison
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
