package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// ──────────────────────────────────────────────
// CONCURRENT RIDE STARTS
// ──────────────────────────────────────────────

func TestStartRide_ConcurrentStartsOnSameBike_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addAvailableBike("bike-1")

	const riders = 8
	for i := 0; i < riders; i++ {
		f.wallets.SetBalance(riderID(i), 50.0)
	}

	var wg sync.WaitGroup
	results := make([]error, riders)

	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.StartRide(context.Background(), service.StartRideRequest{
				RiderID:  riderID(i),
				BikeID:   "bike-1",
				StartLat: 52.52,
				StartLng: 13.40,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrBikeUnavailable):
			// Lost the claim race.
		default:
			t.Errorf("rider %d: unexpected error: %v", i, err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", successes)
	}
	if bike := f.bikes.GetBike("bike-1"); bike.Status != domain.BikeStatusInUse {
		t.Errorf("expected bike IN_USE after race, got %s", bike.Status)
	}

	// Exactly one ride row exists after the race.
	if got := f.rides.CountRides(); got != 1 {
		t.Errorf("expected 1 ride, got %d", got)
	}
}

func TestStartRide_SameRiderConcurrentStarts_SerializedByLock(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addAvailableBike("bike-1")
	f.addAvailableBike("bike-2")
	f.wallets.SetBalance("rider-1", 50.0)

	var wg sync.WaitGroup
	results := make([]error, 2)
	bikes := []string{"bike-1", "bike-2"}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.StartRide(context.Background(), service.StartRideRequest{
				RiderID:  "rider-1",
				BikeID:   bikes[i],
				StartLat: 52.52,
				StartLng: 13.40,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrRideBusy), errors.Is(err, service.ErrRideAlreadyActive):
			// Either the lock blocked the duplicate or the active-ride
			// check caught it after the first committed.
		default:
			t.Errorf("attempt %d: unexpected error: %v", i, err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly 1 active ride for the rider, got %d", successes)
	}
}

func TestEndRide_ConcurrentEndsSettleOnce(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now().Add(-10*time.Minute))
	f.wallets.SetBalance("rider-1", 50.0)

	const attempts = 4
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.EndRide(context.Background(), service.EndRideRequest{
				RideID: "ride-1",
				EndLat: 52.53,
				EndLng: 13.41,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrRideNotActive), errors.Is(err, service.ErrRideBusy):
			// Already settled by the winner, or blocked by the lock.
		default:
			t.Errorf("attempt %d: unexpected error: %v", i, err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful settlement, got %d", successes)
	}
	// The rider was charged exactly once: 10 min * 0.5 + 1.0 = 6.0.
	if got := f.wallets.Balance("rider-1"); got != 44.0 {
		t.Errorf("expected balance 44.0 after single charge, got %f", got)
	}
	if got := f.wallets.CountTransactions("rider-1"); got != 1 {
		t.Errorf("expected 1 ledger entry, got %d", got)
	}
}

func riderID(i int) string {
	return "rider-" + string(rune('a'+i))
}
