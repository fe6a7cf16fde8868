package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/service"
)

// rideFixture wires a RideService against the full mock stack.
type rideFixture struct {
	rides   *MockRideRepository
	bikes   *MockBikeRepository
	wallets *MockWalletRepository
	pricing *MockPricingRepository
	uow     *MockUnitOfWork
	locks   *MockLockStore
	traces  *MockTraceStore
	svc     *service.RideService
}

func newRideFixture(resolver service.PricingResolverInterface, fare service.FareConfig) *rideFixture {
	f := &rideFixture{
		rides:   NewMockRideRepository(),
		bikes:   NewMockBikeRepository(),
		wallets: NewMockWalletRepository(),
		pricing: NewMockPricingRepository(),
		locks:   NewMockLockStore(),
		traces:  NewMockTraceStore(),
	}
	f.uow = NewMockUnitOfWork(f.rides, f.bikes, f.wallets, f.pricing)
	f.svc = service.NewRideService(
		f.uow,
		f.rides,
		f.bikes,
		f.wallets,
		resolver,
		f.traces,
		f.locks,
		service.NewNotificationService(),
		fare,
	)
	return f
}

func (f *rideFixture) addAvailableBike(id string) {
	f.bikes.AddBike(&domain.Bike{
		ID:           id,
		Label:        "bike " + id,
		Status:       domain.BikeStatusAvailable,
		BatteryLevel: 90,
	})
}

func (f *rideFixture) addActiveRide(id, riderID, bikeID string, startedAt time.Time) {
	f.rides.AddRide(&domain.Ride{
		ID:        id,
		RiderID:   riderID,
		BikeID:    bikeID,
		StartLat:  52.5200,
		StartLng:  13.4050,
		Status:    domain.RideStatusInProgress,
		StartedAt: startedAt,
	})
	f.bikes.AddBike(&domain.Bike{
		ID:           bikeID,
		Status:       domain.BikeStatusInUse,
		BatteryLevel: 80,
	})
}

// ──────────────────────────────────────────────
// START RIDE
// ──────────────────────────────────────────────

func TestStartRide_HappyPath(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addAvailableBike("bike-1")
	f.wallets.SetBalance("rider-1", 10.0)

	ride, err := f.svc.StartRide(context.Background(), service.StartRideRequest{
		RiderID:  "rider-1",
		BikeID:   "bike-1",
		StartLat: 52.5200,
		StartLng: 13.4050,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Status != domain.RideStatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", ride.Status)
	}
	if bike := f.bikes.GetBike("bike-1"); bike.Status != domain.BikeStatusInUse {
		t.Errorf("expected bike IN_USE, got %s", bike.Status)
	}
	// Starting a ride must not move money.
	if got := f.wallets.Balance("rider-1"); got != 10.0 {
		t.Errorf("balance changed at ride start: %f", got)
	}
	if f.locks.IsLocked("rider-1") {
		t.Error("rider lock not released after start")
	}
}

func TestStartRide_SecondActiveRideRejected(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now())
	f.addAvailableBike("bike-2")
	f.wallets.SetBalance("rider-1", 50.0)

	_, err := f.svc.StartRide(context.Background(), service.StartRideRequest{
		RiderID:  "rider-1",
		BikeID:   "bike-2",
		StartLat: 52.52,
		StartLng: 13.40,
	})
	if !errors.Is(err, service.ErrRideAlreadyActive) {
		t.Errorf("expected ErrRideAlreadyActive, got %v", err)
	}
	// The second bike must remain available.
	if bike := f.bikes.GetBike("bike-2"); bike.Status != domain.BikeStatusAvailable {
		t.Errorf("bike-2 status changed: %s", bike.Status)
	}
}

func TestStartRide_BikeNotAvailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status domain.BikeStatus
	}{
		{name: "bike in use", status: domain.BikeStatusInUse},
		{name: "bike in maintenance", status: domain.BikeStatusMaintenance},
		{name: "bike unavailable", status: domain.BikeStatusUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newRideFixture(nil, service.DefaultFareConfig())
			f.bikes.AddBike(&domain.Bike{ID: "bike-1", Status: tt.status, BatteryLevel: 90})
			f.wallets.SetBalance("rider-1", 50.0)

			_, err := f.svc.StartRide(context.Background(), service.StartRideRequest{
				RiderID:  "rider-1",
				BikeID:   "bike-1",
				StartLat: 52.52,
				StartLng: 13.40,
			})
			if !errors.Is(err, service.ErrBikeUnavailable) {
				t.Errorf("expected ErrBikeUnavailable, got %v", err)
			}
		})
	}
}

func TestStartRide_BelowMinimumBalance(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addAvailableBike("bike-1")
	f.wallets.SetBalance("rider-1", 4.99)

	_, err := f.svc.StartRide(context.Background(), service.StartRideRequest{
		RiderID:  "rider-1",
		BikeID:   "bike-1",
		StartLat: 52.52,
		StartLng: 13.40,
	})
	if !errors.Is(err, service.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if f.rides.CountRides() != 0 {
		t.Error("ride created despite insufficient balance")
	}
}

func TestStartRide_UnknownBike(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.wallets.SetBalance("rider-1", 50.0)

	_, err := f.svc.StartRide(context.Background(), service.StartRideRequest{
		RiderID:  "rider-1",
		BikeID:   "bike-missing",
		StartLat: 52.52,
		StartLng: 13.40,
	})
	if !errors.Is(err, service.ErrBikeNotFound) {
		t.Errorf("expected ErrBikeNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────
// END RIDE: SETTLEMENT
// ──────────────────────────────────────────────

func TestEndRide_InsufficientFundsThenTopUpAndRetry(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	// 20 minutes at 0.5/min plus the 1.0 unlock fee costs 11.0; the
	// rider only has 10.0.
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now().Add(-20*time.Minute))
	f.wallets.SetBalance("rider-1", 10.0)

	req := service.EndRideRequest{RideID: "ride-1", EndLat: 52.53, EndLng: 13.41}

	_, err := f.svc.EndRide(context.Background(), req)
	if !errors.Is(err, service.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// The failed attempt must leave everything untouched: the ride stays
	// active, the bike stays claimed and no money moved.
	if ride := f.rides.GetRide("ride-1"); ride.Status != domain.RideStatusInProgress {
		t.Errorf("ride left in %s after failed settlement", ride.Status)
	}
	if bike := f.bikes.GetBike("bike-1"); bike.Status != domain.BikeStatusInUse {
		t.Errorf("bike released after failed settlement: %s", bike.Status)
	}
	if got := f.wallets.Balance("rider-1"); got != 10.0 {
		t.Errorf("balance changed after failed settlement: %f", got)
	}
	if f.wallets.CountTransactions("rider-1") != 0 {
		t.Error("ledger entry written for failed settlement")
	}

	// Top up and retry the same end request.
	if _, err := f.wallets.Credit(context.Background(), "rider-1", 5.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ride, err := f.svc.EndRide(context.Background(), req)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", ride.Status)
	}
	if ride.Cost != 11.0 {
		t.Errorf("expected cost 11.0, got %f", ride.Cost)
	}
	if got := f.wallets.Balance("rider-1"); got != 4.0 {
		t.Errorf("expected balance 4.0, got %f", got)
	}
	if bike := f.bikes.GetBike("bike-1"); bike.Status != domain.BikeStatusAvailable {
		t.Errorf("expected bike released, got %s", bike.Status)
	}
	if f.wallets.CountTransactions("rider-1") != 1 {
		t.Errorf("expected exactly 1 ledger entry, got %d", f.wallets.CountTransactions("rider-1"))
	}

	txs, _ := f.wallets.GetTransactions(context.Background(), "rider-1")
	if txs[0].Type != domain.TransactionTypeRidePayment {
		t.Errorf("expected RIDE_PAYMENT, got %s", txs[0].Type)
	}
	if txs[0].Metadata["ride_id"] != "ride-1" {
		t.Errorf("ledger entry missing ride reference: %v", txs[0].Metadata)
	}
}

func TestEndRide_SettlementIsAtomic(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now().Add(-10*time.Minute))
	f.wallets.SetBalance("rider-1", 50.0)

	// The ledger append fails mid-transaction; everything already done in
	// the same unit of work must roll back.
	f.wallets.CreateTransactionError = ErrMockDBConstraint

	_, err := f.svc.EndRide(context.Background(), service.EndRideRequest{
		RideID: "ride-1",
		EndLat: 52.53,
		EndLng: 13.41,
	})
	if !errors.Is(err, ErrMockDBConstraint) {
		t.Fatalf("expected injected error, got %v", err)
	}

	if ride := f.rides.GetRide("ride-1"); ride.Status != domain.RideStatusInProgress {
		t.Errorf("ride not rolled back: %s", ride.Status)
	}
	if got := f.wallets.Balance("rider-1"); got != 50.0 {
		t.Errorf("debit not rolled back: %f", got)
	}
	if bike := f.bikes.GetBike("bike-1"); bike.Status != domain.BikeStatusInUse {
		t.Errorf("bike release not rolled back: %s", bike.Status)
	}
	if f.uow.RollbackCallCount != 1 {
		t.Errorf("expected 1 rollback, got %d", f.uow.RollbackCallCount)
	}

	// Same for a failing bike release.
	f.wallets.CreateTransactionError = nil
	f.bikes.UpdateStatusError = ErrMockTimeout

	_, err = f.svc.EndRide(context.Background(), service.EndRideRequest{
		RideID: "ride-1",
		EndLat: 52.53,
		EndLng: 13.41,
	})
	if !errors.Is(err, ErrMockTimeout) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if got := f.wallets.Balance("rider-1"); got != 50.0 {
		t.Errorf("debit not rolled back: %f", got)
	}
	if f.wallets.CountTransactions("rider-1") != 0 {
		t.Error("ledger entry survived rollback")
	}
}

func TestEndRide_UsesTraceDistanceWhenPlausible(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	started := time.Now().Add(-15 * time.Minute)
	f.addActiveRide("ride-1", "rider-1", "bike-1", started)
	f.wallets.SetBalance("rider-1", 50.0)

	// Straight line start (52.5200, 13.4050) -> end (52.5305, 13.3846) is
	// about 1.8 km; the trace detours through an extra point for roughly
	// 2.6 km, which is inside the adoption window.
	f.traces.SetTrace("bike-1", []redis.TracePoint{
		{Lat: 52.5200, Lng: 13.4050, Timestamp: started.Add(time.Minute)},
		{Lat: 52.5180, Lng: 13.3950, Timestamp: started.Add(5 * time.Minute)},
		{Lat: 52.5305, Lng: 13.3846, Timestamp: started.Add(14 * time.Minute)},
	})

	ride, err := f.svc.EndRide(context.Background(), service.EndRideRequest{
		RideID: "ride-1",
		EndLat: 52.5305,
		EndLng: 13.3846,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	straight := service.Haversine(52.5200, 13.4050, 52.5305, 13.3846)
	if ride.DistanceKm <= straight {
		t.Errorf("expected traced distance above straight line %.3f, got %.3f", straight, ride.DistanceKm)
	}
	if ride.DistanceKm >= straight*3 {
		t.Errorf("adopted distance %.3f outside plausibility window", ride.DistanceKm)
	}
}

func TestEndRide_TraceFetchFailureFallsBackToStraightLine(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now().Add(-15*time.Minute))
	f.wallets.SetBalance("rider-1", 50.0)
	f.traces.GetTraceError = ErrMockTimeout

	ride, err := f.svc.EndRide(context.Background(), service.EndRideRequest{
		RideID: "ride-1",
		EndLat: 52.5305,
		EndLng: 13.3846,
	})
	if err != nil {
		t.Fatalf("trace failure must not fail the ride: %v", err)
	}

	straight := service.Haversine(52.5200, 13.4050, 52.5305, 13.3846)
	if diff := ride.DistanceKm - straight; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected straight-line %.4f, got %.4f", straight, ride.DistanceKm)
	}
}

func TestEndRide_NotActiveOrMissing(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.rides.AddRide(&domain.Ride{
		ID:        "ride-done",
		RiderID:   "rider-1",
		BikeID:    "bike-1",
		Status:    domain.RideStatusCompleted,
		StartedAt: time.Now().Add(-time.Hour),
		EndedAt:   time.Now().Add(-30 * time.Minute),
	})

	_, err := f.svc.EndRide(context.Background(), service.EndRideRequest{RideID: "ride-done", EndLat: 1, EndLng: 1})
	if !errors.Is(err, service.ErrRideNotActive) {
		t.Errorf("expected ErrRideNotActive, got %v", err)
	}

	_, err = f.svc.EndRide(context.Background(), service.EndRideRequest{RideID: "ride-missing", EndLat: 1, EndLng: 1})
	if !errors.Is(err, service.ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────
// DYNAMIC FARE
// ──────────────────────────────────────────────

// stubResolver returns a fixed snapshot for dynamic fare tests.
type stubResolver struct {
	snapshot *service.PricingSnapshot
	err      error
}

func (s *stubResolver) Resolve(ctx context.Context, targetDate time.Time, targetHour int) (*service.PricingSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func TestEndRide_DynamicFareRedeemsPromotions(t *testing.T) {
	t.Parallel()

	// Billing plan at 120/hour -> 2.0 per minute, with one promotion
	// already folded into the rate.
	resolver := &stubResolver{snapshot: &service.PricingSnapshot{
		ConfigID:   "cfg-1",
		Multiplier: 1.0,
		Plans: []service.PlanQuote{{
			PlanID:     "plan-basic",
			PlanName:   "Basic",
			HourlyRate: 120,
			Promotions: []service.AppliedPromotion{{PromotionID: "promo-1", Name: "10 percent off"}},
		}},
	}}

	fare := service.DefaultFareConfig()
	fare.Source = service.FareSourceDynamic

	f := newRideFixture(resolver, fare)
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now().Add(-20*time.Minute))
	f.wallets.SetBalance("rider-1", 100.0)
	f.pricing.SetActiveConfig(&domain.PricingConfig{
		ID: "cfg-1",
		Promotions: []*domain.Promotion{
			{ID: "promo-1", ConfigID: "cfg-1", Name: "10 percent off", Active: true},
		},
	})

	ride, err := f.svc.EndRide(context.Background(), service.EndRideRequest{
		RideID: "ride-1",
		EndLat: 52.53,
		EndLng: 13.41,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 20 min * 2.0/min + 1.0 unlock fee.
	if ride.Cost != 41.0 {
		t.Errorf("expected cost 41.0, got %f", ride.Cost)
	}
	// Redemption happens inside the settlement, exactly once.
	if got := f.pricing.PromotionUsage("promo-1"); got != 1 {
		t.Errorf("expected promotion usage 1, got %d", got)
	}
}

// ──────────────────────────────────────────────
// CANCEL RIDE
// ──────────────────────────────────────────────

func TestCancelRide_ReleasesBikeWithoutCharge(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now().Add(-5*time.Minute))
	f.wallets.SetBalance("rider-1", 10.0)

	ride, err := f.svc.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:  "ride-1",
		RiderID: "rider-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", ride.Status)
	}
	if ride.Cost != 0 {
		t.Errorf("cancellation must be free, got cost %f", ride.Cost)
	}
	if bike := f.bikes.GetBike("bike-1"); bike.Status != domain.BikeStatusAvailable {
		t.Errorf("expected bike released, got %s", bike.Status)
	}
	if got := f.wallets.Balance("rider-1"); got != 10.0 {
		t.Errorf("balance changed on cancel: %f", got)
	}
	if f.wallets.CountTransactions("rider-1") != 0 {
		t.Error("ledger entry written for cancellation")
	}
}

func TestCancelRide_OnlyOwnerMayCancel(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.addActiveRide("ride-1", "rider-1", "bike-1", time.Now())

	_, err := f.svc.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:  "ride-1",
		RiderID: "rider-2",
	})
	if !errors.Is(err, service.ErrRideNotOwned) {
		t.Errorf("expected ErrRideNotOwned, got %v", err)
	}
	if ride := f.rides.GetRide("ride-1"); ride.Status != domain.RideStatusInProgress {
		t.Errorf("ride mutated by non-owner: %s", ride.Status)
	}
}

func TestCancelRide_CompletedRideCannotBeCancelled(t *testing.T) {
	t.Parallel()

	f := newRideFixture(nil, service.DefaultFareConfig())
	f.rides.AddRide(&domain.Ride{
		ID:        "ride-1",
		RiderID:   "rider-1",
		BikeID:    "bike-1",
		Status:    domain.RideStatusCompleted,
		StartedAt: time.Now().Add(-time.Hour),
		EndedAt:   time.Now(),
	})

	_, err := f.svc.CancelRide(context.Background(), service.CancelRideRequest{
		RideID:  "ride-1",
		RiderID: "rider-1",
	})
	if !errors.Is(err, service.ErrRideNotActive) {
		t.Errorf("expected ErrRideNotActive, got %v", err)
	}
}
