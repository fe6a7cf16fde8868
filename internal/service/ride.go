package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/repository"
)

// riderLockTTL bounds how long a ride operation may hold the per-rider lock.
const riderLockTTL = 15 * time.Second

// lowBalanceThreshold triggers a best-effort warning after settlement.
const lowBalanceThreshold = 5.0

// FareSource selects how ride cost is computed.
type FareSource string

const (
	// FareSourceFlat charges the fixed per-minute rate plus unlock fee.
	FareSourceFlat FareSource = "flat"
	// FareSourceDynamic derives the per-minute rate from the pricing
	// engine's billing plan.
	FareSourceDynamic FareSource = "dynamic"
)

// RateTime selects which instant dynamic fares resolve rates at.
type RateTime string

const (
	RateTimeStart RateTime = "start"
	RateTimeEnd   RateTime = "end"
)

// FareConfig contains the fare computation knobs.
type FareConfig struct {
	MinStartBalance float64    // Minimum balance to unlock a bike
	PerMinuteRate   float64    // Flat-mode per-minute rate
	UnlockFee       float64    // Fixed fee added to every ride
	Source          FareSource // flat or dynamic
	RateTime        RateTime   // Instant dynamic rates resolve at
}

// DefaultFareConfig returns the reference fare model: 0.5 per minute plus
// a 1.0 unlock fee, with a 5.0 minimum balance to start.
func DefaultFareConfig() FareConfig {
	return FareConfig{
		MinStartBalance: 5.0,
		PerMinuteRate:   0.5,
		UnlockFee:       1.0,
		Source:          FareSourceFlat,
		RateTime:        RateTimeStart,
	}
}

// RideService drives the ride lifecycle state machine:
// IN_PROGRESS -> COMPLETED | CANCELLED, both terminal. Start, end and
// cancel for one rider are serialized through a distributed lock, and the
// settlement in EndRide commits through a single unit of work.
type RideService struct {
	uow        repository.UnitOfWork
	rideRepo   repository.RideRepository
	bikeRepo   repository.BikeRepository
	walletRepo repository.WalletRepository
	pricing    PricingResolverInterface
	traces     redis.TraceStoreInterface
	locks      redis.LockStoreInterface
	notifier   *NotificationService
	fare       FareConfig
}

// NewRideService creates a new RideService. pricing, traces, locks and
// notifier may be nil; missing collaborators degrade the corresponding
// feature rather than failing rides.
func NewRideService(
	uow repository.UnitOfWork,
	rideRepo repository.RideRepository,
	bikeRepo repository.BikeRepository,
	walletRepo repository.WalletRepository,
	pricing PricingResolverInterface,
	traces redis.TraceStoreInterface,
	locks redis.LockStoreInterface,
	notifier *NotificationService,
	fare FareConfig,
) *RideService {
	return &RideService{
		uow:        uow,
		rideRepo:   rideRepo,
		bikeRepo:   bikeRepo,
		walletRepo: walletRepo,
		pricing:    pricing,
		traces:     traces,
		locks:      locks,
		notifier:   notifier,
		fare:       fare,
	}
}

// StartRideRequest contains the parameters for starting a ride.
type StartRideRequest struct {
	RiderID  string
	BikeID   string
	StartLat float64
	StartLng float64
}

// StartRide unlocks a bike for a rider. The ride row and the bike's
// AVAILABLE -> IN_USE transition commit in one unit of work; the bike-side
// conditional update guarantees two concurrent starts on the same bike
// cannot both succeed.
func (s *RideService) StartRide(ctx context.Context, req StartRideRequest) (*domain.Ride, error) {
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if req.BikeID == "" {
		return nil, ErrInvalidBikeID
	}
	if !isValidLatitude(req.StartLat) || !isValidLongitude(req.StartLng) {
		return nil, ErrInvalidLocation
	}

	unlock, err := s.lockRider(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// One active ride per rider.
	active, err := s.rideRepo.GetActiveByRiderID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrRideAlreadyActive
	}

	bike, err := s.bikeRepo.GetByID(ctx, req.BikeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBikeNotFound
		}
		return nil, err
	}
	if !bike.RideEligible() {
		return nil, ErrBikeUnavailable
	}

	// Ride-eligibility solvency check.
	if err := s.walletRepo.EnsureWallet(ctx, req.RiderID); err != nil {
		return nil, err
	}
	wallet, err := s.walletRepo.GetByRiderID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < s.fare.MinStartBalance {
		return nil, ErrInsufficientBalance
	}

	ride := &domain.Ride{
		ID:        uuid.New().String(),
		RiderID:   req.RiderID,
		BikeID:    req.BikeID,
		StartLat:  req.StartLat,
		StartLng:  req.StartLng,
		Status:    domain.RideStatusInProgress,
		StartedAt: time.Now(),
	}

	err = s.uow.Do(ctx, func(r repository.Repositories) error {
		if err := r.Rides.Create(ctx, ride); err != nil {
			return err
		}
		if err := r.Bikes.UpdateStatus(ctx, req.BikeID, domain.BikeStatusAvailable, domain.BikeStatusInUse); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrBikeUnavailable
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyRideStarted(ctx, ride)
	}

	return ride, nil
}

// EndRideRequest contains the parameters for ending a ride.
type EndRideRequest struct {
	RideID string
	EndLat float64
	EndLng float64
}

// EndRide settles an IN_PROGRESS ride: computes duration, distance and
// cost, then commits the ride completion, wallet debit, ledger append and
// bike release in one unit of work. An insufficient balance leaves the ride
// IN_PROGRESS so the call can be retried after a top-up.
func (s *RideService) EndRide(ctx context.Context, req EndRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if !isValidLatitude(req.EndLat) || !isValidLongitude(req.EndLng) {
		return nil, ErrInvalidLocation
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if !ride.Active() {
		return nil, ErrRideNotActive
	}

	unlock, err := s.lockRider(ctx, ride.RiderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	endedAt := time.Now()
	duration, err := TripDuration(ride.StartedAt, endedAt)
	if err != nil {
		return nil, err
	}

	distance := Haversine(ride.StartLat, ride.StartLng, req.EndLat, req.EndLng)
	if s.traces != nil {
		// Trace fetch failures degrade to the straight-line distance.
		if trace, err := s.traces.GetTrace(ctx, ride.BikeID, ride.StartedAt, endedAt); err == nil {
			distance = ReconcileDistance(distance, trace)
		}
	}

	cost, redeemed, err := s.computeFare(ctx, ride, endedAt, duration)
	if err != nil {
		return nil, err
	}

	// Pre-flight solvency check for a typed error before opening the
	// transaction; the debit inside re-checks atomically.
	wallet, err := s.walletRepo.GetByRiderID(ctx, ride.RiderID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < cost {
		return nil, ErrInsufficientBalance
	}

	ride.EndLat = req.EndLat
	ride.EndLng = req.EndLng
	ride.DistanceKm = distance
	ride.DurationMin = duration
	ride.Cost = cost
	ride.EndedAt = endedAt

	var newBalance float64
	err = s.uow.Do(ctx, func(r repository.Repositories) error {
		if err := r.Rides.Complete(ctx, ride); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrRideNotActive
			}
			return err
		}

		newBalance, err = r.Wallets.Debit(ctx, ride.RiderID, cost)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return ErrInsufficientBalance
			}
			return err
		}

		if err := r.Wallets.CreateTransaction(ctx, &domain.Transaction{
			ID:      uuid.New().String(),
			RiderID: ride.RiderID,
			Type:    domain.TransactionTypeRidePayment,
			Amount:  cost,
			Status:  domain.TransactionStatusCompleted,
			Metadata: map[string]string{
				"ride_id":      ride.ID,
				"duration_min": fmt.Sprintf("%d", duration),
				"distance_km":  fmt.Sprintf("%.3f", distance),
			},
			CreatedAt: endedAt,
		}); err != nil {
			return err
		}

		if err := r.Bikes.UpdateStatus(ctx, ride.BikeID, domain.BikeStatusInUse, domain.BikeStatusAvailable); err != nil {
			return err
		}
		if err := r.Bikes.UpdateLocation(ctx, ride.BikeID, req.EndLat, req.EndLng); err != nil {
			return err
		}

		// A dynamic fare that used promotions redeems them here, inside
		// the settlement transaction.
		for _, promoID := range redeemed {
			if err := r.Pricing.IncrementPromotionUsage(ctx, promoID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Restore in-memory state; persistent state was rolled back.
		ride.Status = domain.RideStatusInProgress
		ride.EndedAt = time.Time{}
		return nil, err
	}
	ride.Status = domain.RideStatusCompleted

	if s.notifier != nil {
		_ = s.notifier.NotifyRideCompleted(ctx, ride, newBalance)
		if newBalance < lowBalanceThreshold {
			_ = s.notifier.NotifyLowBalance(ctx, ride.RiderID, newBalance)
		}
	}

	return ride, nil
}

// CancelRideRequest contains the parameters for cancelling a ride.
type CancelRideRequest struct {
	RideID  string
	RiderID string
}

// CancelRide cancels the rider's own IN_PROGRESS ride: no cost, no wallet
// movement, bike released.
func (s *RideService) CancelRide(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if ride.RiderID != req.RiderID {
		return nil, ErrRideNotOwned
	}
	if !ride.Active() {
		return nil, ErrRideNotActive
	}

	unlock, err := s.lockRider(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	endedAt := time.Now()
	err = s.uow.Do(ctx, func(r repository.Repositories) error {
		if err := r.Rides.Cancel(ctx, ride.ID, endedAt); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrRideNotActive
			}
			return err
		}
		return r.Bikes.UpdateStatus(ctx, ride.BikeID, domain.BikeStatusInUse, domain.BikeStatusAvailable)
	})
	if err != nil {
		return nil, err
	}

	ride.Status = domain.RideStatusCancelled
	ride.EndedAt = endedAt

	if s.notifier != nil {
		_ = s.notifier.NotifyRideCancelled(ctx, ride)
	}

	return ride, nil
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}

// ListRides retrieves all rides.
func (s *RideService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.GetAll(ctx)
}

// RiderRides retrieves a rider's ride history, newest first.
func (s *RideService) RiderRides(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.rideRepo.GetByRiderID(ctx, riderID)
}

// computeFare returns the ride cost and, for dynamic fares, the promotion
// IDs to redeem during settlement.
func (s *RideService) computeFare(ctx context.Context, ride *domain.Ride, endedAt time.Time, durationMin int) (float64, []string, error) {
	if s.fare.Source != FareSourceDynamic || s.pricing == nil {
		return round2(s.fare.PerMinuteRate*float64(durationMin) + s.fare.UnlockFee), nil, nil
	}

	at := ride.StartedAt
	if s.fare.RateTime == RateTimeEnd {
		at = endedAt
	}

	snapshot, err := s.pricing.Resolve(ctx, at, at.Hour())
	if err != nil {
		return 0, nil, err
	}
	if len(snapshot.Plans) == 0 {
		return 0, nil, ErrNoPricingConfig
	}

	// The billing plan is the config's first plan by display order.
	plan := snapshot.Plans[0]
	perMinute := float64(plan.HourlyRate) / 60

	redeemed := make([]string, 0, len(plan.Promotions))
	for _, promo := range plan.Promotions {
		redeemed = append(redeemed, promo.PromotionID)
	}

	return round2(perMinute*float64(durationMin) + s.fare.UnlockFee), redeemed, nil
}

// lockRider serializes ride operations per rider. Without a lock store the
// database-level guards still hold; the lock only narrows the window for
// duplicate submissions.
func (s *RideService) lockRider(ctx context.Context, riderID string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	ok, err := s.locks.AcquireRiderLock(ctx, riderID, riderLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRideBusy
	}

	return func() {
		_ = s.locks.ReleaseRiderLock(context.WithoutCancel(ctx), riderID)
	}, nil
}
