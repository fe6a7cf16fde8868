package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount   int32
	CompleteCallCount int32
	CancelCallCount   int32

	// Error injection
	CreateError   error
	CompleteError error
	CancelError   error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.RiderID == riderID && r.Status == domain.RideStatusInProgress {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil // No active ride
}

func (m *MockRideRepository) GetByRiderID(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.RiderID == riderID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRideRepository) Complete(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CompleteCallCount, 1)
	if m.CompleteError != nil {
		return m.CompleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rides[ride.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != domain.RideStatusInProgress {
		return repository.ErrConflict
	}
	updated := *ride
	updated.Status = domain.RideStatusCompleted
	m.rides[ride.ID] = &updated
	return nil
}

func (m *MockRideRepository) Cancel(ctx context.Context, id string, endedAt time.Time) error {
	atomic.AddInt32(&m.CancelCallCount, 1)
	if m.CancelError != nil {
		return m.CancelError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != domain.RideStatusInProgress {
		return repository.ErrConflict
	}
	existing.Status = domain.RideStatusCancelled
	existing.EndedAt = endedAt
	return nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

func (m *MockRideRepository) snapshot() map[string]*domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Ride, len(m.rides))
	for id, r := range m.rides {
		copy := *r
		snap[id] = &copy
	}
	return snap
}

func (m *MockRideRepository) restore(snap map[string]*domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = snap
}

// ──────────────────────────────────────────────
// MOCK BIKE REPOSITORY
// ──────────────────────────────────────────────

// MockBikeRepository is a mock implementation of BikeRepository.
type MockBikeRepository struct {
	mu    sync.RWMutex
	bikes map[string]*domain.Bike

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError         error
	UpdateStatusError   error
	UpdateLocationError error
}

// NewMockBikeRepository creates a new mock bike repository.
func NewMockBikeRepository() *MockBikeRepository {
	return &MockBikeRepository{
		bikes: make(map[string]*domain.Bike),
	}
}

// AddBike adds a bike to the mock repository.
func (m *MockBikeRepository) AddBike(bike *domain.Bike) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bikes[bike.ID] = bike
}

func (m *MockBikeRepository) Create(ctx context.Context, bike *domain.Bike) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *bike
	m.bikes[bike.ID] = &copy
	return nil
}

func (m *MockBikeRepository) GetByID(ctx context.Context, id string) (*domain.Bike, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bike, ok := m.bikes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *bike
	return &copy, nil
}

func (m *MockBikeRepository) GetAll(ctx context.Context) ([]*domain.Bike, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Bike, 0, len(m.bikes))
	for _, b := range m.bikes {
		copy := *b
		result = append(result, &copy)
	}
	return result, nil
}

// UpdateStatus mirrors the conditional UPDATE of the real repository: the
// transition only succeeds when the bike is still in the expected status.
func (m *MockBikeRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BikeStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bike, ok := m.bikes[id]
	if !ok {
		return repository.ErrNotFound
	}
	if bike.Status != from {
		return repository.ErrConflict
	}
	bike.Status = to
	return nil
}

func (m *MockBikeRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bike, ok := m.bikes[id]
	if !ok {
		return repository.ErrNotFound
	}
	bike.Lat = lat
	bike.Lng = lng
	return nil
}

func (m *MockBikeRepository) UpdateTelemetry(ctx context.Context, id string, lat, lng float64, battery int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bike, ok := m.bikes[id]
	if !ok {
		return repository.ErrNotFound
	}
	bike.Lat = lat
	bike.Lng = lng
	bike.BatteryLevel = battery
	return nil
}

// GetBike returns the bike by ID (for test assertions).
func (m *MockBikeRepository) GetBike(id string) *domain.Bike {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bikes[id]
}

func (m *MockBikeRepository) snapshot() map[string]*domain.Bike {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Bike, len(m.bikes))
	for id, b := range m.bikes {
		copy := *b
		snap[id] = &copy
	}
	return snap
}

func (m *MockBikeRepository) restore(snap map[string]*domain.Bike) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bikes = snap
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu           sync.RWMutex
	wallets      map[string]*domain.Wallet
	transactions []*domain.Transaction

	// Counters for verification
	DebitCallCount             int32
	CreditCallCount            int32
	CreateTransactionCallCount int32

	// Error injection
	DebitError             error
	CreditError            error
	CreateTransactionError error
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

// SetBalance sets a rider's wallet balance (for test setup).
func (m *MockWalletRepository) SetBalance(riderID string, balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[riderID] = &domain.Wallet{RiderID: riderID, Balance: balance, UpdatedAt: time.Now()}
}

func (m *MockWalletRepository) EnsureWallet(ctx context.Context, riderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[riderID]; !ok {
		m.wallets[riderID] = &domain.Wallet{RiderID: riderID, UpdatedAt: time.Now()}
	}
	return nil
}

func (m *MockWalletRepository) GetByRiderID(ctx context.Context, riderID string) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallet, ok := m.wallets[riderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *wallet
	return &copy, nil
}

// Debit mirrors the real repository's guarded update: the balance never
// goes negative and is never partially applied.
func (m *MockWalletRepository) Debit(ctx context.Context, riderID string, amount float64) (float64, error) {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return 0, m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[riderID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if wallet.Balance < amount {
		return 0, repository.ErrInsufficientFunds
	}
	wallet.Balance -= amount
	wallet.UpdatedAt = time.Now()
	return wallet.Balance, nil
}

func (m *MockWalletRepository) Credit(ctx context.Context, riderID string, amount float64) (float64, error) {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return 0, m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[riderID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	wallet.Balance += amount
	wallet.UpdatedAt = time.Now()
	return wallet.Balance, nil
}

func (m *MockWalletRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	atomic.AddInt32(&m.CreateTransactionCallCount, 1)
	if m.CreateTransactionError != nil {
		return m.CreateTransactionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *tx
	m.transactions = append(m.transactions, &copy)
	return nil
}

func (m *MockWalletRepository) GetTransactions(ctx context.Context, riderID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0)
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].RiderID == riderID {
			copy := *m.transactions[i]
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockWalletRepository) SumCompleted(ctx context.Context, riderID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum float64
	for _, tx := range m.transactions {
		if tx.RiderID == riderID && tx.Status == domain.TransactionStatusCompleted {
			sum += tx.SignedAmount()
		}
	}
	return sum, nil
}

// Balance returns a rider's balance (for test assertions).
func (m *MockWalletRepository) Balance(riderID string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallet, ok := m.wallets[riderID]
	if !ok {
		return 0
	}
	return wallet.Balance
}

// CountTransactions returns the number of ledger entries for a rider.
func (m *MockWalletRepository) CountTransactions(riderID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, tx := range m.transactions {
		if tx.RiderID == riderID {
			count++
		}
	}
	return count
}

type walletSnapshot struct {
	wallets      map[string]*domain.Wallet
	transactions []*domain.Transaction
}

func (m *MockWalletRepository) snapshot() walletSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := walletSnapshot{
		wallets:      make(map[string]*domain.Wallet, len(m.wallets)),
		transactions: make([]*domain.Transaction, len(m.transactions)),
	}
	for id, w := range m.wallets {
		copy := *w
		snap.wallets[id] = &copy
	}
	for i, tx := range m.transactions {
		copy := *tx
		snap.transactions[i] = &copy
	}
	return snap
}

func (m *MockWalletRepository) restore(snap walletSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets = snap.wallets
	m.transactions = snap.transactions
}

// ──────────────────────────────────────────────
// MOCK PRICING REPOSITORY
// ──────────────────────────────────────────────

// MockPricingRepository is a mock implementation of PricingRepository.
type MockPricingRepository struct {
	mu       sync.RWMutex
	configs  map[string]*domain.PricingConfig
	activeID string

	// Counters for verification
	GetActiveConfigCallCount int32
	IncrementUsageCallCount  int32

	// Error injection
	GetActiveConfigError error
	IncrementUsageError  error
	// CreateConfigError is returned after the config has been stored,
	// simulating a failure partway through the multi-row insert.
	CreateConfigError error
}

// NewMockPricingRepository creates a new mock pricing repository.
func NewMockPricingRepository() *MockPricingRepository {
	return &MockPricingRepository{
		configs: make(map[string]*domain.PricingConfig),
	}
}

// SetActiveConfig installs a config as the active one.
func (m *MockPricingRepository) SetActiveConfig(cfg *domain.PricingConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.Active = true
	m.configs[cfg.ID] = cfg
	m.activeID = cfg.ID
}

func (m *MockPricingRepository) GetActiveConfig(ctx context.Context) (*domain.PricingConfig, error) {
	atomic.AddInt32(&m.GetActiveConfigCallCount, 1)
	if m.GetActiveConfigError != nil {
		return nil, m.GetActiveConfigError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[m.activeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cfg, nil
}

func (m *MockPricingRepository) GetConfig(ctx context.Context, id string) (*domain.PricingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cfg, nil
}

func (m *MockPricingRepository) CreateConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = cfg
	if m.CreateConfigError != nil {
		return m.CreateConfigError
	}
	return nil
}

func (m *MockPricingRepository) ActivateConfig(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if prev, ok := m.configs[m.activeID]; ok {
		prev.Active = false
	}
	cfg.Active = true
	m.activeID = id
	return nil
}

func (m *MockPricingRepository) IncrementPromotionUsage(ctx context.Context, promotionID string) error {
	atomic.AddInt32(&m.IncrementUsageCallCount, 1)
	if m.IncrementUsageError != nil {
		return m.IncrementUsageError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cfg := range m.configs {
		for _, promo := range cfg.Promotions {
			if promo.ID == promotionID {
				promo.UsageCount++
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

// PromotionUsage returns a promotion's usage count (for test assertions).
func (m *MockPricingRepository) PromotionUsage(promotionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cfg := range m.configs {
		for _, promo := range cfg.Promotions {
			if promo.ID == promotionID {
				return promo.UsageCount
			}
		}
	}
	return 0
}

// ConfigCount returns the number of stored configs (for test assertions).
func (m *MockPricingRepository) ConfigCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

type pricingSnapshot struct {
	usage     map[string]int
	configIDs map[string]bool
	activeID  string
}

func (m *MockPricingRepository) snapshot() pricingSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := pricingSnapshot{
		usage:     make(map[string]int),
		configIDs: make(map[string]bool),
		activeID:  m.activeID,
	}
	for id, cfg := range m.configs {
		snap.configIDs[id] = true
		for _, promo := range cfg.Promotions {
			snap.usage[promo.ID] = promo.UsageCount
		}
	}
	return snap
}

func (m *MockPricingRepository) restore(snap pricingSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.configs {
		if !snap.configIDs[id] {
			delete(m.configs, id)
		}
	}
	m.activeID = snap.activeID
	for id, cfg := range m.configs {
		cfg.Active = id == snap.activeID
		for _, promo := range cfg.Promotions {
			if count, ok := snap.usage[promo.ID]; ok {
				promo.UsageCount = count
			}
		}
	}
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockUnitOfWork runs the callback against shared mock repositories and
// simulates transactional rollback: when the callback fails, every
// repository is restored to its pre-callback state.
type MockUnitOfWork struct {
	mu      sync.Mutex
	Rides   *MockRideRepository
	Bikes   *MockBikeRepository
	Wallets *MockWalletRepository
	Pricing *MockPricingRepository

	// Counters for verification
	DoCallCount       int32
	RollbackCallCount int32

	// Error injection: fails before the callback runs.
	DoError error
}

// NewMockUnitOfWork creates a unit of work over the given mock repositories.
func NewMockUnitOfWork(rides *MockRideRepository, bikes *MockBikeRepository, wallets *MockWalletRepository, pricing *MockPricingRepository) *MockUnitOfWork {
	return &MockUnitOfWork{
		Rides:   rides,
		Bikes:   bikes,
		Wallets: wallets,
		Pricing: pricing,
	}
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	atomic.AddInt32(&m.DoCallCount, 1)
	if m.DoError != nil {
		return m.DoError
	}

	// Serialize transactions like a row-locking database would.
	m.mu.Lock()
	defer m.mu.Unlock()

	rideSnap := m.Rides.snapshot()
	bikeSnap := m.Bikes.snapshot()
	walletSnap := m.Wallets.snapshot()
	pricingSnap := m.Pricing.snapshot()

	err := fn(repository.Repositories{
		Rides:   m.Rides,
		Bikes:   m.Bikes,
		Wallets: m.Wallets,
		Pricing: m.Pricing,
	})
	if err != nil {
		atomic.AddInt32(&m.RollbackCallCount, 1)
		m.Rides.restore(rideSnap)
		m.Bikes.restore(bikeSnap)
		m.Wallets.restore(walletSnap)
		m.Pricing.restore(pricingSnap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:rider:" + riderID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseRiderLock(ctx context.Context, riderID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:rider:"+riderID)
	return nil
}

// IsLocked checks if a rider is locked (for test assertions).
func (m *MockLockStore) IsLocked(riderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:rider:"+riderID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK TRACE STORE
// ──────────────────────────────────────────────

// MockTraceStore is a mock implementation of TraceStore.
type MockTraceStore struct {
	mu     sync.RWMutex
	traces map[string][]redis.TracePoint

	// Error injection
	GetTraceError error
}

// NewMockTraceStore creates a new mock trace store.
func NewMockTraceStore() *MockTraceStore {
	return &MockTraceStore{
		traces: make(map[string][]redis.TracePoint),
	}
}

// SetTrace installs a bike's trace (for test setup).
func (m *MockTraceStore) SetTrace(bikeID string, points []redis.TracePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces[bikeID] = points
}

func (m *MockTraceStore) Append(ctx context.Context, bikeID string, point redis.TracePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces[bikeID] = append(m.traces[bikeID], point)
	return nil
}

func (m *MockTraceStore) GetTrace(ctx context.Context, bikeID string, from, to time.Time) ([]redis.TracePoint, error) {
	if m.GetTraceError != nil {
		return nil, m.GetTraceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]redis.TracePoint, 0)
	for _, p := range m.traces[bikeID] {
		if !p.Timestamp.Before(from) && !p.Timestamp.After(to) {
			result = append(result, p)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStore.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.BikeLocation

	// Counters
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError  error
	FindNearbyBikesError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.BikeLocation, 0),
	}
}

// SetLocations sets all locations (for test setup).
func (m *MockLocationStore) SetLocations(locations []redis.BikeLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, bikeID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.BikeID == bikeID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.BikeLocation{
		BikeID: bikeID,
		Lat:    lat,
		Lng:    lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyBikes(ctx context.Context, lat, lng, radiusKm float64) ([]redis.BikeLocation, error) {
	if m.FindNearbyBikesError != nil {
		return nil, m.FindNearbyBikesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return all locations (mock doesn't do real geo filtering).
	result := make([]redis.BikeLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, bikeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.BikeID == bikeID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a bike location exists.
func (m *MockLocationStore) HasLocation(bikeID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.BikeID == bikeID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK RIDER REPOSITORY
// ──────────────────────────────────────────────

// MockRiderRepository is an in-memory implementation of
// repository.RiderRepository. Phone numbers are unique, matching the
// database constraint.
type MockRiderRepository struct {
	mu     sync.RWMutex
	riders map[string]*domain.Rider

	// Error injection
	CreateError error
}

func NewMockRiderRepository() *MockRiderRepository {
	return &MockRiderRepository{
		riders: make(map[string]*domain.Rider),
	}
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.riders {
		if existing.Phone != "" && existing.Phone == rider.Phone {
			return repository.ErrDuplicate
		}
	}
	riderCopy := *rider
	m.riders[rider.ID] = &riderCopy
	return nil
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rider, ok := m.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	riderCopy := *rider
	return &riderCopy, nil
}

func (m *MockRiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	riders := make([]*domain.Rider, 0, len(m.riders))
	for _, rider := range m.riders {
		riderCopy := *rider
		riders = append(riders, &riderCopy)
	}
	return riders, nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
