package repository

import "context"

// Repositories bundles transaction-scoped repositories handed to a unit of
// work callback. All writes through them commit or roll back together.
type Repositories struct {
	Rides   RideRepository
	Bikes   BikeRepository
	Wallets WalletRepository
	Pricing PricingRepository
}

// UnitOfWork executes a callback inside a single transactional boundary.
// The ride settlement (ride mutation + wallet debit + ledger append + bike
// release) must run through this so it commits all-or-nothing.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
}
