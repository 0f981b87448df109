package assembly

import "github.com/google/uuid"

type options struct {
	guided       bool
	spawnPoint   Vec3
	carryOnSpawn bool
	maxElevation float64
	newID        func() PartID
}

func defaultOptions() options {
	return options{
		guided: true,
		newID:  func() PartID { return PartID(uuid.NewString()) },
	}
}

type Option func(*options)

// WithGuided enables the build sequence when the catalog has one. On by default.
func WithGuided(guided bool) Option {
	return func(o *options) { o.guided = guided }
}

// WithSpawnPoint sets where parts appear when Spawn gets no position.
func WithSpawnPoint(p Vec3) Option {
	return func(o *options) { o.spawnPoint = p }
}

// WithCarryOnSpawn makes a freshly spawned part start out carried.
func WithCarryOnSpawn(carry bool) Option {
	return func(o *options) { o.carryOnSpawn = carry }
}

// WithMaxElevation bounds SetElevation to [0, max]. Zero leaves it unbounded.
func WithMaxElevation(limit float64) Option {
	return func(o *options) { o.maxElevation = limit }
}

// WithIDGenerator replaces the uuid generator. The generator must never repeat.
func WithIDGenerator(gen func() PartID) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}
