package sensor

import (
	"fmt"
	"sync"
)

// DriverFactory produces a fresh, unconnected Driver. The negotiator creates
// one driver per connection attempt so that a failed attempt leaves no state
// behind.
type DriverFactory func() (Driver, error)

// Well-known driver names. Vendor driver packages register themselves under
// DefaultDriverName at link time; the simulated driver registers under
// FakeDriverName and is selected by using the device path "fake".
const (
	DefaultDriverName = "slamtec"
	FakeDriverName    = "fake"
)

var (
	driversMu sync.Mutex
	drivers   = map[string]DriverFactory{}
)

// RegisterDriver makes a driver factory available under the given name.
// Registering the same name twice panics; that is a wiring mistake, not a
// runtime condition.
func RegisterDriver(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := drivers[name]; ok {
		panic(fmt.Sprintf("sensor: driver %q registered twice", name))
	}
	drivers[name] = factory
}

// LookupDriver returns the factory registered under name.
func LookupDriver(name string) (DriverFactory, error) {
	driversMu.Lock()
	defer driversMu.Unlock()
	factory, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("sensor: no %q driver linked into this build", name)
	}
	return factory, nil
}
