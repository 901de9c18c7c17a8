// Package sticky provides an event bus front with current state replay.
//
// A participant registered on a Dispatcher can declare two capabilities:
//
//   - ports.Subscriber: the event types it wants delivered.
//   - ports.StateProvider: the event types it is the authoritative source of
//     current state for.
//
// When a participant registers it is immediately handed the current value of
// every subscribed type that has a provider, and the current value of every
// type it provides is published to all existing subscribers. Only one
// provider per type is bound at a time; see DuplicatePolicy.
//
// Example:
//
//	registry := sticky.NewBusRegistry(sticky.Options{}, &logger)
//	bus := registry.Get("home")
//
//	bus.Register(ctx, thermostat) // provides Temperature
//	bus.Register(ctx, display)    // subscribes to Temperature, gets the current value now
//	bus.Post(ctx, Temperature{Celsius: 21.5})
package sticky
