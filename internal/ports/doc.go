// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the session engine and the outside world.
// They define what the engine needs from external systems without specifying
// how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Transport]: Raw byte stream to and from the serial device
//   - [SampleSink]: Persistent consumer of decoded samples (CSV log)
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app, internal/decode) depends only on these
// interfaces. Infrastructure adapters (internal/adapters) implement them with
// concrete implementations (serial port, file system, zerolog).
//
// This separation enables:
//   - Testing the decode and batching logic with mock implementations
//   - Swapping transports (serial, replay file, network) without changing the engine
//   - Clear boundaries and dependency direction
package ports
