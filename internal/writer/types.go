// internal/writer/types.go
package writer

import "github.com/tamzrod/modbus-thermo/internal/poller"

// Target is one delivery destination for cycle documents.
// Deliver receives the encoded flat document and must not retain it.
type Target interface {
	Name() string
	Deliver(payload []byte) error
}

// Writer writes cycle results into targets.
type Writer interface {
	Write(res poller.CycleResult) error
}
