package audit

import (
	"fmt"
	"os"
	"sync"
)

// The process-wide writer. Commands initialize it once at startup and
// every audited operation logs through it.
var (
	globalMu     sync.Mutex
	globalWriter Writer = NopWriter{}
)

// Init installs w as the global audit writer, closing any previous one.
// Init(nil) disables audit logging.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if _, nop := globalWriter.(NopWriter); !nop {
		_ = globalWriter.Close()
	}
	if w == nil {
		globalWriter = NopWriter{}
		return nil
	}
	globalWriter = w
	return nil
}

// InitFile initializes global audit logging to the given file.
// An empty path disables audit logging.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Enabled reports whether audit events are actually being recorded.
func Enabled() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	_, nop := globalWriter.(NopWriter)
	return !nop
}

// Log writes an event to the global audit log.
func Log(event *Event) error {
	globalMu.Lock()
	w := globalWriter
	globalMu.Unlock()
	return w.Write(event)
}

// MustLog is Log for operations that must not proceed unaudited. A
// failure is reported on stderr and returned so the caller can abort.
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", err)
		return err
	}
	return nil
}

// Close closes the global audit writer and disables logging.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter = NopWriter{}
	return err
}

// resultOf maps an operation outcome to an audit result.
func resultOf(success bool) Result {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// LogKeyGenerated records the creation of a new RSA private key.
func LogKeyGenerated(path string, bits int, success bool) error {
	event := NewEvent(EventKeyGenerated, resultOf(success)).
		WithObject(Object{Type: "key", Path: path}).
		WithContext(Context{Algorithm: "RSA", Bits: bits})
	return Log(event)
}

// LogKeyEncrypted records the wrapping of a private key under a passphrase.
func LogKeyEncrypted(path, profile string, iterations int, success bool) error {
	event := NewEvent(EventKeyEncrypted, resultOf(success)).
		WithObject(Object{Type: "key", Path: path}).
		WithContext(Context{Profile: profile, Algorithm: "AES-256-CBC", Iterations: iterations})
	return Log(event)
}

// LogKeyDecrypted records the recovery of a private key from its
// encrypted form. On failure, reason says why without echoing secrets.
func LogKeyDecrypted(path string, success bool, reason string) error {
	event := NewEvent(EventKeyDecrypted, resultOf(success)).
		WithObject(Object{Type: "key", Path: path}).
		WithContext(Context{Reason: reason})
	return Log(event)
}

// LogKeyInspected records a read of an encrypted key's parameters.
func LogKeyInspected(path, algorithm string, success bool) error {
	event := NewEvent(EventKeyInspected, resultOf(success)).
		WithObject(Object{Type: "key", Path: path}).
		WithContext(Context{Algorithm: algorithm})
	return Log(event)
}

// LogEnvelopeSealed records password-based encryption of a payload.
func LogEnvelopeSealed(path string, deterministic, success bool) error {
	event := NewEvent(EventEnvelopeSealed, resultOf(success)).
		WithObject(Object{Type: "envelope", Path: path}).
		WithContext(Context{Algorithm: "AES-256-CBC", Deterministic: deterministic})
	return Log(event)
}

// LogEnvelopeOpened records password-based decryption of a payload.
func LogEnvelopeOpened(path string, success bool, reason string) error {
	event := NewEvent(EventEnvelopeOpened, resultOf(success)).
		WithObject(Object{Type: "envelope", Path: path}).
		WithContext(Context{Reason: reason})
	return Log(event)
}

// LogRSAEncrypted records key transport encryption to a recipient,
// identified by the fingerprint of their public key.
func LogRSAEncrypted(path, fingerprint string, success bool) error {
	event := NewEvent(EventRSAEncrypted, resultOf(success)).
		WithObject(Object{Type: "message", Path: path, Fingerprint: fingerprint}).
		WithContext(Context{Algorithm: "RSA-OAEP-SHA256"})
	return Log(event)
}

// LogRSADecrypted records key transport decryption.
func LogRSADecrypted(path string, success bool, reason string) error {
	event := NewEvent(EventRSADecrypted, resultOf(success)).
		WithObject(Object{Type: "message", Path: path}).
		WithContext(Context{Algorithm: "RSA-OAEP-SHA256", Reason: reason})
	return Log(event)
}

// LogAuthFailed records a rejected passphrase or key. Always a failure.
func LogAuthFailed(path, reason string) error {
	event := NewEvent(EventAuthFailed, ResultFailure).
		WithObject(Object{Type: "key", Path: path}).
		WithContext(Context{Reason: reason})
	return Log(event)
}
