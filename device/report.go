package device

// ReportBuilder is implemented by controller states that can encode
// themselves into the wire report of their output device.
type ReportBuilder interface {
	// BuildReport encodes the current state for transfer.
	BuildReport() []byte
}
