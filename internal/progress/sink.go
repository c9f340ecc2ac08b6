package progress

// Sink displays the percentage. Calls are made while the controller holds
// its lock, so implementations must not call back into the Controller.
type Sink interface {
	// Show makes the indicator visible.
	Show()
	// SetPercent displays p, which is in [0, 100].
	SetPercent(p int)
	// Hide removes the indicator.
	Hide()
}

// NopSink discards every update.
type NopSink struct{}

// Show implements Sink.
func (NopSink) Show() {}

// SetPercent implements Sink.
func (NopSink) SetPercent(int) {}

// Hide implements Sink.
func (NopSink) Hide() {}
