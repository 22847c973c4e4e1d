package payment

// Observer receives the progress of a payment watch. Callbacks of one watch
// are never invoked concurrently, and no callback fires after a terminal one.
type Observer interface {
	OnTick(Countdown)
	// OnConfirmed is called once the payment succeeded. err is non-nil when
	// the local subscription could not be refreshed afterwards.
	OnConfirmed(intent Intent, err error)
	OnExpired(intent Intent)
	// OnFailed is called when the gateway reports the intent canceled or failed.
	OnFailed(intent Intent, status IntentStatus)
	// OnError reports a transient polling failure. Polling continues.
	OnError(err error)
}

// ObserverFuncs adapts optional functions to Observer. Nil fields are no-ops.
type ObserverFuncs struct {
	Tick      func(Countdown)
	Confirmed func(Intent, error)
	Expired   func(Intent)
	Failed    func(Intent, IntentStatus)
	Error     func(error)
}

func (o ObserverFuncs) OnTick(c Countdown) {
	if o.Tick != nil {
		o.Tick(c)
	}
}

func (o ObserverFuncs) OnConfirmed(i Intent, err error) {
	if o.Confirmed != nil {
		o.Confirmed(i, err)
	}
}

func (o ObserverFuncs) OnExpired(i Intent) {
	if o.Expired != nil {
		o.Expired(i)
	}
}

func (o ObserverFuncs) OnFailed(i Intent, s IntentStatus) {
	if o.Failed != nil {
		o.Failed(i, s)
	}
}

func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}
