package sse

// Handler receives the application events of one stream.
//
// OnMessage is called zero or more times, in arrival order, with renderable
// text fragments. An error returned from it is logged and does not stop the
// stream. OnError is called at most once, only on the error path, and always
// before OnDone. OnDone is called exactly once when the stream ends.
type Handler interface {
	OnMessage(text string) error
	OnError(message string)
	OnDone()
}

// messageAcceptor is implemented by handlers that can opt out of message
// delivery. Text extraction is skipped entirely for them.
type messageAcceptor interface {
	AcceptsMessages() bool
}

// HandlerFuncs adapts plain functions to a Handler. Any field may be nil.
// A nil Message means no message callback is registered.
type HandlerFuncs struct {
	Message func(text string) error
	Error   func(message string)
	Done    func()
}

var _ Handler = HandlerFuncs{}

func (h HandlerFuncs) OnMessage(text string) error {
	if h.Message == nil {
		return nil
	}
	return h.Message(text)
}

func (h HandlerFuncs) OnError(message string) {
	if h.Error != nil {
		h.Error(message)
	}
}

func (h HandlerFuncs) OnDone() {
	if h.Done != nil {
		h.Done()
	}
}

// AcceptsMessages reports whether a message callback is registered.
func (h HandlerFuncs) AcceptsMessages() bool {
	return h.Message != nil
}
