package outbound

// Option adjusts a single send call.
type Option func(*options)

type options struct {
	to      string
	reply   bool
	caption string
}

// To overrides the recipient; by default the sender of the triggering message is used.
func To(recipient string) Option {
	return func(o *options) { o.to = recipient }
}

// AsReply quotes the triggering message in the outbound message context.
func AsReply() Option {
	return func(o *options) { o.reply = true }
}

// WithCaption sets the caption of a media send. Other sends ignore it.
func WithCaption(caption string) Option {
	return func(o *options) { o.caption = caption }
}

func collect(opts []Option) options {
	var o options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
