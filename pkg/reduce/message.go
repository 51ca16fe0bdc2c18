package reduce

// Message is the normalized form of one inbound chain. It is exactly one of
// Composite or Forwarded.
type Message interface {
	message()
	// Header returns the leading text of the message.
	Header() string
	// WithHeader returns a copy of the message with extra text prepended.
	WithHeader(prefix string) Message
}

// FileRef identifies a group file to re-fetch from the source platform.
type FileRef struct {
	ID      string
	GroupID string
	Name    string
	Size    int64
}

// Composite is a flat message: text plus ordered image and file attachments.
type Composite struct {
	Text   string
	Images []string
	Files  []FileRef
}

// Forwarded is a bundle: header text plus independently normalized children.
type Forwarded struct {
	Text     string
	Children []Message
}

func (Composite) message() {}
func (Forwarded) message() {}

func (c Composite) Header() string { return c.Text }
func (f Forwarded) Header() string { return f.Text }

func (c Composite) WithHeader(prefix string) Message {
	c.Text = prefix + c.Text
	return c
}

func (f Forwarded) WithHeader(prefix string) Message {
	f.Text = prefix + f.Text
	return f
}
