package sellsy

import "log/slog"

// APIObject is the capability set shared by remote resource wrappers: fetch
// the remote content by id, expose it locally.
type APIObject interface {
	Fetch() error
	ID() int64
	Content() map[string]any
}

// ClientObject wraps a remote client record. Additional resource wrappers
// follow the same shape: an id, lazily or eagerly fetched content, and a
// create constructor delegating to the matching Client method.
type ClientObject struct {
	client  *Client
	id      int64
	content map[string]any
}

// NewClientObject wraps the client with the given remote id. With fetch set,
// the record is fetched immediately; fetch failures propagate.
func NewClientObject(c *Client, id int64, fetch bool) (*ClientObject, error) {
	o := &ClientObject{client: c, id: id}
	if fetch {
		if err := o.Fetch(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// CreateClientObject creates a corporation client remotely and returns its
// wrapper, optionally synchronized with a fresh fetch.
func CreateClientObject(c *Client, in ThirdInput, fetch bool) (*ClientObject, error) {
	slog.Info("creating sellsy client object")
	id, err := c.CreateCompany(in)
	if err != nil {
		return nil, err
	}
	return NewClientObject(c, id, fetch)
}

// Fetch loads the remote record into the wrapper.
func (o *ClientObject) Fetch() error {
	slog.Debug("fetching sellsy client object", "id", o.id)
	content, err := o.client.GetClientByID(o.id)
	if err != nil {
		return err
	}
	o.content = content
	return nil
}

// ID returns the remote id.
func (o *ClientObject) ID() int64 {
	return o.id
}

// Content returns the last fetched record, or nil before any fetch.
func (o *ClientObject) Content() map[string]any {
	return o.content
}
