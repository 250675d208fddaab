package access

import (
	"fmt"

	"cutroom/internal/ipc"
	"cutroom/internal/pipeline"
)

// Session represents an access handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to a
// direct pipeline. wrap turns the opened pipeline into an Access.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openPipeline func() (*pipeline.Pipeline, error),
	wrap func(*pipeline.Pipeline) Access,
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewIPCAccess(client),
				close:  client.Close,
			}, nil
		}
	}

	if openPipeline == nil || wrap == nil {
		return Session{}, fmt.Errorf("open pipeline: no pipeline opener configured")
	}
	p, err := openPipeline()
	if err != nil {
		return Session{}, fmt.Errorf("open pipeline: %w", err)
	}
	return Session{
		Access: wrap(p),
		close:  p.Close,
	}, nil
}
