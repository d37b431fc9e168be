package domain

// ChatStream is a finite, non-restartable sequence of text fragments pulled
// from the upstream model as they are generated. Recv returns io.EOF when
// the upstream stream ends normally.
type ChatStream interface {
	Recv() (string, error)
	Close() error
}
