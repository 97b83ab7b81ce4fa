package store

import (
	"context"
	"time"

	"github.com/togisoft/t-force/internal/domain"
	"github.com/togisoft/t-force/internal/log"
)

const writeTimeout = 5 * time.Second

type commandKind int

const (
	cmdPersistMessage commandKind = iota
	cmdPersistReaction
	cmdRetractReaction
)

type command struct {
	kind     commandKind
	message  *MessageRecord
	reaction *ReactionRecord

	// retract fields
	messageID string
	userID    string
	emoji     string
}

// Dispatcher is the asynchronous persistence gateway. Writes are queued on a
// buffered channel and applied by a single background worker; the enqueue
// path never blocks and never performs I/O, so it is safe to call from
// inside the hub's critical section. A full queue drops the command with a
// log line rather than stalling delivery.
type Dispatcher struct {
	repo Repository
	cmds chan command
	done chan struct{}
}

func NewDispatcher(repo Repository, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1024
	}
	return &Dispatcher{
		repo: repo,
		cmds: make(chan command, queueSize),
		done: make(chan struct{}),
	}
}

// Run applies queued commands until the context is cancelled. Call it from
// its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	for {
		select {
		case cmd := <-d.cmds:
			d.apply(cmd)
		case <-ctx.Done():
			// Drain whatever is already queued before giving up.
			for {
				select {
				case cmd := <-d.cmds:
					d.apply(cmd)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

// Done is closed once the worker has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) apply(cmd command) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch cmd.kind {
	case cmdPersistMessage:
		err = d.repo.InsertMessage(ctx, cmd.message)
	case cmdPersistReaction:
		err = d.repo.InsertReaction(ctx, cmd.reaction)
	case cmdRetractReaction:
		err = d.repo.DeleteReaction(ctx, cmd.messageID, cmd.userID, cmd.emoji)
	}
	if err != nil {
		// Best-effort: the event has already been broadcast and is not
		// retracted. Nothing is reported to the client.
		l := log.L()
		l.Error().Err(err).Str("kind", domain.ErrKindPersistenceFailure).Msg("persistence command failed")
	}
}

func (d *Dispatcher) enqueue(cmd command) {
	select {
	case d.cmds <- cmd:
	default:
		l := log.L()
		l.Error().Int("queue_size", cap(d.cmds)).Msg("persistence queue full, dropping command")
	}
}

func (d *Dispatcher) PersistMessage(m *MessageRecord) {
	d.enqueue(command{kind: cmdPersistMessage, message: m})
}

func (d *Dispatcher) PersistReaction(r *ReactionRecord) {
	d.enqueue(command{kind: cmdPersistReaction, reaction: r})
}

func (d *Dispatcher) RetractReaction(messageID, userID, emoji string) {
	d.enqueue(command{kind: cmdRetractReaction, messageID: messageID, userID: userID, emoji: emoji})
}

func (d *Dispatcher) ResolveMessageRoom(ctx context.Context, messageID string) (string, error) {
	return d.repo.GetMessageRoom(ctx, messageID)
}

func (d *Dispatcher) IsRoomMember(ctx context.Context, roomID, userID string) (bool, error) {
	return d.repo.IsRoomMember(ctx, roomID, userID)
}
