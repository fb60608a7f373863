package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chukul/eventsctl/internal/signer"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrAckTimeout is reported when a subscription is neither acknowledged nor
// rejected within Config.AckTimeout.
var ErrAckTimeout = errors.New("subscription not acknowledged")

// State is a SubscriptionSession lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshakeSent
	StateSubscribing
	StateStreaming
	StateClosing
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshakeSent:
		return "handshake-sent"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) terminal() bool {
	return s == StateClosed || s == StateErrored
}

// Presenter receives everything the session wants shown to the user.
type Presenter interface {
	Subscribed(id, channel string)
	Frame(f Frame)
	Error(err error)
}

// Config configures a Session.
type Config struct {
	Endpoint   signer.Endpoint
	Channels   []string
	Authorizer signer.Authorizer
	Dialer     Dialer
	Presenter  Presenter
	Logger     zerolog.Logger

	// AckTimeout enables reporting of subscriptions that were not
	// acknowledged in time. Zero keeps subscribe fire-and-forget.
	AckTimeout time.Duration

	// NewID generates subscription ids. Defaults to random UUIDs.
	NewID func() (string, error)

	// Filter drops data frames it does not match. Nil presents everything.
	Filter *Filter
}

type subscription struct {
	id      string
	channel string
}

// Session owns one realtime connection and its channel subscriptions.
type Session struct {
	cfg        Config
	log        zerolog.Logger
	classifier Classifier

	mu    sync.Mutex
	state State

	// written by open before the stream goroutines start
	subs []subscription
	// touched only by the consuming goroutine once streaming
	pending map[string]string
}

// NewSession returns a Session in the Disconnected state.
func NewSession(cfg Config) *Session {
	if cfg.Presenter == nil {
		cfg.Presenter = nopPresenter{}
	}
	if cfg.NewID == nil {
		cfg.NewID = newUUID
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &WebsocketDialer{}
	}
	return &Session{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "session").Logger(),
		pending: map[string]string{},
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(to State) {
	s.mu.Lock()
	from := s.state
	if from.terminal() || from == to {
		s.mu.Unlock()
		return
	}
	s.state = to
	s.mu.Unlock()
	s.log.Debug().Stringer("from", from).Stringer("to", to).Msg("state")
}

func (s *Session) advance(from, to State) {
	s.mu.Lock()
	ok := s.state == from
	if ok {
		s.state = to
	}
	s.mu.Unlock()
	if ok {
		s.log.Debug().Stringer("from", from).Stringer("to", to).Msg("state")
	}
}

// Run connects, subscribes to every configured channel and streams frames
// until ctx is cancelled or the transport goes away. A local shutdown or a
// clean close by the server returns nil; startup and transport failures
// return an error and leave the session Errored.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return fmt.Errorf("session already started (%v)", s.state)
	}
	s.mu.Unlock()
	if len(s.cfg.Channels) == 0 {
		s.setState(StateErrored)
		return errors.New("no channels to subscribe")
	}

	s.setState(StateConnecting)
	conn, err := s.connect(ctx)
	if err != nil {
		s.setState(StateErrored)
		return err
	}

	if err := s.open(ctx, conn); err != nil {
		conn.Close()
		s.setState(StateErrored)
		return err
	}

	return s.stream(ctx, conn)
}

func (s *Session) connect(ctx context.Context) (Conn, error) {
	auth, err := s.cfg.Authorizer.Authorize(ctx, signer.EmptyBody)
	if err != nil {
		return nil, fmt.Errorf("authorizing connection: %w", err)
	}

	url := URL(s.cfg.Endpoint.RealtimeHost)
	s.log.Debug().Str("url", url).Msg("dialing")
	conn, err := s.cfg.Dialer.Dial(ctx, url, signer.Subprotocols(auth), signer.DefaultHeaders())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return conn, nil
}

// open sends connection_init followed by one subscribe per channel, in that
// order, before anything is read from the connection.
func (s *Session) open(ctx context.Context, conn Conn) error {
	if err := conn.Send(InitMessage()); err != nil {
		return fmt.Errorf("%w: sending %v: %w", ErrTransport, MsgConnectionInit, err)
	}
	s.setState(StateHandshakeSent)

	s.setState(StateSubscribing)
	for _, channel := range s.cfg.Channels {
		if err := s.subscribe(ctx, conn, channel); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) subscribe(ctx context.Context, conn Conn, channel string) error {
	body, err := signer.ChannelBody(channel)
	if err != nil {
		return err
	}
	auth, err := s.cfg.Authorizer.Authorize(ctx, body)
	if err != nil {
		return fmt.Errorf("authorizing subscription to %v: %w", channel, err)
	}
	id, err := s.cfg.NewID()
	if err != nil {
		return fmt.Errorf("generating subscription id: %w", err)
	}
	msg, err := SubscribeMessage(id, channel, auth)
	if err != nil {
		return err
	}
	if err := conn.Send(msg); err != nil {
		return fmt.Errorf("%w: subscribing to %v: %w", ErrTransport, channel, err)
	}

	s.subs = append(s.subs, subscription{id: id, channel: channel})
	s.pending[id] = channel
	s.log.Debug().Str("id", id).Str("channel", channel).Msg("subscribe sent")
	s.cfg.Presenter.Subscribed(id, channel)
	return nil
}

func (s *Session) stream(ctx context.Context, conn Conn) error {
	frames := make(chan []byte)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		for {
			data, err := conn.Receive()
			if err != nil {
				return err
			}
			select {
			case frames <- data:
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		s.setState(StateClosing)
		if ctx.Err() != nil {
			s.unsubscribe(conn)
		}
		if err := conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("closing connection")
		}
		return nil
	})

	s.consume(frames)
	err := g.Wait()

	switch {
	case ctx.Err() != nil, err == nil:
		s.setState(StateClosed)
		return nil
	case errors.Is(err, ErrClosed):
		s.log.Info().Err(err).Msg("connection closed by server")
		s.setState(StateClosed)
		return nil
	default:
		s.setState(StateErrored)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}

func (s *Session) unsubscribe(conn Conn) {
	for _, sub := range s.subs {
		if err := conn.Send(UnsubscribeMessage(sub.id)); err != nil {
			s.log.Debug().Err(err).Str("id", sub.id).Msg("unsubscribe failed")
			return
		}
		s.log.Debug().Str("id", sub.id).Str("channel", sub.channel).Msg("unsubscribe sent")
	}
}

// consume handles frames one at a time in arrival order until the reader
// closes the channel.
func (s *Session) consume(frames <-chan []byte) {
	var ackC <-chan time.Time
	if s.cfg.AckTimeout > 0 && len(s.pending) > 0 {
		t := time.NewTimer(s.cfg.AckTimeout)
		defer t.Stop()
		ackC = t.C
	}

	for {
		select {
		case data, ok := <-frames:
			if !ok {
				return
			}
			s.handle(data)
		case <-ackC:
			ackC = nil
			for id, channel := range s.pending {
				s.log.Warn().Str("id", id).Str("channel", channel).Msg("subscription not acknowledged")
				s.cfg.Presenter.Error(fmt.Errorf("%w: %v (id %v) after %v", ErrAckTimeout, channel, id, s.cfg.AckTimeout))
			}
		}
	}
}

func (s *Session) handle(data []byte) {
	s.advance(StateSubscribing, StateStreaming)

	f, err := s.classifier.Classify(data)
	if err != nil {
		s.log.Warn().Err(err).Int("size", len(data)).Msg("dropping frame")
		s.cfg.Presenter.Error(err)
		return
	}

	switch f.Type {
	case MsgKeepAlive:
		s.log.Trace().Int("count", f.KeepAlives).Msg("keep-alive")
	case MsgConnectionAck:
		s.log.Debug().Msg("connection acknowledged")
	case MsgSubscribeSuccess:
		if channel, ok := s.pending[f.ID]; ok {
			delete(s.pending, f.ID)
			s.log.Info().Str("id", f.ID).Str("channel", channel).Msg("subscribed")
		}
	case MsgSubscribeError:
		channel := s.pending[f.ID]
		delete(s.pending, f.ID)
		s.log.Warn().Str("id", f.ID).Str("channel", channel).Interface("frame", f.Raw).Msg("subscription rejected")
	case MsgData:
		if channel := s.channelOf(f.ID); !s.cfg.Filter.Match(channel, f) {
			s.log.Debug().Str("id", f.ID).Stringer("filter", s.cfg.Filter).Msg("event filtered")
			return
		}
	}

	s.cfg.Presenter.Frame(f)
}

func (s *Session) channelOf(id string) string {
	for _, sub := range s.subs {
		if sub.id == id {
			return sub.channel
		}
	}
	return ""
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type nopPresenter struct{}

func (nopPresenter) Subscribed(string, string) {}
func (nopPresenter) Frame(Frame)               {}
func (nopPresenter) Error(error)               {}
