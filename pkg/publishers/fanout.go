package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/samvad-hq/weixin-sdk/pkg/logging"
)

type builder func(ctx context.Context, cfg PublisherConfig, log logging.Logger) (Publisher, error)

var builders = map[string]builder{
	TypeHTTP:   newHTTPPublisher,
	TypeSQS:    newSQSPublisher,
	TypeSNS:    newSNSPublisher,
	TypePubSub: newPubSubPublisher,
}

// route pairs a publisher with the entry that decides which kinds reach it.
type route struct {
	cfg PublisherConfig
	pub Publisher
}

// Fanout routes each event to the publishers accepting its kind.
type Fanout struct {
	routes []route
}

// Build creates a publisher per config entry. Publishers already created are
// closed when a later entry fails.
func Build(ctx context.Context, cfgs []PublisherConfig, log logging.Logger) (*Fanout, error) {
	return build(ctx, builders, cfgs, log)
}

func build(ctx context.Context, reg map[string]builder, cfgs []PublisherConfig, log logging.Logger) (*Fanout, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log = logging.OrNop(log)

	f := &Fanout{}
	for _, cfg := range cfgs {
		newPub, ok := reg[cfg.Type]
		if !ok {
			_ = f.Close()
			return nil, fmt.Errorf("publisher %q: no builder for type %q", cfg.ID, cfg.Type)
		}
		pub, err := newPub(ctx, cfg, log)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		f.routes = append(f.routes, route{cfg: cfg, pub: pub})
	}
	return f, nil
}

// Publish sends evt to every publisher routed for evt.Kind and returns how many
// accepted it. Failures do not stop delivery to the remaining publishers.
func (f *Fanout) Publish(ctx context.Context, evt LinkEvent) (int, error) {
	if f == nil {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, r := range f.routes {
		if !r.cfg.Accepts(evt.Kind) {
			continue
		}
		if err := r.pub.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", r.pub.Type(), r.pub.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}

// Close releases publishers holding client connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, r := range f.routes {
		if c, ok := r.pub.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", r.pub.Type(), r.pub.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
