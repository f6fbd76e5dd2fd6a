package location

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"GeoAttend/internal/model"
)

const flightKey = "position"

// Acquirer 按策略依次尝试定位，同一个 Acquirer 上同时只有一个定位请求在进行
type Acquirer struct {
	strategies []Options
	pause      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	group      singleflight.Group
}

type Option func(*Acquirer)

func WithStrategies(strategies []Options) Option {
	return func(a *Acquirer) {
		if len(strategies) > 0 {
			a.strategies = strategies
		}
	}
}

// WithPause 策略之间的等待，<= 0 表示不等待
func WithPause(d time.Duration) Option {
	return func(a *Acquirer) {
		a.pause = d
	}
}

func NewAcquirer(opts ...Option) *Acquirer {
	a := &Acquirer{
		strategies: DefaultStrategies,
		pause:      time.Second,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire 获取当前位置。并发调用共享同一次定位；调用方 ctx 结束只会停止等待，不会取消共享的请求
func (a *Acquirer) Acquire(ctx context.Context, p Provider) (model.LocationSample, error) {
	ch := a.group.DoChan(flightKey, func() (interface{}, error) {
		return a.run(context.WithoutCancel(ctx), p)
	})

	select {
	case <-ctx.Done():
		return model.LocationSample{}, newError(Timeout, "caller stopped waiting", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return model.LocationSample{}, res.Err
		}
		return res.Val.(model.LocationSample), nil
	}
}

func (a *Acquirer) run(ctx context.Context, p Provider) (model.LocationSample, error) {
	if p == nil {
		return model.LocationSample{}, newError(Unsupported, "no location provider", ErrUnsupported)
	}

	// 权限已拒绝时不再发起定位
	if p.PermissionState(ctx) == StateDenied {
		return model.LocationSample{}, newError(PermissionDenied, "location permission denied", nil)
	}

	var last *Error
	for i, opts := range a.strategies {
		if i > 0 && a.pause > 0 {
			if err := a.sleep(ctx, a.pause); err != nil {
				break
			}
		}

		sample, err := a.attempt(ctx, p, opts)
		if err == nil {
			return sample, nil
		}

		last = classify(err)
		if last.Kind == PermissionDenied || last.Kind == Unsupported {
			return model.LocationSample{}, last
		}
	}

	if last == nil {
		last = newError(PositionUnavailable, "no positioning strategy available", nil)
	}
	return model.LocationSample{}, last
}

func (a *Acquirer) attempt(ctx context.Context, p Provider, opts Options) (model.LocationSample, error) {
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	sample, err := p.CurrentPosition(attemptCtx, opts)
	if err != nil {
		if _, ok := AsError(err); ok {
			return model.LocationSample{}, err
		}
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return model.LocationSample{}, newError(Timeout, "position request timed out", err)
		}
		return model.LocationSample{}, err
	}
	if err := sample.Coordinate.Validate(); err != nil {
		return model.LocationSample{}, newError(PositionUnavailable, "provider returned an invalid coordinate", err)
	}
	return sample, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
