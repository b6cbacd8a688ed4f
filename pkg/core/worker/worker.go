package worker

import (
	"context"
	"sync"

	"github.com/Sokol111/student-housing/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type worker interface {
	Start()
	Stop()
}

type runnable interface {
	Run(ctx context.Context) error
}

type Options struct {
	WaitReady       bool
	ShutdownOnError bool
}

type Option func(*Options)

// WithReady delays the worker until every readiness component is ready.
func WithReady() Option {
	return func(o *Options) {
		o.WaitReady = true
	}
}

// WithShutdown stops the whole application when Run returns an error.
func WithShutdown() Option {
	return func(o *Options) {
		o.ShutdownOnError = true
	}
}

type baseWorker struct {
	name       string
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	log        *zap.Logger
	runFunc    func(ctx context.Context) error
	shutdowner fx.Shutdowner
	readiness  health.ReadinessWaiter
	options    Options
}

func (w *baseWorker) Start() {
	w.log.Info("starting " + w.name)
	ctx, cancel := context.WithCancel(context.Background())
	w.cancelFunc = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

func (w *baseWorker) run(ctx context.Context) {
	if w.options.WaitReady {
		w.log.Info("waiting for components readiness")
		if err := w.readiness.WaitReady(ctx); err != nil {
			w.log.Info(w.name + " stopped (cancelled while waiting for readiness)")
			return
		}
	}

	err := w.runFunc(ctx)
	if err == nil {
		w.log.Info(w.name + " stopped")
		return
	}

	if !w.options.ShutdownOnError {
		w.log.Error(w.name+" stopped with error", zap.Error(err))
		return
	}

	w.log.Error(w.name+" fatal error, initiating shutdown", zap.Error(err))
	if shutdownErr := w.shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
		w.log.Error("failed to initiate shutdown", zap.Error(shutdownErr))
	}
}

// Stop cancels Run and waits for it to return.
func (w *baseWorker) Stop() {
	w.log.Info("stopping " + w.name)
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()
}

func newBaseWorker(name string, log *zap.Logger, shutdowner fx.Shutdowner, readiness health.ReadinessWaiter, run func(context.Context) error, options Options) *baseWorker {
	return &baseWorker{
		name:       name,
		log:        log.With(zap.String("worker", name)),
		runFunc:    run,
		shutdowner: shutdowner,
		readiness:  readiness,
		options:    options,
	}
}

func registerWorker(lc fx.Lifecycle, w worker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			w.Stop()
			return nil
		},
	})
}

// Register provides a lifecycle-managed worker running dep.Run in the "workers" group.
//
//	worker.Register[*consumer.Runtime]("notification-consumer")
//	worker.Register[*producer.Emitter]("event-emitter", worker.WithShutdown())
func Register[T runnable](name string, opts ...Option) any {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}

	return fx.Annotate(
		func(lc fx.Lifecycle, log *zap.Logger, shutdowner fx.Shutdowner, readiness health.ReadinessWaiter, dep T) worker {
			w := newBaseWorker(name, log, shutdowner, readiness, dep.Run, options)
			registerWorker(lc, w)
			return w
		},
		fx.ResultTags(`group:"workers"`),
	)
}

// NewWorkersModule forces construction of every registered worker.
func NewWorkersModule() fx.Option {
	return fx.Module("workers",
		fx.Invoke(fx.Annotate(
			func(workers []worker, log *zap.Logger) {
				log.Info("workers registered", zap.Int("count", len(workers)))
			},
			fx.ParamTags(`group:"workers"`),
		)),
	)
}
