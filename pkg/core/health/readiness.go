package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type ComponentStatus struct {
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
	StartedAt time.Time `json:"startedAt"`
	ReadyAt   time.Time `json:"readyAt,omitzero"`
}

type ReadinessStatus struct {
	Ready      bool              `json:"ready"`
	Components []ComponentStatus `json:"components"`
	ReadyAt    time.Time         `json:"readyAt,omitzero"`
}

// ComponentManager registers components whose startup gates readiness.
type ComponentManager interface {
	// AddComponent registers name and returns the function that marks it ready.
	AddComponent(name string) func()
}

type ReadinessChecker interface {
	IsReady() bool
	GetStatus() ReadinessStatus
}

type ReadinessWaiter interface {
	// WaitReady blocks until every registered component is ready.
	WaitReady(ctx context.Context) error
}

type component struct {
	ready     bool
	startedAt time.Time
	readyAt   time.Time
}

type readiness struct {
	mu         sync.RWMutex
	components map[string]*component
	readyChan  chan struct{}
	readyOnce  sync.Once
	logger     *zap.Logger
}

func newReadiness(logger *zap.Logger) *readiness {
	return &readiness{
		components: make(map[string]*component),
		readyChan:  make(chan struct{}),
		logger:     logger,
	}
}

func (r *readiness) AddComponent(name string) func() {
	if name == "" {
		panic("readiness: component name cannot be empty")
	}

	r.mu.Lock()
	if _, exists := r.components[name]; exists {
		r.logger.Warn("component already registered", zap.String("component", name))
	} else {
		r.components[name] = &component{startedAt: time.Now()}
	}
	r.mu.Unlock()

	return func() { r.markReady(name) }
}

func (r *readiness) markReady(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	comp := r.components[name]
	if comp.ready {
		return
	}
	comp.ready = true
	comp.readyAt = time.Now()

	r.logger.Info("component ready",
		zap.String("component", name),
		zap.Duration("startup", comp.readyAt.Sub(comp.startedAt)),
	)

	for _, c := range r.components {
		if !c.ready {
			return
		}
	}

	r.readyOnce.Do(func() {
		close(r.readyChan)
		r.logger.Info("all components are ready", zap.Int("componentCount", len(r.components)))
	})
}

func (r *readiness) IsReady() bool {
	select {
	case <-r.readyChan:
		return true
	default:
		return false
	}
}

func (r *readiness) GetStatus() ReadinessStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := ReadinessStatus{
		Ready:      r.IsReady(),
		Components: make([]ComponentStatus, 0, len(r.components)),
	}

	for name, comp := range r.components {
		status.Components = append(status.Components, ComponentStatus{
			Name:      name,
			Ready:     comp.ready,
			StartedAt: comp.startedAt,
			ReadyAt:   comp.readyAt,
		})
		if status.Ready && comp.readyAt.After(status.ReadyAt) {
			status.ReadyAt = comp.readyAt
		}
	}

	sort.Slice(status.Components, func(i, j int) bool {
		return status.Components[i].Name < status.Components[j].Name
	})

	return status
}

func (r *readiness) WaitReady(ctx context.Context) error {
	select {
	case <-r.readyChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
