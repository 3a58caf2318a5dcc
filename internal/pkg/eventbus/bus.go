// Package eventbus provides an in-process domain event bus.
// Пакет eventbus предоставляет внутрипроцессную шину доменных событий.
//
// The bus is constructed explicitly and injected into services; there is no
// package-level singleton. Dispatch is best-effort: handlers run
// concurrently, the publisher waits for all of them, failures are logged per
// handler and never propagated to the caller.
// Шина создаётся явно и внедряется в сервисы; синглтона на уровне пакета
// нет. Рассылка — best-effort: обработчики выполняются конкурентно,
// публикующий ждёт их всех, сбои логируются по каждому обработчику и
// никогда не пробрасываются вызывающему.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
)

// Handler processes a single domain event. Handlers must be safe for
// concurrent use and should honor ctx cancellation.
// Handler обрабатывает одно доменное событие. Обработчики должны быть
// безопасны для конкурентного использования и учитывать отмену ctx.
type Handler func(ctx context.Context, event domain.Event) error

// Bus fans domain events out to subscribed handlers.
// Bus рассылает доменные события подписанным обработчикам.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler // event name -> handlers / имя события -> обработчики
	all      []namedHandler            // handlers for every event / обработчики всех событий
	timeout  time.Duration             // per-event dispatch timeout / таймаут рассылки на событие
	logger   *logger.Logger
}

type namedHandler struct {
	name string
	fn   Handler
}

// New creates an event bus. timeout bounds the dispatch of one event across
// all its handlers; zero means no bound beyond the caller's context.
// New создаёт шину событий. timeout ограничивает рассылку одного события по
// всем его обработчикам; ноль означает отсутствие ограничения сверх
// контекста вызывающего.
func New(log *logger.Logger, timeout time.Duration) *Bus {
	return &Bus{
		handlers: make(map[string][]namedHandler),
		timeout:  timeout,
		logger:   log.WithComponent("event_bus"),
	}
}

// Subscribe registers a handler for a specific event name. The handler name
// identifies it in dispatch outcome logs.
// Subscribe регистрирует обработчик для конкретного имени события. Имя
// обработчика идентифицирует его в логах результатов рассылки.
func (b *Bus) Subscribe(eventName, handlerName string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], namedHandler{name: handlerName, fn: fn})
}

// SubscribeAll registers a handler invoked for every published event.
// SubscribeAll регистрирует обработчик, вызываемый для каждого события.
func (b *Bus) SubscribeAll(handlerName string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, namedHandler{name: handlerName, fn: fn})
}

// Publish dispatches each event to its handlers concurrently and waits for
// all of them. Per-handler outcomes are logged; a failing or panicking
// handler never fails the publishing operation.
// Publish рассылает каждое событие его обработчикам конкурентно и ждёт их
// всех. Результаты по каждому обработчику логируются; сбой или паника
// обработчика никогда не приводит к сбою публикующей операции.
func (b *Bus) Publish(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		b.dispatch(ctx, event)
	}
}

// dispatch fans one event out and joins all handlers.
func (b *Bus) dispatch(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	targets := make([]namedHandler, 0, len(b.handlers[event.EventName()])+len(b.all))
	targets = append(targets, b.handlers[event.EventName()]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	log := b.logger.WithContext(ctx)

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(h namedHandler) {
			defer wg.Done()

			err := b.safeInvoke(ctx, h, event)
			if err != nil {
				log.Error("event handler failed",
					"event", event.EventName(),
					"handler", h.name,
					"error", err,
				)
				return
			}

			log.Debug("event handled",
				"event", event.EventName(),
				"handler", h.name,
			)
		}(target)
	}
	wg.Wait()
}

// safeInvoke shields the bus from panicking handlers.
// safeInvoke защищает шину от паникующих обработчиков.
func (b *Bus) safeInvoke(ctx context.Context, h namedHandler, event domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.fn(ctx, event)
}
