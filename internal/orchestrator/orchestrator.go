// Package orchestrator coordinates a scrape preview request across the fast
// synchronous path, the asynchronous fallback, and the push channel.
package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/credential"
	"github.com/scrapable/preview-service/internal/metrics"
	"github.com/scrapable/preview-service/internal/notify"
	"github.com/scrapable/preview-service/internal/preview"
	"github.com/scrapable/preview-service/internal/transport"
)

// Backend is the slice of the external REST API the orchestrator consumes.
type Backend interface {
	PreviewSync(ctx context.Context, targetURL, token string) (*preview.TaskResult, error)
	EnqueueAsync(ctx context.Context, targetURL, token string) (string, error)
}

// Orchestrator produces exactly one committed result per preview request.
// It owns a small state record; no other component mutates it. A new
// request supersedes any prior pending task, matching the cancellation rule
// for a user resetting the form.
type Orchestrator struct {
	backend  Backend
	creds    credential.Provider
	channel  transport.Channel
	notifier notify.Notifier
	logger   *zap.Logger

	mu     sync.Mutex
	state  preview.State
	gen    int
	sub    transport.Subscription
	cancel context.CancelFunc

	watchers    map[int]chan preview.State
	nextWatcher int
	dropLimiter rateLimiter
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier sets the user-notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New constructs an Orchestrator in the idle phase.
func New(backend Backend, creds credential.Provider, channel transport.Channel, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:     backend,
		creds:       creds,
		channel:     channel,
		notifier:    notify.Nop{},
		logger:      zap.NewNop(),
		state:       preview.State{Phase: preview.PhaseIdle},
		watchers:    map[int]chan preview.State{},
		dropLimiter: rateLimiter{interval: dropLogInterval},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns a copy of the current state record.
func (o *Orchestrator) Snapshot() preview.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// RequestPreview runs one preview attempt for targetURL: validate input,
// acquire a fresh credential, try the fast path, and escalate to an async
// task on any fast-path failure. It blocks until a terminal outcome, the
// context ends, or the request is superseded.
func (o *Orchestrator) RequestPreview(ctx context.Context, targetURL string) (preview.Result, error) {
	if err := validateTarget(targetURL); err != nil {
		return preview.Result{}, err
	}
	token, err := o.creds.Token(ctx)
	if err != nil {
		return preview.Result{}, fmt.Errorf("%w: %w", preview.ErrUnauthenticated, err)
	}
	if token == "" {
		return preview.Result{}, preview.ErrUnauthenticated
	}

	reqCtx, cancel, gen := o.begin(ctx)
	defer cancel()

	syncResult, syncErr := o.backend.PreviewSync(reqCtx, targetURL, token)
	if syncErr == nil {
		result := preview.Result{
			Kind:     preview.ResultSynchronous,
			Elements: syncResult.Elements,
			TierInfo: syncResult.TierInfo,
		}
		if !o.commitTerminal(gen, result) {
			return preview.Result{}, preview.ErrSuperseded
		}
		metrics.SyncPreviews.Inc()
		o.notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelSuccess,
			Message: preview.SuccessNotice(result.Elements, result.TierInfo),
		})
		return result, nil
	}
	if reqCtx.Err() != nil {
		return preview.Result{}, o.cancelCause(ctx)
	}

	// The sync failure is never surfaced to the user; escalation is
	// unconditional and silent beyond this trace.
	o.logger.Debug("sync preview failed, escalating",
		zap.String("url", targetURL),
		zap.Error(fmt.Errorf("%w: %w", preview.ErrSyncPreview, syncErr)),
	)
	metrics.Escalations.Inc()

	taskID, err := o.backend.EnqueueAsync(reqCtx, targetURL, token)
	if err != nil {
		if reqCtx.Err() != nil {
			return preview.Result{}, o.cancelCause(ctx)
		}
		return o.failEnqueue(ctx, gen, err)
	}

	sub, err := o.channel.Subscribe(reqCtx, preview.ChannelForTask(taskID))
	if err != nil {
		return o.failEnqueue(ctx, gen, fmt.Errorf("subscribe task channel: %w", err))
	}
	if !o.markPending(gen, taskID, sub) {
		o.unsubscribe(sub)
		return preview.Result{}, preview.ErrSuperseded
	}
	o.notifier.Notify(ctx, notify.Notification{
		Level:   notify.LevelInfo,
		Message: preview.EscalationNotice(taskID),
	})
	o.logger.Info("preview escalated to async task", zap.String("task_id", taskID))

	return o.await(ctx, reqCtx, gen, sub)
}

// Reset cancels any in-flight request, unsubscribes from the task channel,
// and discards tracking state. Nothing is committed.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.gen++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	sub := o.sub
	o.sub = nil
	pending := !o.state.Terminal() && o.state.Phase != preview.PhaseIdle
	o.state = preview.State{Phase: preview.PhaseIdle}
	o.mu.Unlock()

	if sub != nil {
		o.unsubscribe(sub)
	}
	if pending {
		metrics.Canceled.Inc()
	}
	o.broadcast(preview.State{Phase: preview.PhaseIdle})
}

// begin supersedes any prior request and transitions to the sync attempt.
func (o *Orchestrator) begin(ctx context.Context) (context.Context, context.CancelFunc, int) {
	o.mu.Lock()
	o.gen++
	gen := o.gen
	if o.cancel != nil {
		o.cancel()
	}
	prior := o.sub
	o.sub = nil
	reqCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	next := preview.State{Phase: preview.PhaseSyncAttempt}
	o.state = next
	o.mu.Unlock()

	if prior != nil {
		o.unsubscribe(prior)
		metrics.Canceled.Inc()
	}
	o.broadcast(next)
	return reqCtx, cancel, gen
}

func (o *Orchestrator) markPending(gen int, taskID string, sub transport.Subscription) bool {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return false
	}
	next := preview.State{Phase: preview.PhasePendingAsync, TaskID: taskID}
	o.state = next
	o.sub = sub
	o.mu.Unlock()
	o.broadcast(next)
	return true
}

func (o *Orchestrator) commitTerminal(gen int, result preview.Result) bool {
	o.mu.Lock()
	if gen != o.gen || o.state.Terminal() {
		o.mu.Unlock()
		return false
	}
	next := preview.State{Phase: preview.PhaseTerminal, Result: &result}
	o.state = next
	o.sub = nil
	o.cancel = nil
	o.mu.Unlock()
	o.broadcast(next)
	return true
}

func (o *Orchestrator) failEnqueue(ctx context.Context, gen int, cause error) (preview.Result, error) {
	metrics.EnqueueFailures.Inc()
	result := preview.Result{Kind: preview.ResultFailed, Reason: cause.Error()}
	if !o.commitTerminal(gen, result) {
		return preview.Result{}, preview.ErrSuperseded
	}
	o.notifier.Notify(ctx, notify.Notification{
		Level:   notify.LevelError,
		Message: preview.FailureNotice(result.Reason),
	})
	return result, fmt.Errorf("%w: %w", preview.ErrAsyncEnqueue, cause)
}

// await consumes push messages for the tracked task until a terminal one
// arrives, the caller's context ends, or the request is superseded. There
// is deliberately no client-side timeout on this phase.
func (o *Orchestrator) await(ctx, reqCtx context.Context, gen int, sub transport.Subscription) (preview.Result, error) {
	for {
		select {
		case <-reqCtx.Done():
			o.detach(gen, sub)
			return preview.Result{}, o.cancelCause(ctx)
		case msg, ok := <-sub.Messages():
			if !ok {
				o.detach(gen, sub)
				return preview.Result{}, o.cancelCause(ctx)
			}
			state, changed, err := o.apply(gen, msg)
			if err != nil {
				return preview.Result{}, err
			}
			if !changed {
				metrics.MessagesDiscarded.Inc()
				o.logger.Debug("push message discarded",
					zap.String("type", string(msg.Type)),
					zap.String("task_id", msg.TaskID),
				)
				continue
			}
			o.broadcast(state)
			if !state.Terminal() {
				continue
			}
			o.unsubscribe(sub)
			return o.finish(ctx, *state.Result)
		}
	}
}

// apply runs the reducer against the live state under the lock. It returns
// changed=false for discarded messages (cross-task or post-terminal).
func (o *Orchestrator) apply(gen int, msg preview.Message) (preview.State, bool, error) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return preview.State{}, false, preview.ErrSuperseded
	}
	next, err := preview.Reduce(o.state, msg)
	if err != nil {
		o.mu.Unlock()
		o.logger.Error("push message rejected by state machine", zap.Error(err))
		return preview.State{}, false, nil
	}
	changed := next.Phase != o.state.Phase ||
		next.StatusText != o.state.StatusText ||
		next.Result != o.state.Result
	if changed {
		o.state = next
		if next.Terminal() {
			o.sub = nil
			o.cancel = nil
		}
	}
	o.mu.Unlock()
	return next, changed, nil
}

func (o *Orchestrator) finish(ctx context.Context, result preview.Result) (preview.Result, error) {
	if result.Kind == preview.ResultFailed {
		metrics.TasksFailed.Inc()
		o.notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelError,
			Message: preview.FailureNotice(result.Reason),
		})
		return result, fmt.Errorf("%w: %s", preview.ErrAsyncTask, result.Reason)
	}
	metrics.TasksCompleted.Inc()
	o.notifier.Notify(ctx, notify.Notification{
		Level:   notify.LevelSuccess,
		Message: preview.SuccessNotice(result.Elements, result.TierInfo),
	})
	return result, nil
}

// detach drops the subscription for a canceled request without committing.
func (o *Orchestrator) detach(gen int, sub transport.Subscription) {
	o.mu.Lock()
	if gen == o.gen && o.sub == sub {
		o.sub = nil
		o.cancel = nil
		o.state = preview.State{Phase: preview.PhaseIdle}
	}
	o.mu.Unlock()
	o.unsubscribe(sub)
}

// cancelCause distinguishes a caller-initiated cancellation from a
// supersede/reset, which cancels the request context without touching the
// caller's.
func (o *Orchestrator) cancelCause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("preview request canceled: %w", err)
	}
	return preview.ErrSuperseded
}

func (o *Orchestrator) unsubscribe(sub transport.Subscription) {
	if sub == nil {
		return
	}
	if err := sub.Unsubscribe(context.Background()); err != nil {
		o.logger.Warn("unsubscribe task channel failed", zap.Error(err))
	}
}

func validateTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q", preview.ErrInvalidInput, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", preview.ErrInvalidInput, u.Scheme)
	}
	return nil
}
