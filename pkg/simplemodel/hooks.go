package simplemodel

import (
	"context"
)

// Model lifecycle hooks. A model opts in by implementing any of these
// interfaces; the store asserts for them around each operation. A non-nil
// error from a Will* hook cancels the operation and surfaces as a
// HookAbortError. Did* hook errors are returned after the operation has
// already taken effect.

// WillCreateHook is called before a model is first persisted.
type WillCreateHook interface {
	WillCreate(ctx context.Context) error
}

// DidCreateHook is called after a model is first persisted.
type DidCreateHook interface {
	DidCreate(ctx context.Context) error
}

// WillUpdateHook is called before a saved model is updated.
type WillUpdateHook interface {
	WillUpdate(ctx context.Context) error
}

// DidUpdateHook is called after a saved model is updated.
type DidUpdateHook interface {
	DidUpdate(ctx context.Context) error
}

// WillDeleteHook is called before a model is permanently deleted.
type WillDeleteHook interface {
	WillDelete(ctx context.Context) error
}

// DidDeleteHook is called after a model is permanently deleted.
type DidDeleteHook interface {
	DidDelete(ctx context.Context) error
}

// WillSoftDeleteHook is called before a model is soft-deleted.
type WillSoftDeleteHook interface {
	WillSoftDelete(ctx context.Context) error
}

// DidSoftDeleteHook is called after a model is soft-deleted.
type DidSoftDeleteHook interface {
	DidSoftDelete(ctx context.Context) error
}

// WillRestoreHook is called before a soft-deleted model is restored.
type WillRestoreHook interface {
	WillRestore(ctx context.Context) error
}

// DidRestoreHook is called after a soft-deleted model is restored.
type DidRestoreHook interface {
	DidRestore(ctx context.Context) error
}

// Database-level hooks extend store behavior without modifying core code.
// They run for every entity, around the model's own lifecycle hooks.

// Hooks defines all available database-level hooks.
type Hooks struct {
	BeforeSave   []BeforeSaveHook
	AfterSave    []AfterSaveHook
	BeforeDelete []BeforeDeleteHook
	AfterDelete  []AfterDeleteHook

	// Error hooks
	OnError []ErrorHook
}

// HookContext carries information through a hook chain.
type HookContext struct {
	Context   context.Context
	Metadata  map[string]any // Custom metadata passed between hooks
	StopChain bool           // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context.
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]any),
	}
}

// BeforeSaveHook is called before a record is inserted or updated.
type BeforeSaveHook func(hctx *HookContext, entity string, rec Record) error

// AfterSaveHook is called after a record is inserted or updated.
type AfterSaveHook func(hctx *HookContext, entity string, rec Record) error

// BeforeDeleteHook is called before a record is deleted (soft or hard).
type BeforeDeleteHook func(hctx *HookContext, entity string, id any) error

// AfterDeleteHook is called after a record is deleted (soft or hard).
type AfterDeleteHook func(hctx *HookContext, entity string, id any) error

// ErrorHook is called when a store operation fails.
type ErrorHook func(hctx *HookContext, entity, operation string, err error)

// executeBeforeSave runs all BeforeSave hooks.
func (h *Hooks) executeBeforeSave(ctx context.Context, entity string, rec Record) error {
	if h == nil || len(h.BeforeSave) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeSave {
		if err := hook(hctx, entity, rec); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeAfterSave runs all AfterSave hooks.
func (h *Hooks) executeAfterSave(ctx context.Context, entity string, rec Record) error {
	if h == nil || len(h.AfterSave) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterSave {
		if err := hook(hctx, entity, rec); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeBeforeDelete runs all BeforeDelete hooks.
func (h *Hooks) executeBeforeDelete(ctx context.Context, entity string, id any) error {
	if h == nil || len(h.BeforeDelete) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeDelete {
		if err := hook(hctx, entity, id); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeAfterDelete runs all AfterDelete hooks.
func (h *Hooks) executeAfterDelete(ctx context.Context, entity string, id any) error {
	if h == nil || len(h.AfterDelete) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterDelete {
		if err := hook(hctx, entity, id); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeOnError runs all OnError hooks.
func (h *Hooks) executeOnError(ctx context.Context, entity, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, entity, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// Common hook implementations (examples)

// LoggingHooks logs all save and delete operations.
func LoggingHooks(logger func(format string, args ...any)) *Hooks {
	return &Hooks{
		AfterSave: []AfterSaveHook{
			func(hctx *HookContext, entity string, rec Record) error {
				logger("record saved: entity=%s record=%v", entity, rec)
				return nil
			},
		},
		AfterDelete: []AfterDeleteHook{
			func(hctx *HookContext, entity string, id any) error {
				logger("record deleted: entity=%s id=%v", entity, id)
				return nil
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, entity, operation string, err error) {
				logger("error in %s for entity %s: %v", operation, entity, err)
			},
		},
	}
}

// ValidationHooks adds custom validation before every save.
func ValidationHooks(validator func(entity string, rec Record) error) *Hooks {
	return &Hooks{
		BeforeSave: []BeforeSaveHook{
			func(hctx *HookContext, entity string, rec Record) error {
				return validator(entity, rec)
			},
		},
	}
}
