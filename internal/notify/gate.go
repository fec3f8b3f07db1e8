// Package notify gates reminder delivery on platform permission and the
// user's own on/off switch.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/todod/internal/logging"
	"github.com/sandeepkv93/todod/internal/storage"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

func (p Permission) IsValid() bool {
	switch p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return true
	default:
		return false
	}
}

type Notification struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
	Icon               string
}

// Platform is the system notification facility. RequestPermission may block
// until the user or platform decides.
type Platform interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(n Notification) error
}

type Outcome string

const (
	OutcomeEnabled  Outcome = "enabled"
	OutcomeDisabled Outcome = "disabled"
	OutcomeBlocked  Outcome = "blocked"
	OutcomeRefused  Outcome = "refused"
)

const BlockedInstructions = "Notifications are blocked!\n\n" +
	"To enable:\n\n" +
	"1. Allow notifications for todod in your system notification settings\n" +
	"2. Make sure a notification tool is installed (notify-send on Linux)\n" +
	"3. Run `todod notify --reset` and enable notifications again\n"

var (
	ErrPermissionRequest = errors.New("notify: permission request failed")

	confirmation = Notification{
		Title: "Notifications Enabled!",
		Body:  "You will now receive reminders for your tasks.",
		Icon:  "✅",
	}
)

type Gate struct {
	reqMu    sync.Mutex
	mu       sync.Mutex
	platform Platform
	kv       storage.KV
	audio    AudioCue
	logger   *log.Logger
	// enabled mirrors the notificationsEnabled key
	enabled bool
}

// NewGate syncs the stored flag with the platform: a granted platform with
// no stored flag starts enabled, and anything short of granted forces the
// flag off so a stale "true" cannot outlive a revoked permission.
func NewGate(ctx context.Context, platform Platform, kv storage.KV, audio AudioCue, logger *log.Logger) (*Gate, error) {
	if platform == nil {
		return nil, errors.New("notify: nil platform")
	}
	if audio == nil {
		audio = NoopCue{}
	}
	g := &Gate{
		platform: platform,
		kv:       kv,
		audio:    audio,
		logger:   logging.OrDiscard(logger),
	}

	stored, ok, err := kv.Get(ctx, storage.KeyNotificationsEnabled)
	if err != nil {
		g.logger.Warn("could not read notification flag", "err", err)
		ok = false
	}
	if err := g.sync(ctx, stored, ok); err != nil {
		return nil, err
	}
	return g, nil
}

// Refresh re-reads the stored flag and the platform permission, so a toggle
// or reset made by another process is seen, and applies the same sync rule
// as NewGate. It does nothing while a permission request is in flight.
func (g *Gate) Refresh(ctx context.Context) {
	if !g.reqMu.TryLock() {
		return
	}
	defer g.reqMu.Unlock()

	if r, ok := g.platform.(interface{ Reload() }); ok {
		r.Reload()
	}
	stored, ok, err := g.kv.Get(ctx, storage.KeyNotificationsEnabled)
	if err != nil {
		g.logger.Warn("could not re-read notification flag", "err", err)
		return
	}
	before := g.UserEnabled()
	if err := g.sync(ctx, stored, ok); err != nil {
		g.logger.Warn("could not sync notification flag", "err", err)
		return
	}
	if after := g.UserEnabled(); after != before {
		g.logger.Info("notification flag changed elsewhere", "enabled", after)
	}
}

// sync derives enabled from the platform permission and the stored flag,
// writing the flag back when the two disagree.
func (g *Gate) sync(ctx context.Context, stored string, ok bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.platform.Permission() != PermissionGranted:
		g.enabled = false
		if !ok || stored != "false" {
			return g.store(ctx, false)
		}
	case !ok:
		g.enabled = true
		return g.store(ctx, true)
	default:
		g.enabled = stored == "true"
	}
	return nil
}

func (g *Gate) Permission() Permission {
	return g.platform.Permission()
}

func (g *Gate) UserEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

func (g *Gate) IsActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.platform.Permission() == PermissionGranted && g.enabled
}

// RequestEnable is the settings toggle. Concurrent calls are serialized; the
// gate stays readable while a permission request waits on the user. Errors
// only come from a failed permission request or from persisting the flag and
// are never fatal.
func (g *Gate) RequestEnable(ctx context.Context) (Outcome, error) {
	g.reqMu.Lock()
	defer g.reqMu.Unlock()

	perm := g.platform.Permission()
	switch {
	case perm == PermissionDenied:
		return OutcomeBlocked, nil
	case perm == PermissionGranted && g.UserEnabled():
		if err := g.setEnabled(ctx, false); err != nil {
			return OutcomeEnabled, err
		}
		g.logger.Info("notifications disabled")
		return OutcomeDisabled, nil
	case perm == PermissionGranted:
		return g.enableAndConfirm(ctx)
	}

	g.logger.Debug("requesting notification permission")
	granted, err := g.platform.RequestPermission(ctx)
	if err != nil {
		g.logger.Error("error requesting notification permission", "err", err)
		return OutcomeRefused, fmt.Errorf("%w: %v", ErrPermissionRequest, err)
	}
	if granted != PermissionGranted {
		g.logger.Info("notification permission refused", "permission", granted)
		return OutcomeRefused, nil
	}
	return g.enableAndConfirm(ctx)
}

func (g *Gate) enableAndConfirm(ctx context.Context) (Outcome, error) {
	if err := g.setEnabled(ctx, true); err != nil {
		return OutcomeRefused, err
	}
	g.logger.Info("notifications enabled")
	g.Show(confirmation)
	return OutcomeEnabled, nil
}

// Show delivers n when the gate is active and reports whether it did.
func (g *Gate) Show(n Notification) bool {
	if !g.IsActive() {
		return false
	}
	if n.Icon == "" {
		n.Icon = "📋"
	}
	if err := g.platform.Show(n); err != nil {
		g.logger.Warn("could not show notification", "tag", n.Tag, "err", err)
		return false
	}
	if err := g.audio.Play(); err != nil {
		g.logger.Debug("could not play notification sound", "err", err)
	}
	return true
}

func (g *Gate) setEnabled(ctx context.Context, v bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store(ctx, v); err != nil {
		return err
	}
	g.enabled = v
	return nil
}

func (g *Gate) store(ctx context.Context, v bool) error {
	value := "false"
	if v {
		value = "true"
	}
	if err := g.kv.Set(ctx, storage.KeyNotificationsEnabled, value); err != nil {
		return fmt.Errorf("save notification flag: %w", err)
	}
	return nil
}

type StatusKind string

const (
	StatusActive     StatusKind = "active"
	StatusPaused     StatusKind = "paused"
	StatusBlocked    StatusKind = "blocked"
	StatusNotEnabled StatusKind = "not-enabled"
)

// StatusView is what the settings panel shows for the gate.
type StatusView struct {
	Kind   StatusKind
	Text   string
	Action string
}

func (g *Gate) Status() StatusView {
	perm := g.platform.Permission()
	enabled := g.UserEnabled()
	switch {
	case perm == PermissionGranted && enabled:
		return StatusView{Kind: StatusActive, Text: "Enabled and active", Action: "Disable"}
	case perm == PermissionGranted:
		return StatusView{Kind: StatusPaused, Text: "Paused", Action: "Enable"}
	case perm == PermissionDenied:
		return StatusView{Kind: StatusBlocked, Text: "Blocked - allow notifications in system settings", Action: "How to Fix"}
	default:
		return StatusView{Kind: StatusNotEnabled, Text: "Not enabled", Action: "Enable"}
	}
}
