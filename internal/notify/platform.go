package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/todod/internal/storage"
)

// ExecPlatform shows notifications through notify-send on Linux and
// osascript on macOS. The permission a user grants is kept in the kv store,
// since the desktop has no per-application permission of its own.
type ExecPlatform struct {
	kv       storage.KV
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error

	mu     sync.Mutex
	perm   Permission
	loaded bool
}

func NewExecPlatform(kv storage.KV) *ExecPlatform {
	return &ExecPlatform{
		kv:       kv,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (p *ExecPlatform) tool() string {
	var name string
	switch p.goos {
	case "linux":
		name = "notify-send"
	case "darwin":
		name = "osascript"
	default:
		return ""
	}
	if _, err := p.lookPath(name); err != nil {
		return ""
	}
	return name
}

func (p *ExecPlatform) Permission() Permission {
	if p.tool() == "" {
		return PermissionDenied
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		p.perm = PermissionDefault
		if raw, ok, err := p.kv.Get(context.Background(), storage.KeyNotificationPermission); err == nil && ok {
			if perm := Permission(raw); perm.IsValid() {
				p.perm = perm
			}
		}
		p.loaded = true
	}
	return p.perm
}

// RequestPermission sends a sample notification; if the desktop accepts it
// the permission is granted, otherwise denied.
func (p *ExecPlatform) RequestPermission(ctx context.Context) (Permission, error) {
	if p.tool() == "" {
		return PermissionDenied, nil
	}
	perm := PermissionGranted
	sample := Notification{Title: "todod", Body: "Task reminders will appear like this."}
	if err := p.send(ctx, sample); err != nil {
		if ctx.Err() != nil {
			return PermissionDefault, ctx.Err()
		}
		perm = PermissionDenied
	}
	return perm, p.save(ctx, perm)
}

// ResetPermission forgets a previous grant or denial.
func (p *ExecPlatform) ResetPermission(ctx context.Context) error {
	err := p.kv.Delete(ctx, storage.KeyNotificationPermission)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("reset permission: %w", err)
	}
	p.mu.Lock()
	p.perm = PermissionDefault
	p.loaded = true
	p.mu.Unlock()
	return nil
}

// Reload drops the cached permission; the next Permission call reads the
// store again.
func (p *ExecPlatform) Reload() {
	p.mu.Lock()
	p.loaded = false
	p.mu.Unlock()
}

func (p *ExecPlatform) save(ctx context.Context, perm Permission) error {
	if err := p.kv.Set(ctx, storage.KeyNotificationPermission, string(perm)); err != nil {
		return fmt.Errorf("save permission: %w", err)
	}
	p.mu.Lock()
	p.perm = perm
	p.loaded = true
	p.mu.Unlock()
	return nil
}

func (p *ExecPlatform) Show(n Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.send(ctx, n)
}

func (p *ExecPlatform) send(ctx context.Context, n Notification) error {
	switch p.tool() {
	case "notify-send":
		args := []string{"--app-name=todod"}
		if n.RequireInteraction {
			args = append(args, "--urgency=critical")
		}
		return p.run(ctx, "notify-send", append(args, n.Title, n.Body)...)
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return p.run(ctx, "osascript", "-e", script)
	default:
		return fmt.Errorf("notify: no notification tool on %s", p.goos)
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// WriterPlatform prints notifications as lines, for headless runs.
type WriterPlatform struct {
	mu sync.Mutex
	W  io.Writer
}

func (p *WriterPlatform) Permission() Permission { return PermissionGranted }

func (p *WriterPlatform) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (p *WriterPlatform) Show(n Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.W, "%s %s: %s\n", n.Icon, n.Title, n.Body)
	return err
}
