package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandeepkv93/todod/internal/storage"
)

type recordedCall struct {
	name string
	args []string
}

func newExecPlatform(goos string, installed bool, runErr error) (*ExecPlatform, *[]recordedCall) {
	var calls []recordedCall
	p := NewExecPlatform(storage.NewMemoryKV())
	p.goos = goos
	p.lookPath = func(name string) (string, error) {
		if !installed {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	p.run = func(_ context.Context, name string, args ...string) error {
		calls = append(calls, recordedCall{name: name, args: args})
		return runErr
	}
	return p, &calls
}

func TestExecPlatformMissingToolIsDenied(t *testing.T) {
	p, calls := newExecPlatform("linux", false, nil)
	if got := p.Permission(); got != PermissionDenied {
		t.Fatalf("permission = %s, want denied", got)
	}
	perm, err := p.RequestPermission(testContext(t))
	if err != nil || perm != PermissionDenied {
		t.Fatalf("request = %s, %v", perm, err)
	}
	if len(*calls) != 0 {
		t.Fatalf("no command should run, got %+v", *calls)
	}

	p, _ = newExecPlatform("windows", true, nil)
	if got := p.Permission(); got != PermissionDenied {
		t.Fatalf("unsupported platform should be denied, got %s", got)
	}
}

func TestExecPlatformRequestStoresGrant(t *testing.T) {
	p, calls := newExecPlatform("linux", true, nil)
	if got := p.Permission(); got != PermissionDefault {
		t.Fatalf("fresh permission = %s, want default", got)
	}
	perm, err := p.RequestPermission(testContext(t))
	if err != nil || perm != PermissionGranted {
		t.Fatalf("request = %s, %v", perm, err)
	}
	if p.Permission() != PermissionGranted {
		t.Fatal("grant should stick")
	}
	stored, _, _ := p.kv.Get(testContext(t), storage.KeyNotificationPermission)
	if stored != "granted" {
		t.Fatalf("stored permission = %q", stored)
	}
	if len(*calls) != 1 || (*calls)[0].name != "notify-send" {
		t.Fatalf("expected sample via notify-send, got %+v", *calls)
	}

	if err := p.ResetPermission(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if p.Permission() != PermissionDefault {
		t.Fatal("reset should return to default")
	}
	if _, ok, _ := p.kv.Get(testContext(t), storage.KeyNotificationPermission); ok {
		t.Fatal("reset should remove the stored permission")
	}
	if err := p.ResetPermission(testContext(t)); err != nil {
		t.Fatalf("resetting twice should be fine: %v", err)
	}
}

func TestExecPlatformReloadSeesOtherWriters(t *testing.T) {
	p, _ := newExecPlatform("linux", true, nil)
	if got := p.Permission(); got != PermissionDefault {
		t.Fatalf("fresh permission = %s", got)
	}
	_ = p.kv.Set(testContext(t), storage.KeyNotificationPermission, string(PermissionGranted))
	if got := p.Permission(); got != PermissionDefault {
		t.Fatalf("cached permission should hold until reload, got %s", got)
	}
	p.Reload()
	if got := p.Permission(); got != PermissionGranted {
		t.Fatalf("permission after reload = %s, want granted", got)
	}
}

func TestExecPlatformFailedSampleDenies(t *testing.T) {
	p, _ := newExecPlatform("linux", true, errors.New("exit status 1"))
	perm, err := p.RequestPermission(testContext(t))
	if err != nil || perm != PermissionDenied {
		t.Fatalf("request = %s, %v", perm, err)
	}
	if p.Permission() != PermissionDenied {
		t.Fatal("denial should stick")
	}
}

func TestExecPlatformShowArgs(t *testing.T) {
	p, calls := newExecPlatform("linux", true, nil)
	if err := p.Show(Notification{Title: "Task Due Now!", Body: `"Pay rent" is due now!`, RequireInteraction: true}); err != nil {
		t.Fatal(err)
	}
	args := strings.Join((*calls)[0].args, " ")
	if !strings.Contains(args, "--urgency=critical") || !strings.HasSuffix(args, `Task Due Now! "Pay rent" is due now!`) {
		t.Fatalf("unexpected notify-send args: %q", args)
	}

	p, calls = newExecPlatform("darwin", true, nil)
	if err := p.Show(Notification{Title: "Upcoming Task", Body: `"a\b" is due in 5 minutes`}); err != nil {
		t.Fatal(err)
	}
	script := (*calls)[0].args[1]
	if !strings.Contains(script, `\"a\\b\" is due in 5 minutes`) || !strings.Contains(script, `with title "Upcoming Task"`) {
		t.Fatalf("unexpected osascript: %q", script)
	}
}

func TestWriterPlatform(t *testing.T) {
	var buf bytes.Buffer
	p := &WriterPlatform{W: &buf}
	if p.Permission() != PermissionGranted {
		t.Fatal("writer platform is always granted")
	}
	if err := p.Show(Notification{Title: "Upcoming Task", Body: "soon", Icon: "📋"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "📋 Upcoming Task: soon\n" {
		t.Fatalf("got %q", buf.String())
	}
}
