package form_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tdpcorpsa/singup/internal/domain"
	"github.com/tdpcorpsa/singup/internal/form"
)

// ---- fakes ----

type fakeLookup struct {
	lookup func(ctx context.Context, dni string) (*domain.WorkerRecord, error)
	calls  int
}

func (f *fakeLookup) Lookup(ctx context.Context, dni string) (*domain.WorkerRecord, error) {
	f.calls++
	return f.lookup(ctx, dni)
}

type fakeRequester struct {
	request func(ctx context.Context, d domain.Draft) error
	calls   int
	last    domain.Draft
}

func (f *fakeRequester) RequestVerification(ctx context.Context, d domain.Draft) error {
	f.calls++
	f.last = d
	return f.request(ctx, d)
}

func activeRecord() *domain.WorkerRecord {
	return &domain.WorkerRecord{Estado: "ACTIVO", Nombre: "García Pérez Juan Carlos", Mail: ""}
}

func newController(lookup *fakeLookup, requester *fakeRequester) *form.Controller {
	if lookup.lookup == nil {
		lookup.lookup = func(_ context.Context, _ string) (*domain.WorkerRecord, error) {
			return activeRecord(), nil
		}
	}
	if requester.request == nil {
		requester.request = func(_ context.Context, _ domain.Draft) error { return nil }
	}
	return form.NewController(lookup, requester)
}

// fillContactFields brings a confirmed controller to a submittable state.
func fillContactFields(c *form.Controller) {
	c.SetMail("juan@example.com")
	c.SetClave("secret1")
	c.SetConfirmarClave("secret1")
}

// ---- Search ----

func TestSearch_ActiveUnclaimed_SplitsNameAndConfirms(t *testing.T) {
	lookup := &fakeLookup{}
	c := newController(lookup, &fakeRequester{})

	c.SetUsername("12345678")
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := c.Draft()
	if d.Apellidos != "García Pérez" {
		t.Errorf("apellidos = %q, want %q", d.Apellidos, "García Pérez")
	}
	if d.Nombres != "Juan Carlos" {
		t.Errorf("nombres = %q, want %q", d.Nombres, "Juan Carlos")
	}
	if !c.IdentityConfirmed() {
		t.Error("identity should be confirmed")
	}
}

func TestSearch_Inactive_RejectedNotActive(t *testing.T) {
	lookup := &fakeLookup{
		lookup: func(_ context.Context, _ string) (*domain.WorkerRecord, error) {
			return &domain.WorkerRecord{Estado: "INACTIVO"}, nil
		},
	}
	c := newController(lookup, &fakeRequester{})

	c.SetUsername("99999999")
	err := c.Search(context.Background())

	var rej *domain.LookupRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("want LookupRejectedError, got %v", err)
	}
	if rej.Reason != domain.RejectNotActive {
		t.Errorf("reason = %q, want %q", rej.Reason, domain.RejectNotActive)
	}
	if c.IdentityConfirmed() {
		t.Error("identity must not be confirmed")
	}
}

func TestSearch_ActiveWithEmailOnFile_RejectedAlreadyRegistered(t *testing.T) {
	lookup := &fakeLookup{
		lookup: func(_ context.Context, _ string) (*domain.WorkerRecord, error) {
			return &domain.WorkerRecord{Estado: "ACTIVO", Nombre: "García Pérez Juan Carlos", Mail: "x@y.com"}, nil
		},
	}
	c := newController(lookup, &fakeRequester{})

	c.SetUsername("12345678")
	err := c.Search(context.Background())

	var rej *domain.LookupRejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("want LookupRejectedError, got %v", err)
	}
	if rej.Reason != domain.RejectAlreadyRegistered {
		t.Errorf("reason = %q, want %q", rej.Reason, domain.RejectAlreadyRegistered)
	}
}

func TestSearch_ShortDNI_IsNoOp(t *testing.T) {
	lookup := &fakeLookup{}
	c := newController(lookup, &fakeRequester{})

	c.SetUsername("1234567")
	if c.CanSearch() {
		t.Error("guard should fail for a short DNI")
	}
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookup.calls != 0 {
		t.Errorf("lookup called %d times, want 0", lookup.calls)
	}
}

func TestSearch_TransportError_GuardReleased(t *testing.T) {
	boom := errors.New("connection refused")
	attempts := 0
	lookup := &fakeLookup{
		lookup: func(_ context.Context, _ string) (*domain.WorkerRecord, error) {
			attempts++
			if attempts == 1 {
				return nil, boom
			}
			return activeRecord(), nil
		},
	}
	c := newController(lookup, &fakeRequester{})

	c.SetUsername("12345678")
	if err := c.Search(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want wrapped transport error, got %v", err)
	}

	// The busy flag is released, so the user can retry.
	if !c.CanSearch() {
		t.Fatal("search guard still held after failure")
	}
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !c.IdentityConfirmed() {
		t.Error("identity should be confirmed after retry")
	}
}

func TestSearch_ReentrantTrigger_IsNoOp(t *testing.T) {
	lookup := &fakeLookup{}
	var c *form.Controller
	lookup.lookup = func(ctx context.Context, _ string) (*domain.WorkerRecord, error) {
		// A second trigger while the lookup is outstanding must fail the guard.
		if c.CanSearch() {
			t.Error("guard open during outstanding lookup")
		}
		if err := c.Search(ctx); err != nil {
			t.Errorf("reentrant search returned error: %v", err)
		}
		return activeRecord(), nil
	}
	c = newController(lookup, &fakeRequester{})

	c.SetUsername("12345678")
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookup.calls != 1 {
		t.Errorf("lookup called %d times, want 1", lookup.calls)
	}
}

func TestSetUsername_DropsConfirmedIdentity(t *testing.T) {
	c := newController(&fakeLookup{}, &fakeRequester{})

	c.SetUsername("12345678")
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.SetUsername("87654321")
	if c.IdentityConfirmed() {
		t.Error("editing the DNI must drop the confirmation")
	}
}

// ---- Submit guard ----

func TestCanSubmit_RequiresEveryGuard(t *testing.T) {
	c := newController(&fakeLookup{}, &fakeRequester{})
	c.SetUsername("12345678")
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fillContactFields(c)

	if !c.CanSubmit() {
		t.Fatal("fully-filled confirmed draft should be submittable")
	}

	spoil := []struct {
		name  string
		spoil func(*form.Controller)
	}{
		{"empty nombres", func(c *form.Controller) { c.SetNombres("  ") }},
		{"empty apellidos", func(c *form.Controller) { c.SetApellidos("") }},
		{"bad email", func(c *form.Controller) { c.SetMail("invalid-email") }},
		{"short clave", func(c *form.Controller) { c.SetClave("12345"); c.SetConfirmarClave("12345") }},
		{"mismatch", func(c *form.Controller) { c.SetConfirmarClave("different") }},
		{"identity dropped", func(c *form.Controller) { c.SetUsername("11112222") }},
	}
	for _, tc := range spoil {
		c := newController(&fakeLookup{}, &fakeRequester{})
		c.SetUsername("12345678")
		if err := c.Search(context.Background()); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		fillContactFields(c)
		tc.spoil(c)
		if c.CanSubmit() {
			t.Errorf("%s: submit guard should fail", tc.name)
		}
	}
}

// ---- Submit ----

func TestSubmit_HappyPath_SendsOnceAndClearsDraft(t *testing.T) {
	requester := &fakeRequester{}
	c := newController(&fakeLookup{}, requester)

	c.SetUsername("12345678")
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fillContactFields(c)

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requester.calls != 1 {
		t.Fatalf("verification requested %d times, want 1", requester.calls)
	}
	sent := requester.last
	if sent.Username != "12345678" || sent.Nombres != "Juan Carlos" ||
		sent.Apellidos != "García Pérez" || sent.Mail != "juan@example.com" || sent.Clave != "secret1" {
		t.Errorf("unexpected submitted draft: %+v", sent)
	}

	if got := c.Draft(); got != (domain.Draft{}) {
		t.Errorf("draft not cleared: %+v", got)
	}
	if c.IdentityConfirmed() {
		t.Error("identity confirmation should be cleared")
	}
	if !c.TakeEmailSent() {
		t.Error("one-shot notification missing")
	}
	if c.TakeEmailSent() {
		t.Error("notification must be one-shot")
	}
}

func TestSubmit_Failure_KeepsDraftForRetry(t *testing.T) {
	sendErr := errors.New("smtp unavailable")
	fail := true
	requester := &fakeRequester{
		request: func(_ context.Context, _ domain.Draft) error {
			if fail {
				return sendErr
			}
			return nil
		},
	}
	c := newController(&fakeLookup{}, requester)

	c.SetUsername("12345678")
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fillContactFields(c)

	if err := c.Submit(context.Background()); !errors.Is(err, sendErr) {
		t.Fatalf("want wrapped sendErr, got %v", err)
	}

	if c.Draft().Mail != "juan@example.com" {
		t.Error("draft must survive a failed submit")
	}
	if c.TakeEmailSent() {
		t.Error("no notification on failure")
	}

	fail = false
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if requester.calls != 2 {
		t.Errorf("requester called %d times, want 2", requester.calls)
	}
}

func TestSubmit_GuardFailure_IsNoOp(t *testing.T) {
	requester := &fakeRequester{}
	c := newController(&fakeLookup{}, requester)

	// Identity never confirmed.
	fillContactFields(c)
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requester.calls != 0 {
		t.Errorf("requester called %d times, want 0", requester.calls)
	}
}

// ---- Reset ----

func TestReset_ClearsEverything(t *testing.T) {
	c := newController(&fakeLookup{}, &fakeRequester{})

	c.SetUsername("12345678")
	if err := c.Search(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fillContactFields(c)

	c.Reset()

	if got := c.Draft(); got != (domain.Draft{}) {
		t.Errorf("draft not cleared: %+v", got)
	}
	if c.IdentityConfirmed() {
		t.Error("identity confirmation should be cleared")
	}
	if c.CanSubmit() {
		t.Error("submit guard should fail after reset")
	}
}

// ---- Name splitting ----

func TestSplitFullName(t *testing.T) {
	cases := []struct {
		full      string
		apellidos string
		nombres   string
	}{
		{"García Pérez Juan Carlos", "García Pérez", "Juan Carlos"},
		{"García Pérez Juan", "García Pérez", "Juan"},
		{"García Pérez", "García Pérez", ""},
		{"García", "García", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		apellidos, nombres := domain.SplitFullName(tc.full)
		if apellidos != tc.apellidos || nombres != tc.nombres {
			t.Errorf("SplitFullName(%q) = (%q, %q), want (%q, %q)",
				tc.full, apellidos, nombres, tc.apellidos, tc.nombres)
		}
	}
}
