package vendorexport

import (
	"testing"

	"github.com/waferstrat/sampler/pkg/registry"
)

type fakeEmitter struct{ name string }

func (f fakeEmitter) Name() string        { return f.name }
func (f fakeEmitter) ContentType() string { return "application/octet-stream" }
func (f fakeEmitter) Emit(points []SitePoint, meta Meta, validation *ValidationSummary) ([]byte, error) {
	return nil, nil
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := Builtins
	if _, err := reg.Get("doesNotExist"); err == nil {
		t.Fatal("expected an error for an unregistered vendor emitter")
	}

	fresh := registry.New[Emitter]("vendorEmitter")
	fresh.Register("fake", fakeEmitter{name: "fake"})
	got, err := fresh.Get("fake")
	if err != nil {
		t.Fatalf("Get(fake) returned error: %v", err)
	}
	if got.Name() != "fake" {
		t.Errorf("Name() = %q, want fake", got.Name())
	}
}
