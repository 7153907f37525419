package sources

import (
	"context"
	"testing"
	"time"

	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/logger"
)

type fakeAdapter struct {
	name string
}

func (f *fakeAdapter) Name() string     { return f.name }
func (f *fakeAdapter) Currency() string { return "PKR" }
func (f *fakeAdapter) Fetch(ctx context.Context, query string, maxResults int) ([]catalog.RawProduct, error) {
	return nil, nil
}

func TestRegistryOrder(t *testing.T) {
	r, err := NewRegistry(&fakeAdapter{"daraz"}, &fakeAdapter{"alfatah"}, &fakeAdapter{"imtiaz"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	want := []string{"daraz", "alfatah", "imtiaz"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if pos := r.Position("alfatah"); pos != 1 {
		t.Errorf("Position(alfatah) = %d, want 1", pos)
	}
	if pos := r.Position("nope"); pos != -1 {
		t.Errorf("Position(nope) = %d, want -1", pos)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	_, err := NewRegistry(&fakeAdapter{"daraz"}, &fakeAdapter{"daraz"})
	if err == nil {
		t.Fatal("expected error for duplicate adapter")
	}
}

func TestRegistryEmpty(t *testing.T) {
	if _, err := NewRegistry(); err == nil {
		t.Fatal("expected error for empty registry")
	}
}

func TestSubsetKeepsRegistryOrder(t *testing.T) {
	r, err := NewRegistry(&fakeAdapter{"alfatah"}, &fakeAdapter{"daraz"}, &fakeAdapter{"imtiaz"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	// request out of order; registry order must win
	subset, err := r.Subset([]string{"imtiaz", "alfatah"})
	if err != nil {
		t.Fatalf("Subset() error = %v", err)
	}
	if len(subset) != 2 {
		t.Fatalf("Subset() returned %d adapters, want 2", len(subset))
	}
	if subset[0].Name() != "alfatah" || subset[1].Name() != "imtiaz" {
		t.Errorf("Subset() order = [%s %s], want [alfatah imtiaz]", subset[0].Name(), subset[1].Name())
	}
}

func TestSubsetUnknownSource(t *testing.T) {
	r, _ := NewRegistry(&fakeAdapter{"alfatah"})
	if _, err := r.Subset([]string{"walmart"}); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestAdaptersHonorTimeout(t *testing.T) {
	// adapters must be constructible with any positive timeout
	log := logger.Nop()
	a := NewAlfatah("http://example.test", 50*time.Millisecond, log)
	if a.Name() != "alfatah" || a.Currency() != "PKR" {
		t.Errorf("unexpected adapter identity: %s/%s", a.Name(), a.Currency())
	}
}
