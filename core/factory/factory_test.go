package factory

import (
	"strings"
	"testing"
	"time"
)

type widget struct {
	Size int
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	r := NewRegistry[*widget]()
	err := r.Register("basic", func(conf map[string]any) (*widget, error) {
		var c struct {
			Size int `json:"size"`
		}
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &widget{Size: c.Size}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	w, err := r.Create(ModuleConfig{Type: "basic", Conf: map[string]any{"size": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.Size != 3 {
		t.Fatalf("size = %d", w.Size)
	}
}

func TestRegistryDuplicateAndUnknown(t *testing.T) {
	r := NewRegistry[*widget]()
	mk := func(map[string]any) (*widget, error) { return &widget{}, nil }
	if err := r.Register("dup", mk); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("dup", mk); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if err := r.Register("nil", nil); err == nil {
		t.Fatal("nil factory accepted")
	}
	if _, err := r.Create(ModuleConfig{Type: "missing"}); err == nil || !strings.Contains(err.Error(), "unknown module type") {
		t.Fatalf("unknown type: %v", err)
	}
	if got := r.Types(); len(got) != 1 || got[0] != "dup" {
		t.Fatalf("types = %v", got)
	}
}

func TestDecodeUsesJSONTags(t *testing.T) {
	var out struct {
		URL     string        `json:"url"`
		Retries int           `json:"retries"`
		Flush   time.Duration `json:"flush"`
	}
	err := Decode(map[string]any{"url": "http://localhost", "retries": 2, "flush": "5s"}, &out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.URL != "http://localhost" || out.Retries != 2 {
		t.Fatalf("decoded = %+v", out)
	}
	if out.Flush != 5*time.Second {
		t.Fatalf("flush = %v", out.Flush)
	}
}
