package partner

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rickgao/partner-reports/internal/model"
)

func stubAdapter(id string) Adapter {
	return FetchFunc{
		PartnerID: id,
		Fn: func(ctx context.Context, prior model.CursorState, creds model.Credentials) (FetchResult, error) {
			return FetchResult{}, nil
		},
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := NewRegistry(stubAdapter("sideshift"), stubAdapter("changenow"))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	a, err := r.Lookup("sideshift")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if a.ID() != "sideshift" {
		t.Errorf("ID() = %q, want %q", a.ID(), "sideshift")
	}

	if got := r.IDs(); !reflect.DeepEqual(got, []string{"changenow", "sideshift"}) {
		t.Errorf("IDs() = %v, want [changenow sideshift]", got)
	}
}

func TestRegistry_UnknownPartner(t *testing.T) {
	r, _ := NewRegistry()

	_, err := r.Lookup("nope")
	if !errors.Is(err, ErrUnknownPartner) {
		t.Fatalf("Lookup() error = %v, want ErrUnknownPartner", err)
	}
	var upe *UnknownPartnerError
	if !errors.As(err, &upe) || upe.PartnerID != "nope" {
		t.Errorf("error = %#v, want *UnknownPartnerError{PartnerID: nope}", err)
	}
}

func TestRegistry_DuplicateID(t *testing.T) {
	if _, err := NewRegistry(stubAdapter("a"), stubAdapter("a")); err == nil {
		t.Error("NewRegistry() expected duplicate error, got nil")
	}
	r, _ := NewRegistry()
	if err := r.Register(stubAdapter("")); err == nil {
		t.Error("Register() expected error for empty id, got nil")
	}
}
