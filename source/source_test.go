package source

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/yacchi/umbra/types"
)

func TestErrors(t *testing.T) {
	if errors.Is(ErrSaveNotSupported, ErrNotExist) {
		t.Fatal("errors.Is(ErrSaveNotSupported, ErrNotExist) = true, want false")
	}
}

func TestNotExistError(t *testing.T) {
	err := NewNotExistError("/tmp/umbra.json", fs.ErrNotExist)

	if !errors.Is(err, ErrNotExist) {
		t.Error("errors.Is(err, ErrNotExist) = false, want true")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is(err, fs.ErrNotExist) = false, want true")
	}
	want := "/tmp/umbra.json: source does not exist: file does not exist"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &NotExistError{Location: "s3://b/k"}
	if got, want := bare.Error(), "s3://b/k: source does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

type plainSource struct{}

func (plainSource) Type() SourceType                       { return "plain" }
func (plainSource) Load(context.Context) ([]byte, error)   { return nil, nil }
func (plainSource) Save(context.Context, UpdateFunc) error { return ErrSaveNotSupported }
func (plainSource) CanSave() bool                          { return false }

type describedSource struct{ plainSource }

func (describedSource) FillDetails(d *types.Details) {
	d.Name = "shadows.yaml"
	d.MediaType = "application/yaml"
}

func TestDescribe(t *testing.T) {
	if got := Describe(plainSource{}); got != (types.Details{Source: "plain"}) {
		t.Errorf("Describe(plain) = %+v", got)
	}

	got := Describe(describedSource{})
	want := types.Details{Source: "plain", Name: "shadows.yaml", MediaType: "application/yaml"}
	if got != want {
		t.Errorf("Describe(described) = %+v, want %+v", got, want)
	}
}
