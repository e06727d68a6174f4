package hdf5

import (
	"errors"
	"math"
	"path/filepath"
	"slices"
	"testing"
)

func tempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.h5")
}

func TestCreateEmptyFile(t *testing.T) {
	path := tempFile(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Closing twice is a no-op
	if err := f.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	f, err = Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if f.Version() != 2 {
		t.Errorf("Version = %d, want 2", f.Version())
	}
	if len(f.Root().Members()) != 0 {
		t.Errorf("root members = %v, want none", f.Root().Members())
	}
	if f.IsWritable() {
		t.Error("file opened with Open should be read-only")
	}
}

func TestGroupsAndAttributesRoundTrip(t *testing.T) {
	path := tempFile(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	spectra, err := f.Root().CreateGroup("spectra")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	hpge, err := spectra.RequireGroup("hpge")
	if err != nil {
		t.Fatalf("RequireGroup failed: %v", err)
	}
	again, err := spectra.RequireGroup("hpge")
	if err != nil {
		t.Fatalf("second RequireGroup failed: %v", err)
	}
	if again.Path() != hpge.Path() {
		t.Errorf("RequireGroup returned %s, want %s", again.Path(), hpge.Path())
	}

	writes := []struct {
		name string
		err  error
	}{
		{"type", hpge.WriteString("type", "1D")},
		{"dimensions", WriteAttr(hpge, "dimensions", uint16(1))},
		{"time_sample", WriteAttr(hpge, "time_sample", 20.5)},
		{"coefficients", WriteAttrSlice(hpge, "coefficients", []float64{0.1, 0.5, 1e-6})},
		{"version", WriteAttr(f.Root(), "version", int32(-3))},
	}
	for _, w := range writes {
		if w.err != nil {
			t.Fatalf("writing %s failed: %v", w.name, w.err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err = Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	g, err := f.OpenGroup("/spectra/hpge")
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	if g.Name() != "hpge" {
		t.Errorf("Name = %q, want hpge", g.Name())
	}
	// Attributes keep creation order
	if want := []string{"type", "dimensions", "time_sample", "coefficients"}; !slices.Equal(g.Attrs(), want) {
		t.Errorf("Attrs = %v, want %v", g.Attrs(), want)
	}

	typ, err := g.ReadString("type")
	if err != nil || typ != "1D" {
		t.Errorf("ReadString(type) = %q, %v", typ, err)
	}
	dims, err := ReadAttr[int](g, "dimensions")
	if err != nil || dims != 1 {
		t.Errorf("ReadAttr(dimensions) = %d, %v", dims, err)
	}
	ts, err := ReadAttr[float64](g, "time_sample")
	if err != nil || math.Abs(ts-20.5) > 1e-12 {
		t.Errorf("ReadAttr(time_sample) = %v, %v", ts, err)
	}
	coef, err := ReadAttrSlice[float64](g, "coefficients")
	if err != nil || !slices.Equal(coef, []float64{0.1, 0.5, 1e-6}) {
		t.Errorf("ReadAttrSlice(coefficients) = %v, %v", coef, err)
	}
	v, err := ReadAttr[int64](f.Root(), "version")
	if err != nil || v != -3 {
		t.Errorf("ReadAttr(version) = %d, %v", v, err)
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	f, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	_, err = f.OpenGroup("/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var he *Error
	if !errors.As(err, &he) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if he.Op != "open group" || he.Path != "/missing" {
		t.Errorf("Error = {Op: %q, Path: %q}", he.Op, he.Path)
	}

	if _, err := f.Root().CreateGroup("a"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := f.Root().CreateGroup("a"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate group: expected ErrExists, got %v", err)
	}
	if _, err := f.Root().CreateGroup("a/b"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("nested name: expected ErrInvalidPath, got %v", err)
	}
	if _, err := f.Root().ReadString("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing attribute: expected ErrNotFound, got %v", err)
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := tempFile(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err = Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if _, err := f.Root().CreateGroup("x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestOpenReadWriteModifies(t *testing.T) {
	path := tempFile(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.Root().CreateGroup("keep"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err = OpenReadWrite(path)
	if err != nil {
		t.Fatalf("OpenReadWrite failed: %v", err)
	}
	g, err := f.Root().CreateGroup("added")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := g.WriteString("note", "second session"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err = Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if want := []string{"keep", "added"}; !slices.Equal(f.Root().Members(), want) {
		t.Errorf("Members = %v, want %v", f.Root().Members(), want)
	}
}

func TestEnumMappedByName(t *testing.T) {
	path := tempFile(t)
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	kinds := NewEnum("OneD", "OneDLossFree", "TwoD")
	if err := f.Root().WriteEnum("kind", kinds, 2); err != nil {
		t.Fatalf("WriteEnum failed: %v", err)
	}
	if err := f.Root().WriteEnum("kind", kinds, 7); !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("value outside enum: expected ErrInvalidEnum, got %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err = Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	v, err := f.Root().ReadEnum("kind", kinds)
	if err != nil || v != 2 {
		t.Errorf("ReadEnum = %d, %v; want 2", v, err)
	}

	// Values are matched by member name, not by number
	renumbered := NewEnumMembers(EnumMember{Name: "TwoD", Value: 20}, EnumMember{Name: "OneD", Value: 10})
	v, err = f.Root().ReadEnum("kind", renumbered)
	if err != nil || v != 20 {
		t.Errorf("ReadEnum(renumbered) = %d, %v; want 20", v, err)
	}

	if _, err := f.Root().ReadEnum("kind", NewEnum("Other")); !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("expected ErrInvalidEnum, got %v", err)
	}
}

func TestWalkOrder(t *testing.T) {
	f, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()
	a, err := f.Root().CreateGroup("a")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := CreateDataset[uint16](a, "indices", NewShape(2, 2)); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	if _, err := f.Root().CreateGroup("b"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	var seen []string
	err = Walk(f.Root(), func(path string, obj Attributed) error {
		seen = append(seen, path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if want := []string{"/", "/a", "/a/indices", "/b"}; !slices.Equal(seen, want) {
		t.Errorf("Walk visited %v, want %v", seen, want)
	}
}

func TestParseAttrPath(t *testing.T) {
	obj, name, err := ParseAttrPath("/spectra/hpge@type")
	if err != nil {
		t.Fatalf("ParseAttrPath failed: %v", err)
	}
	if obj != "/spectra/hpge" || name != "type" {
		t.Errorf("got (%q, %q), want (/spectra/hpge, type)", obj, name)
	}

	obj, _, err = ParseAttrPath("@root")
	if err != nil || obj != "/" {
		t.Errorf("ParseAttrPath(@root) = %q, %v", obj, err)
	}

	if _, _, err := ParseAttrPath("/no/attr"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}
