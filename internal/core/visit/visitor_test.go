package visit

import (
	"errors"
	"fmt"
	"testing"
)

type sample struct {
	id     uint32
	delta  int32
	big    uint64
	health float32
	clock  float64
	alive  bool
	name   string
	blob   []byte
}

func (s *sample) Visit(name string, v *Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitU32("Id", &s.id); err != nil {
		return err
	}
	if err := v.VisitI32("Delta", &s.delta); err != nil {
		return err
	}
	if err := v.VisitU64("Big", &s.big); err != nil {
		return err
	}
	if err := v.VisitF32("Health", &s.health); err != nil {
		return err
	}
	if err := v.VisitF64("Clock", &s.clock); err != nil {
		return err
	}
	if err := v.VisitBool("Alive", &s.alive); err != nil {
		return err
	}
	if err := v.VisitString("Name", &s.name); err != nil {
		return err
	}
	if err := v.VisitBytes("Blob", &s.blob); err != nil {
		return err
	}
	return v.LeaveRegion()
}

func TestRoundTrip(t *testing.T) {
	in := sample{
		id: 7, delta: -3, big: 1 << 40, health: 87.5, clock: 12.25,
		alive: true, name: "Bot_1", blob: []byte{1, 2, 3},
	}
	w := NewWriter()
	if err := in.Visit("Sample", w); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := w.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	r, err := Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !r.IsReading() {
		t.Fatal("loaded visitor is not reading")
	}
	var out sample
	if err := out.Visit("Sample", r); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.id != in.id || out.delta != in.delta || out.big != in.big || out.health != in.health ||
		out.clock != in.clock || out.alive != in.alive || out.name != in.name || string(out.blob) != string(in.blob) {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}

	// Saving the restored value again must give identical bytes.
	w2 := NewWriter()
	if err := out.Visit("Sample", w2); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	data2, _ := w2.Save()
	if string(data) != string(data2) {
		t.Fatal("second save differs from the first")
	}
}

func TestMissingRegionAndField(t *testing.T) {
	w := NewWriter()
	w.EnterRegion("A")
	x := uint32(1)
	w.VisitU32("X", &x)
	w.LeaveRegion()
	data, _ := w.Save()

	r, _ := Load(data)
	if err := r.EnterRegion("B"); !errors.Is(err, ErrRegionNotFound) {
		t.Fatalf("err = %v, want ErrRegionNotFound", err)
	}
	if err := r.EnterRegion("A"); err != nil {
		t.Fatal(err)
	}
	var y uint32
	if err := r.VisitU32("Y", &y); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("err = %v, want ErrFieldNotFound", err)
	}
	var f float32
	if err := r.VisitF32("X", &f); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestDuplicateNames(t *testing.T) {
	w := NewWriter()
	x := uint32(1)
	if err := w.VisitU32("X", &x); err != nil {
		t.Fatal(err)
	}
	if err := w.VisitU32("X", &x); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestUnbalancedSave(t *testing.T) {
	w := NewWriter()
	w.EnterRegion("Open")
	if _, err := w.Save(); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("err = %v, want ErrUnbalanced", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"bad magic": []byte("XXXX\x01\x00\x00\x00"),
		"truncated": []byte("RVIS\x01\x00\x00\x00\x08\x00"),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(data); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("err = %v, want ErrCorrupt", err)
			}
		})
	}

	w := NewWriter()
	s := sample{name: "x"}
	s.Visit("S", w)
	data, _ := w.Save()
	if _, err := Load(data[:len(data)-2]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("truncated save: err = %v, want ErrCorrupt", err)
	}
}

func TestNamesAreNormalized(t *testing.T) {
	// "é" as a single code point vs e + combining acute accent.
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"

	w := NewWriter()
	w.EnterRegion(decomposed)
	s := decomposed
	w.VisitString("Name", &s)
	w.LeaveRegion()
	data, _ := w.Save()

	r, _ := Load(data)
	if err := r.EnterRegion(composed); err != nil {
		t.Fatalf("enter composed: %v", err)
	}
	var got string
	r.VisitString("Name", &got)
	if got != composed {
		t.Fatalf("string = %q, want NFC %q", got, composed)
	}
}

func TestManyRegionsRoundTrip(t *testing.T) {
	const n = 20000
	w := NewWriter()
	for i := uint32(0); i < n; i++ {
		if err := w.EnterRegion(fmt.Sprintf("Slot%d", i)); err != nil {
			t.Fatal(err)
		}
		v := i
		if err := w.VisitU32("Value", &v); err != nil {
			t.Fatal(err)
		}
		w.LeaveRegion()
	}
	data, err := w.Save()
	if err != nil {
		t.Fatal(err)
	}

	r, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint32(n); i > 0; i-- {
		if err := r.EnterRegion(fmt.Sprintf("Slot%d", i-1)); err != nil {
			t.Fatal(err)
		}
		var v uint32
		if err := r.VisitU32("Value", &v); err != nil || v != i-1 {
			t.Fatalf("slot %d = %d (%v)", i-1, v, err)
		}
		r.LeaveRegion()
	}
}

func TestLoadRejectsDuplicateRegions(t *testing.T) {
	w := newWriter()
	w.buf = append(w.buf, magic...)
	w.writeD(version)
	w.writeS("__ROOT__")
	w.writeD(0)
	w.writeD(2)
	for i := 0; i < 2; i++ {
		w.writeS("Actors")
		w.writeD(0)
		w.writeD(0)
	}
	if _, err := Load(w.bytes()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}
