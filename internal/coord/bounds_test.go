package coord

import "testing"

func TestBounds_ExtendAndUnion(t *testing.T) {
	b := EmptyBounds()
	if !b.IsEmpty() {
		t.Fatal("EmptyBounds should be empty")
	}
	b.Extend(174.78, -41.29)
	if b.IsEmpty() {
		t.Fatal("bounds with one point should not be empty")
	}
	if b.MinLon != 174.78 || b.MaxLon != 174.78 || b.MinLat != -41.29 || b.MaxLat != -41.29 {
		t.Errorf("single point bounds = %+v", b)
	}
	b.Extend(172.64, -43.53)
	want := Bounds{MinLon: 172.64, MaxLon: 174.78, MinLat: -43.53, MaxLat: -41.29}
	if b != want {
		t.Errorf("Extend = %+v, want %+v", b, want)
	}

	u := EmptyBounds()
	u.Union(EmptyBounds())
	if !u.IsEmpty() {
		t.Errorf("union of empties = %+v, want empty", u)
	}
	u.Union(b)
	if u != want {
		t.Errorf("Union = %+v, want %+v", u, want)
	}
}

func TestBounds_Contains(t *testing.T) {
	if !NewZealand.Contains(174.7762, -41.2865) {
		t.Error("Wellington should be inside NewZealand")
	}
	if NewZealand.Contains(151.2093, -33.8688) {
		t.Error("Sydney should be outside NewZealand")
	}
	if !NewZealand.Contains(NewZealand.MinLon, NewZealand.MaxLat) {
		t.Error("edges should be inclusive")
	}
}

func TestBounds_PadAndCenter(t *testing.T) {
	b := Bounds{MinLon: 170, MaxLon: 172, MinLat: -44, MaxLat: -42}
	p := b.Pad(0.5)
	if p != (Bounds{MinLon: 169.5, MaxLon: 172.5, MinLat: -44.5, MaxLat: -41.5}) {
		t.Errorf("Pad = %+v", p)
	}
	if b.CenterLon() != 171 || b.CenterLat() != -43 {
		t.Errorf("center = (%v, %v), want (171, -43)", b.CenterLon(), b.CenterLat())
	}
}
