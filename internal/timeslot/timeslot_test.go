package timeslot

import (
	"errors"
	"testing"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"09:00", 540},
		{"9:05", 545},
		{"23:59", 1439},
	}
	for _, c := range cases {
		got, err := ToMinutes(c.in)
		if err != nil {
			t.Fatalf("ToMinutes(%q): unexpected error %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ToMinutes(%q): got %d, want %d", c.in, got, c.want)
		}
	}
}

func TestToMinutesMalformed(t *testing.T) {
	for _, in := range []string{"", "0900", "9", "24:00", "12:60", "-1:30", "ab:cd", "12:"} {
		_, err := ToMinutes(in)
		if err == nil {
			t.Fatalf("ToMinutes(%q): expected error, got none", in)
		}
		var mte *MalformedTimeError
		if !errors.As(err, &mte) {
			t.Fatalf("ToMinutes(%q): got %T, want *MalformedTimeError", in, err)
		}
	}
}

func TestFormatMinutesRoundTrip(t *testing.T) {
	for _, m := range []int{0, 540, 545, 1439} {
		got, err := ToMinutes(FormatMinutes(m))
		if err != nil {
			t.Fatalf("round trip %d: %v", m, err)
		}
		if got != m {
			t.Fatalf("round trip: got %d, want %d", got, m)
		}
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	cases := [][4]int{
		{540, 600, 570, 630},
		{540, 600, 600, 660},
		{480, 720, 510, 540},
		{0, 1, 1438, 1439},
	}
	for _, c := range cases {
		ab := Overlaps(c[0], c[1], c[2], c[3])
		ba := Overlaps(c[2], c[3], c[0], c[1])
		if ab != ba {
			t.Fatalf("Overlaps(%v) not symmetric: %v vs %v", c, ab, ba)
		}
	}
}

func TestOverlapsBackToBack(t *testing.T) {
	// [09:00, 10:00) and [10:00, 11:00) share no instant.
	if Overlaps(540, 600, 600, 660) {
		t.Fatal("touching intervals must not overlap")
	}
	if Overlaps(600, 660, 540, 600) {
		t.Fatal("touching intervals must not overlap (reversed)")
	}
}

func TestOverlapsContainment(t *testing.T) {
	// [08:00, 12:00) fully contains [09:00, 10:00).
	if !Overlaps(480, 720, 540, 600) {
		t.Fatal("containing interval must overlap contained")
	}
	if !Overlaps(540, 600, 480, 720) {
		t.Fatal("contained interval must overlap container")
	}
}

func TestOverlapsPartial(t *testing.T) {
	if !Overlaps(540, 600, 570, 630) {
		t.Fatal("partially overlapping intervals must overlap")
	}
	if Overlaps(540, 600, 660, 720) {
		t.Fatal("disjoint intervals must not overlap")
	}
}
