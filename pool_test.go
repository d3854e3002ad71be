package skiff

import "testing"

func TestGetBucket(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 1024: 10, 1025: 11}
	for size, want := range cases {
		if got := getBucket(size); got != want {
			t.Errorf("getBucket(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestBoolMaskIsZeroedAfterRelease(t *testing.T) {
	m := getBoolMask(10)
	if len(m.Data) != 10 {
		t.Fatalf("len = %d, want 10", len(m.Data))
	}
	for i := range m.Data {
		m.Data[i] = true
	}
	m.Release()

	m = getBoolMask(10)
	defer m.Release()
	for i, v := range m.Data {
		if v {
			t.Fatalf("Data[%d] still set after release", i)
		}
	}
}

func TestInt64SliceLength(t *testing.T) {
	s := getInt64Slice(100)
	defer s.Release()
	if len(s.Data) != 100 {
		t.Errorf("len = %d, want 100", len(s.Data))
	}
	if cap(s.Data) < 100 {
		t.Errorf("cap = %d, want >= 100", cap(s.Data))
	}
}
