package vectab_test

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/clktmr/postmortem/vectab"
)

type vtor struct {
	base   uintptr
	writes []uintptr
}

func (v *vtor) VectorTableBase() uintptr { return v.base }

func (v *vtor) SetVectorTableBase(addr uintptr) {
	v.writes = append(v.writes, addr)
	v.base = addr
}

// flashTable returns a table with n valid entries followed by an entry
// pointing outside of flash.
func flashTable(n int) *[vectab.MaxEntries]uint32 {
	var table [vectab.MaxEntries]uint32
	table[0] = 0x2000_5000 // initial stack pointer
	for i := 1; i < n; i++ {
		table[i] = 0x0800_0101 + uint32(i)*0x10
	}
	table[n] = 0xffff_ffff
	return &table
}

func addr(table *[vectab.MaxEntries]uint32) uintptr {
	return uintptr(unsafe.Pointer(&table[0]))
}

var hooks = []vectab.Patch{
	{vectab.HardFault, 0x0800_f001},
	{vectab.MemManageFault, 0x0800_f011},
	{vectab.BusFault, 0x0800_f021},
	{vectab.UsageFault, 0x0800_f031},
}

func TestRelocate(t *testing.T) {
	defer vectab.Reset()

	const n = 60
	orig := flashTable(n)
	pristine := *orig
	v := &vtor{base: addr(orig)}

	err := vectab.Relocate(v, &vectab.Config{}, hooks...)
	if err != nil {
		t.Fatal(err)
	}

	table := vectab.Active()
	if len(table) != n {
		t.Fatalf("relocated %d entries, expected %d", len(table), n)
	}
	patched := map[int]uint32{}
	for _, h := range hooks {
		patched[h.Index] = h.Addr
	}
	for i, vec := range table {
		want, ok := patched[i]
		if !ok {
			want = orig[i]
		}
		if vec != want {
			t.Errorf("entry %d: %#08x, expected %#08x", i, vec, want)
		}
	}
	if *orig != pristine {
		t.Error("original table modified")
	}

	start := uintptr(unsafe.Pointer(&table[0]))
	if start%vectab.Align != 0 {
		t.Errorf("table at %#x not aligned to %d", start, vectab.Align)
	}
	if len(v.writes) != 1 {
		t.Fatalf("VTOR written %d times", len(v.writes))
	}
	if v.writes[0] != start|vectab.TBLBASE {
		t.Errorf("VTOR = %#x, expected %#x", v.writes[0], start|vectab.TBLBASE)
	}
}

func TestRelocateOnce(t *testing.T) {
	defer vectab.Reset()

	orig := flashTable(20)
	v := &vtor{base: addr(orig)}
	if err := vectab.Relocate(v, &vectab.Config{}, hooks...); err != nil {
		t.Fatal(err)
	}
	if err := vectab.Relocate(v, &vectab.Config{}, hooks...); !errors.Is(err, vectab.ErrInstalled) {
		t.Errorf("second Relocate returned %v", err)
	}
	if len(v.writes) != 1 {
		t.Errorf("VTOR written %d times", len(v.writes))
	}
}

func TestSentinel(t *testing.T) {
	defer vectab.Reset()

	orig := flashTable(vectab.MaxEntries - 1)
	v := &vtor{base: addr(orig)}

	err := vectab.Relocate(v, &vectab.Config{Sentinel: 40}, hooks...)
	if !errors.Is(err, vectab.ErrSizeUnknown) {
		t.Errorf("got %v, expected ErrSizeUnknown", err)
	}
	if len(v.writes) != 0 {
		t.Errorf("VTOR written %d times after failed probe", len(v.writes))
	}
	if vectab.Active() != nil {
		t.Error("active table set after failed probe")
	}

	// The same table with its size known relocates fine.
	if err := vectab.Relocate(v, &vectab.Config{Size: 100, Sentinel: 40}, hooks...); err != nil {
		t.Fatal(err)
	}
	if got := len(vectab.Active()); got != 100 {
		t.Errorf("relocated %d entries", got)
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		n, sentinel int
		err         error
	}{
		{1, 80, nil},
		{7, 80, nil},
		{79, 80, nil},
		{80, 80, vectab.ErrSizeUnknown},
		{100, 0, vectab.ErrSizeUnknown},
		{68, 0, nil},
	}
	for _, tc := range tests {
		orig := flashTable(tc.n)
		size, err := vectab.Probe(addr(orig), &vectab.Config{Sentinel: tc.sentinel})
		if err != tc.err {
			t.Errorf("n=%d sentinel=%d: err %v, expected %v", tc.n, tc.sentinel, err, tc.err)
			continue
		}
		if err == nil && size != tc.n {
			t.Errorf("n=%d sentinel=%d: size %d", tc.n, tc.sentinel, size)
		}
	}
}

var customTable [vectab.MaxEntries]uint32

func TestProbeCustomRegion(t *testing.T) {
	table := &customTable
	for i := 1; i < 30; i++ {
		table[i] = 0x0001_0001 + uint32(i)
	}
	cfg := &vectab.Config{
		InProgramMemory: func(v uint32) bool { return v >= 0x0001_0000 && v < 0x0008_0000 },
	}
	size, err := vectab.Probe(addr(table), cfg)
	if err != nil || size != 30 {
		t.Errorf("got %d, %v", size, err)
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		size  int
		align uintptr
	}{
		{1, 128},
		{32, 128},
		{33, 256},
		{64, 256},
		{68, 512},
		{76, 512},
		{128, 512},
		{129, 1024},
		{vectab.MaxEntries, 1024},
	}
	for _, tc := range tests {
		if got := vectab.Alignment(tc.size); got != tc.align {
			t.Errorf("Alignment(%d) = %d, expected %d", tc.size, got, tc.align)
		}
	}
}

func TestRelocateAligned(t *testing.T) {
	for _, size := range []int{16, 76, 200, vectab.MaxEntries} {
		vectab.Reset()
		orig := flashTable(vectab.MaxEntries - 1)
		v := &vtor{base: addr(orig)}
		if err := vectab.Relocate(v, &vectab.Config{Size: size}, hooks...); err != nil {
			t.Fatalf("%d entries: %v", size, err)
		}
		table := vectab.Active()
		start := uintptr(unsafe.Pointer(&table[0]))
		if align := vectab.Alignment(size); start%align != 0 {
			t.Errorf("%d-entry table at %#x not aligned to %d", size, start, align)
		}
		for i := 7; i < size; i++ {
			if table[i] != orig[i] {
				t.Errorf("%d entries: entry %d is %#08x", size, i, table[i])
				break
			}
		}
	}
	vectab.Reset()
}
