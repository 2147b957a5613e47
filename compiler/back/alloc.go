package back

import (
	"context"

	"nikand.dev/go/heap"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/developerfred/Bend-PVM-sub000/compiler/asm/riscv"
	"github.com/developerfred/Bend-PVM-sub000/compiler/ast"
	"github.com/developerfred/Bend-PVM-sub000/compiler/set"
)

type (
	// Interval is the live range of a virtual register
	// from its first to its last occurrence in the listing.
	Interval struct {
		Reg   riscv.Reg
		Start int
		End   int

		// Call is set if a call lies strictly inside the range.
		Call bool
	}

	Allocation struct {
		Code []riscv.Instr

		Assign map[riscv.Reg]riscv.Reg
		Spill  map[riscv.Reg]int32

		// Saved are the callee-saved registers the code writes, ascending.
		Saved []riscv.Reg

		// Spills is the number of stack slots taken by spilled registers.
		Spills int
	}

	AllocOption func(a *allocator)

	allocator struct {
		temps []riscv.Reg
		saved []riscv.Reg

		spillBase int32
	}

	intervals struct {
		heap.Heap[*Interval]
	}
)

var (
	TempRegs  = []riscv.Reg{riscv.T0, riscv.T1, riscv.T2, riscv.T3, riscv.T4}
	SavedRegs = []riscv.Reg{riscv.S1, riscv.S2, riscv.S3, riscv.S4, riscv.S5, riscv.S6, riscv.S7, riscv.S8, riscv.S9, riscv.S10, riscv.S11}

	// Scratch registers are reserved for spill reloads.
	Scratch = [2]riscv.Reg{riscv.T5, riscv.T6}
)

func WithSpillBase(off int32) AllocOption {
	return func(a *allocator) {
		a.spillBase = off
	}
}

// WithPools replaces the register pools.
// Registers from temps are never assigned to ranges crossing a call.
func WithPools(temps, saved []riscv.Reg) AllocOption {
	return func(a *allocator) {
		a.temps = temps
		a.saved = saved
	}
}

// Allocate maps virtual registers of code to physical ones.
// Registers that don't fit are spilled to 4-byte stack slots starting at the spill base
// and go through the scratch registers around every use and definition.
func Allocate(ctx context.Context, code []riscv.Instr, opts ...AllocOption) (res *Allocation, err error) {
	tr := tlog.SpanFromContext(ctx)

	a := allocator{
		temps: TempRegs,
		saved: SavedRegs,
	}

	for _, o := range opts {
		o(&a)
	}

	ivs, err := liveIntervals(code)
	if err != nil {
		return nil, err
	}

	res = &Allocation{
		Assign: make(map[riscv.Reg]riscv.Reg, len(ivs)),
		Spill:  make(map[riscv.Reg]int32),
	}

	unhandled := intervals{Heap: heap.Heap[*Interval]{Less: startLess}}
	active := intervals{Heap: heap.Heap[*Interval]{Less: endLess}}

	for _, iv := range ivs {
		unhandled.Push(iv)
	}

	tempFree := set.MakeBits[riscv.Reg](0, a.temps...)
	savedFree := set.MakeBits[riscv.Reg](0, a.saved...)
	used := set.MakeBits[riscv.Reg](0)

	release := func(r riscv.Reg) {
		if r.IsSaved() {
			savedFree.Set(r)
		} else {
			tempFree.Set(r)
		}
	}

	spill := func(iv *Interval) {
		off := a.spillBase + 4*int32(res.Spills)
		res.Spills++
		res.Spill[iv.Reg] = off

		if tr.If("regalloc") {
			tr.Printw("spill", "reg", iv.Reg, "interval", iv, "off", off, "from", loc.Caller(1))
		}
	}

	for unhandled.Len() != 0 {
		cur := unhandled.Pop()

		for active.Len() != 0 && active.Data[0].End <= cur.Start {
			old := active.Pop()
			release(res.Assign[old.Reg])
		}

		r, ok := savedFree.First()
		if !cur.Call {
			if t, tok := tempFree.First(); tok {
				r, ok = t, true
			}
		}

		if ok {
			if r.IsSaved() {
				savedFree.Clear(r)
				used.Set(r)
			} else {
				tempFree.Clear(r)
			}

			res.Assign[cur.Reg] = r
			active.Push(cur)

			tr.V("regalloc").Printw("assign", "reg", cur.Reg, "interval", cur, "phys", r)

			continue
		}

		victim := -1

		for i, iv := range active.Data {
			if cur.Call && !res.Assign[iv.Reg].IsSaved() {
				continue
			}

			if victim == -1 || iv.End > active.Data[victim].End {
				victim = i
			}
		}

		if victim == -1 || active.Data[victim].End <= cur.End {
			spill(cur)
			continue
		}

		old := active.Data[victim]
		r = res.Assign[old.Reg]

		delete(res.Assign, old.Reg)
		spill(old)

		res.Assign[cur.Reg] = r

		active.Data[victim] = cur
		active.Heap.Fix(victim)

		tr.V("regalloc").Printw("assign", "reg", cur.Reg, "interval", cur, "phys", r, "stolen_from", old.Reg)
	}

	res.Saved = used.Slice()
	res.Code = rewrite(code, res)

	return res, nil
}

func liveIntervals(code []riscv.Instr) ([]*Interval, error) {
	var calls set.Bitmap
	var ivs []*Interval
	var uses []riscv.Reg

	idx := map[riscv.Reg]*Interval{}

	for pc, in := range code {
		if riscv.IsCall(in) {
			calls.Set(pc)
		}

		var def riscv.Reg
		def, uses = riscv.Operands(in, uses[:0])

		for _, r := range uses {
			if !r.IsVirtual() {
				continue
			}

			iv, ok := idx[r]
			if !ok {
				return nil, newError(Generic, ast.Location{}, r.String(), "register used before definition at %d", pc)
			}

			iv.End = pc
		}

		if !def.IsVirtual() {
			continue
		}

		if iv, ok := idx[def]; ok {
			iv.End = pc
			continue
		}

		iv := &Interval{Reg: def, Start: pc, End: pc}
		idx[def] = iv
		ivs = append(ivs, iv)
	}

	for _, iv := range ivs {
		iv.Call = calls.AnyIn(iv.Start, iv.End)
	}

	return ivs, nil
}

func rewrite(code []riscv.Instr, a *Allocation) []riscv.Instr {
	res := make([]riscv.Instr, 0, len(code))

	var uses []riscv.Reg

	for _, in := range code {
		var def riscv.Reg
		def, uses = riscv.Operands(in, uses[:0])

		var loaded [len(Scratch)]riscv.Reg
		n := 0

		for _, r := range uses {
			off, ok := a.Spill[r]
			if !ok || n != 0 && loaded[0] == r {
				continue
			}

			loaded[n] = r
			res = append(res, riscv.Load{Op: riscv.LW, Rd: Scratch[n], Base: riscv.SP, Off: off})
			n++
		}

		use := func(r riscv.Reg) riscv.Reg {
			if !r.IsVirtual() {
				return r
			}

			for i := 0; i < n; i++ {
				if loaded[i] == r {
					return Scratch[i]
				}
			}

			return a.Assign[r]
		}

		defReg := func(r riscv.Reg) riscv.Reg {
			if !r.IsVirtual() {
				return r
			}

			if _, ok := a.Spill[r]; ok {
				return Scratch[0]
			}

			return a.Assign[r]
		}

		res = append(res, riscv.MapRegs(in, defReg, use))

		if off, ok := a.Spill[def]; ok && def.IsVirtual() {
			res = append(res, riscv.Store{Op: riscv.SW, Src: Scratch[0], Base: riscv.SP, Off: off})
		}
	}

	return res
}

func startLess(d []*Interval, i, j int) bool {
	if d[i].Start != d[j].Start {
		return d[i].Start < d[j].Start
	}

	return d[i].Reg < d[j].Reg
}

func endLess(d []*Interval, i, j int) bool {
	if d[i].End != d[j].End {
		return d[i].End < d[j].End
	}

	return d[i].Reg < d[j].Reg
}

func (iv *Interval) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)

	b = e.AppendKeyInt(b, "start", iv.Start)
	b = e.AppendKeyInt(b, "end", iv.End)
	b = e.AppendKeyValue(b, "call", iv.Call)

	return b
}
