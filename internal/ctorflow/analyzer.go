package ctorflow

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ssa"

	"viewmeta/internal/common"
)

const selfOrigin = 0

// Result maps 0-based parameter indexes to the field they initialize.
type Result struct {
	Fields map[int]string
}

// Field returns the field initialized by parameter i.
func (r Result) Field(i int) (string, bool) {
	name, ok := r.Fields[i]
	return name, ok
}

// Unresolved lists the indexes in [0, n) that initialize no field.
func (r Result) Unresolved(n int) []int {
	var out []int

	for i := 0; i < n; i++ {
		if _, ok := r.Fields[i]; !ok {
			out = append(out, i)
		}
	}

	return out
}

// Analyze follows fn, which constructs target, and reports the field each
// parameter is stored into. Any failure, including a panic while walking
// the function, is returned as an error and no partial result.
func Analyze(fn *ssa.Function, target *types.Named) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("analysis of %s panicked: %v", funcName(fn), r)
		}
	}()

	return analyze(fn, target, map[*ssa.Function]bool{})
}

func funcName(fn *ssa.Function) string {
	if fn == nil {
		return common.UnknownStr
	}

	return fn.String()
}

func analyze(fn *ssa.Function, target *types.Named, visiting map[*ssa.Function]bool) (Result, error) {
	if fn == nil {
		return Result{}, fmt.Errorf("no constructor function")
	}

	if len(fn.Blocks) == 0 {
		return Result{}, fmt.Errorf("constructor %s has no body", fn)
	}

	if visiting[fn] {
		return Result{}, fmt.Errorf("constructor %s calls itself", fn)
	}

	visiting[fn] = true
	defer delete(visiting, fn)

	s := &sim{
		fn:       fn,
		target:   target,
		visiting: visiting,
		local:    len(fn.Params) + 1,
		fields:   make(map[int]string),
		phis:     make(map[*ssa.Phi]bool),
	}

	self, err := s.findSelf()
	if err != nil {
		return Result{}, err
	}

	s.self = self

	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if err := s.step(instr); err != nil {
				return Result{}, err
			}
		}
	}

	return Result{Fields: s.fields}, nil
}

type sim struct {
	fn       *ssa.Function
	target   *types.Named
	self     *ssa.Alloc
	visiting map[*ssa.Function]bool
	local    int
	fields   map[int]string
	phis     map[*ssa.Phi]bool
}

// findSelf locates the allocation whose value every return statement
// yields. Without returns pointing at one, the first allocation of the
// target type is used.
func (s *sim) findSelf() (*ssa.Alloc, error) {
	var found *ssa.Alloc

	for _, b := range s.fn.Blocks {
		ret, ok := b.Instrs[len(b.Instrs)-1].(*ssa.Return)
		if !ok || len(ret.Results) == 0 {
			continue
		}

		alloc := s.allocOf(ret.Results[0])
		if alloc == nil {
			continue
		}

		if found != nil && found != alloc {
			found = nil
			break
		}

		found = alloc
	}

	if found != nil {
		return found, nil
	}

	for _, b := range s.fn.Blocks {
		for _, instr := range b.Instrs {
			if alloc, ok := instr.(*ssa.Alloc); ok && s.allocates(alloc) {
				return alloc, nil
			}
		}
	}

	return nil, fmt.Errorf("constructor %s allocates no %s", s.fn, s.target.Obj().Name())
}

func (s *sim) allocates(alloc *ssa.Alloc) bool {
	ptr, ok := alloc.Type().(*types.Pointer)
	return ok && types.Identical(ptr.Elem(), s.target)
}

func (s *sim) allocOf(v ssa.Value) *ssa.Alloc {
	for {
		switch x := v.(type) {
		case *ssa.Alloc:
			if s.allocates(x) {
				return x
			}

			return nil
		case *ssa.ChangeType:
			v = x.X
		case *ssa.UnOp:
			if x.Op != token.MUL {
				return nil
			}

			v = x.X
		default:
			return nil
		}
	}
}

// origin returns 0 for self, 1..N for parameters, local otherwise.
func (s *sim) origin(v ssa.Value) int {
	switch x := v.(type) {
	case *ssa.Alloc:
		if x == s.self {
			return selfOrigin
		}
	case *ssa.Parameter:
		for i, p := range s.fn.Params {
			if p == x {
				return i + 1
			}
		}
	case *ssa.ChangeType:
		return s.origin(x.X)
	case *ssa.UnOp:
		if x.Op == token.MUL && s.origin(x.X) == selfOrigin {
			return selfOrigin
		}
	case *ssa.Phi:
		if s.phis[x] {
			return s.local
		}

		s.phis[x] = true
		defer delete(s.phis, x)

		agreed := -1
		for _, edge := range x.Edges {
			o := s.origin(edge)
			if agreed >= 0 && o != agreed {
				return s.local
			}

			agreed = o
		}

		if agreed >= 0 {
			return agreed
		}
	}

	return s.local
}

func (s *sim) isParam(o int) bool {
	return o > selfOrigin && o < s.local
}

func (s *sim) record(o int, field string) {
	idx := o - 1
	if _, ok := s.fields[idx]; !ok {
		s.fields[idx] = field
	}
}

func (s *sim) step(instr ssa.Instruction) error {
	switch in := instr.(type) {
	case *ssa.Store:
		return s.store(in)
	case *ssa.Call:
		s.call(in.Common())
	}

	return nil
}

// selfField resolves a field address rooted at self through embedded
// fields. It returns the leaf field.
func (s *sim) selfField(addr ssa.Value) (*types.Var, bool) {
	fa, ok := addr.(*ssa.FieldAddr)
	if !ok {
		return nil, false
	}

	leaf := fieldOf(fa)
	if leaf == nil {
		return nil, false
	}

	return leaf, s.rootedAtSelf(fa.X)
}

// rootedAtSelf reports whether v is self or an embedded field of self,
// reached through field addresses and pointer loads.
func (s *sim) rootedAtSelf(v ssa.Value) bool {
	for {
		if s.origin(v) == selfOrigin {
			return true
		}

		switch x := v.(type) {
		case *ssa.FieldAddr:
			f := fieldOf(x)
			if f == nil || !f.Embedded() {
				return false
			}

			v = x.X
		case *ssa.UnOp:
			if x.Op != token.MUL {
				return false
			}

			v = x.X
		default:
			return false
		}
	}
}

func fieldOf(fa *ssa.FieldAddr) *types.Var {
	ptr, ok := fa.X.Type().Underlying().(*types.Pointer)
	if !ok {
		return nil
	}

	st, ok := ptr.Elem().Underlying().(*types.Struct)
	if !ok || fa.Field >= st.NumFields() {
		return nil
	}

	return st.Field(fa.Field)
}

func (s *sim) store(st *ssa.Store) error {
	field, ok := s.selfField(st.Addr)
	if !ok {
		return nil
	}

	if o := s.origin(st.Val); s.isParam(o) {
		s.record(o, field.Name())
		return nil
	}

	if !field.Embedded() {
		return nil
	}

	call := callOf(st.Val)
	if call == nil {
		return nil
	}

	return s.superConstructor(call, field)
}

func callOf(v ssa.Value) *ssa.Call {
	if u, ok := v.(*ssa.UnOp); ok && u.Op == token.MUL {
		v = u.X
	}

	call, _ := v.(*ssa.Call)

	return call
}

// superConstructor analyzes the constructor whose result initializes the
// embedded field and remaps its parameters through the call arguments.
func (s *sim) superConstructor(call *ssa.Call, field *types.Var) error {
	embedded := namedOf(field.Type())
	if embedded == nil {
		return nil
	}

	cc := call.Common()

	callee := cc.StaticCallee()
	if callee == nil {
		return fmt.Errorf("dynamic call initializes embedded %s", field.Name())
	}

	res, err := analyze(callee, embedded, s.visiting)
	if err != nil {
		return fmt.Errorf("embedded %s: %w", field.Name(), err)
	}

	for idx, name := range res.Fields {
		if idx >= len(cc.Args) {
			continue
		}

		if o := s.origin(cc.Args[idx]); s.isParam(o) {
			s.record(o, name)
		}
	}

	return nil
}

// call records static Set<Field>(param) calls on self whose single
// parameter type is identical to the field type.
func (s *sim) call(c *ssa.CallCommon) {
	callee := c.StaticCallee()
	if callee == nil || callee.Signature.Recv() == nil || len(c.Args) != 2 {
		return
	}

	name := callee.Name()
	if !strings.HasPrefix(name, "Set") || len(name) == 3 {
		return
	}

	if !s.rootedAtSelf(c.Args[0]) {
		return
	}

	o := s.origin(c.Args[1])
	if !s.isParam(o) {
		return
	}

	params := callee.Signature.Params()
	if params.Len() != 1 {
		return
	}

	recv := namedOf(callee.Signature.Recv().Type())
	if recv == nil {
		return
	}

	field := structField(recv, strings.TrimPrefix(name, "Set"))
	if field == nil || !types.Identical(field.Type(), params.At(0).Type()) {
		return
	}

	s.record(o, field.Name())
}

func structField(named *types.Named, suffix string) *types.Var {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil
	}

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if f.Name() == suffix || f.Name() == common.LowerFirst(suffix) {
			return f
		}
	}

	return nil
}

func namedOf(t types.Type) *types.Named {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}

	named, _ := t.(*types.Named)

	return named
}
